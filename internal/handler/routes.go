package handler

import (
	"github.com/chatstack/chatroom/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes attaches all routes to the Echo instance. Init must have
// been called first.
func RegisterRoutes(e *echo.Echo) {
	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)

	// Tenant provisioning and token issuance
	e.POST("/tenants", CreateTenant)
	e.POST("/auth/token", IssueToken)

	// API routes - all require a resolved tenant
	api := e.Group("/api")
	api.Use(middleware.TenantAuthMiddleware(reg))

	api.GET("/tenant", GetTenant)

	users := api.Group("/users")
	users.POST("", CreateUser)
	users.GET("", ListUsers)
	users.GET("/:id", GetUser)
	users.PATCH("/:id", UpdateUser)
	users.DELETE("/:id", DeleteUser)
	users.GET("/:id/messages", ListUserMessages)

	chatrooms := api.Group("/chatrooms")
	chatrooms.POST("", CreateChatroom)
	chatrooms.GET("", ListChatrooms)
	chatrooms.GET("/:id", GetChatroom)
	chatrooms.PATCH("/:id", UpdateChatroom)
	chatrooms.DELETE("/:id", DeleteChatroom)

	chatrooms.POST("/:id/members", AddMember)
	chatrooms.GET("/:id/members", ListMembers)
	chatrooms.DELETE("/:id/members/:user_id", RemoveMember)

	chatrooms.POST("/:id/messages", SendMessage)
	chatrooms.GET("/:id/messages", ListMessages)
	chatrooms.GET("/:id/messages/:message_id", GetMessage)
	chatrooms.DELETE("/:id/messages/:message_id", DeleteMessage)
}
