package handler

import (
	"net/http"
	"time"

	"github.com/chatstack/chatroom/internal/middleware"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/repository"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/chatstack/chatroom/pkg/logger"
	"github.com/chatstack/chatroom/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateUser handles user creation inside the authenticated tenant's storage
func CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	var req repository.UserInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var user *model.User
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		user, err = repository.CreateUser(s, req)
		return err
	})
	if err != nil {
		log.Error("Failed to create user", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("User created", zap.Uint("tenant_id", tenantID), zap.Uint("id", user.ID))
	return c.JSON(http.StatusCreated, user)
}

// GetUser retrieves one user
func GetUser(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user *model.User
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		user, err = repository.GetUser(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers returns one page of the tenant's users
func ListUsers(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	params := parseListParams(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var page *repository.Page[model.User]
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		page, err = repository.ListUsers(s, params)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// UpdateUser applies a partial update to a user
func UpdateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var fields map[string]interface{}
	if err := c.Bind(&fields); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var user *model.User
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		user, err = repository.UpdateUser(s, id, fields)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Info("User updated", zap.Uint("tenant_id", tenantID), zap.Uint("id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user
func DeleteUser(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	var deleted bool
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		deleted, err = repository.DeleteUser(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

// ListUserMessages returns one page of a user's messages across chatrooms
func ListUserMessages(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	params := parseListParams(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var page *repository.Page[model.Message]
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		page, err = repository.ListUserMessages(s, id, params)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
