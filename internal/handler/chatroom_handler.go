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

// CreateChatroom handles chatroom creation
func CreateChatroom(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	var req repository.ChatroomInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse chatroom creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var chatroom *model.Chatroom
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		chatroom, err = repository.CreateChatroom(s, req)
		return err
	})
	if err != nil {
		log.Error("Failed to create chatroom", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Chatroom created", zap.Uint("tenant_id", tenantID), zap.Uint("id", chatroom.ID))
	return c.JSON(http.StatusCreated, chatroom)
}

// GetChatroom retrieves one chatroom
func GetChatroom(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var chatroom *model.Chatroom
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		chatroom, err = repository.GetChatroom(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, chatroom)
}

// ListChatrooms returns one page of the tenant's chatrooms
func ListChatrooms(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	params := parseListParams(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var page *repository.Page[model.Chatroom]
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		page, err = repository.ListChatrooms(s, params)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// UpdateChatroom applies a partial update to a chatroom
func UpdateChatroom(c echo.Context) error {
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
		log.Error("Failed to parse chatroom update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var chatroom *model.Chatroom
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		chatroom, err = repository.UpdateChatroom(s, id, fields)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Chatroom updated", zap.Uint("tenant_id", tenantID), zap.Uint("id", chatroom.ID))
	return c.JSON(http.StatusOK, chatroom)
}

// DeleteChatroom removes a chatroom
func DeleteChatroom(c echo.Context) error {
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
		deleted, err = repository.DeleteChatroom(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

// AddMember adds a user to a chatroom
func AddMember(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	chatroomID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req repository.MembershipInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse membership request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.ChatroomID = chatroomID

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var membership *model.Membership
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		membership, err = repository.AddMember(s, req)
		return err
	})
	if err != nil {
		log.Error("Failed to add member", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Member added",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("chatroom_id", chatroomID),
		zap.Uint("user_id", membership.UserID))
	return c.JSON(http.StatusCreated, membership)
}

// ListMembers returns one page of a chatroom's memberships, optionally
// filtered by member name
func ListMembers(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	chatroomID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	params := parseListParams(c)
	nameSearch := c.QueryParam("name")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var page *repository.Page[model.Membership]
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		page, err = repository.ListMembers(s, chatroomID, params, nameSearch)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// RemoveMember removes a user from a chatroom
func RemoveMember(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	chatroomID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	var removed bool
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		removed, err = repository.RemoveMember(s, chatroomID, userID)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}
