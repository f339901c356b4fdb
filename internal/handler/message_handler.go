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

// SendMessage stores a message in a chatroom
func SendMessage(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	chatroomID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req repository.MessageInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse message request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.ChatroomID = chatroomID

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var message *model.Message
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		message, err = repository.CreateMessage(s, req)
		return err
	})
	if err != nil {
		log.Error("Failed to send message", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Message sent",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("chatroom_id", chatroomID),
		zap.String("id", message.ID))
	return c.JSON(http.StatusCreated, message)
}

// GetMessage retrieves one message by its token id
func GetMessage(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id := c.Param("message_id")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var message *model.Message
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		message, err = repository.GetMessage(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message)
}

// ListMessages returns one page of a chatroom's messages with optional
// date-range and content filters
func ListMessages(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	chatroomID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	params := parseListParams(c)

	startDate, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return respondError(c, err)
	}
	endDate, err := parseDate(c.QueryParam("end_date"))
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.MessageFilter{
		StartDate: startDate,
		EndDate:   endDate,
		Search:    c.QueryParam("search"),
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var page *repository.Page[model.Message]
	err = factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		page, err = repository.ListMessages(s, chatroomID, params, filter)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// DeleteMessage removes a message
func DeleteMessage(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	id := c.Param("message_id")

	defer prometheus.TrackDBOperation("delete")(time.Now())

	var deleted bool
	err := factory.WithSession(c.Request().Context(), tenantID, func(s *tenantdb.Session) error {
		var err error
		deleted, err = repository.DeleteMessage(s, id)
		return err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}
