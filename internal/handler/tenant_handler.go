package handler

import (
	"net/http"
	"time"

	"github.com/chatstack/chatroom/internal/middleware"
	"github.com/chatstack/chatroom/pkg/jwtutil"
	"github.com/chatstack/chatroom/pkg/logger"
	"github.com/chatstack/chatroom/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTenant handles tenant creation: the registry row and the tenant's
// isolated storage are provisioned together, all or nothing.
func CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		Name         string `json:"name"`
		StorageLabel string `json:"storage_label"`
		Credential   string `json:"credential"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tenant, err := reg.CreateTenant(c.Request().Context(), req.Name, req.StorageLabel, req.Credential)
	if err != nil {
		log.Error("Failed to create tenant", zap.String("name", req.Name), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Tenant created", zap.String("name", tenant.Name), zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// GetTenant returns the authenticated tenant's own record.
func GetTenant(c echo.Context) error {
	prometheus.RecordTenantOperation("access")

	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context required"})
	}

	tenant, err := reg.FindByID(c.Request().Context(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// IssueToken exchanges tenant basic credentials for a bearer token.
func IssueToken(c echo.Context) error {
	log := logger.FromEcho(c)

	name, credential, ok := c.Request().BasicAuth()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "basic credentials required"})
	}

	tenant, err := reg.Authenticate(c.Request().Context(), name, credential)
	if err != nil {
		log.Warn("Token request with invalid credentials", zap.String("tenant_name", name))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid tenant credentials"})
	}

	token, err := jwtutil.GenerateToken(tenant.ID, tenant.Name)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}
