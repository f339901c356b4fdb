package middleware

import (
	"net/http"
	"strings"

	"github.com/chatstack/chatroom/internal/registry"
	"github.com/chatstack/chatroom/pkg/jwtutil"
	"github.com/chatstack/chatroom/pkg/logger"
	"github.com/chatstack/chatroom/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantAuthMiddleware resolves the tenant for every tenant-scoped request.
// Two schemes are accepted: HTTP Basic with the tenant name and credential
// (verified in constant time by the registry), or a Bearer token previously
// issued for the tenant. On success the tenant id is stored in the request
// context; everything downstream trusts that value.
func TenantAuthMiddleware(reg *registry.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			if name, credential, ok := c.Request().BasicAuth(); ok {
				tenant, err := reg.Authenticate(c.Request().Context(), name, credential)
				if err != nil {
					log.Warn("Tenant basic auth failed", zap.String("tenant_name", name))
					prometheus.RecordAuthError("invalid_credentials")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid tenant credentials"})
				}
				c.Set("tenant_id", tenant.ID)
				c.Set("tenant_name", tenant.Name)
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Missing or malformed Authorization header")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "basic credentials or bearer token required"})
			}

			claims, err := jwtutil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid tenant token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("tenant_id", claims.TenantID)
			c.Set("tenant_name", claims.TenantName)
			return next(c)
		}
	}
}

// TenantID returns the tenant id resolved by TenantAuthMiddleware.
func TenantID(c echo.Context) (uint, bool) {
	id, ok := c.Get("tenant_id").(uint)
	return id, ok
}
