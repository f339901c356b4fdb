package handler

import (
	"net/http"

	"github.com/chatstack/chatroom/prometheus"
	"github.com/labstack/echo/v4"
)

// HealthCheck responds with service status
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	return prometheus.Handler()(c)
}
