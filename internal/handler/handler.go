package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/registry"
	"github.com/chatstack/chatroom/internal/repository"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/labstack/echo/v4"
)

var (
	reg     *registry.Registry
	factory *tenantdb.Factory
)

// Init wires the handlers to the tenant registry and session factory.
func Init(r *registry.Registry, f *tenantdb.Factory) {
	reg = r
	factory = f
}

// respondError maps the error taxonomy onto HTTP statuses. Storage errors
// stay generic so internal paths never leak to clients.
func respondError(c echo.Context, err error) error {
	var ve *errs.ValidationError
	var de *errs.DuplicateError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.As(err, &de):
		return c.JSON(http.StatusConflict, echo.Map{"error": de.Error()})
	case errors.Is(err, errs.ErrTenantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	case errors.Is(err, errs.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, errs.ErrStorageUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tenant storage unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// parseListParams reads the common pagination and sorting query parameters.
func parseListParams(c echo.Context) repository.ListParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	return repository.ListParams{
		Page:      page,
		PerPage:   perPage,
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
}

// parseDate accepts an ISO-8601 timestamp or a bare date.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errs.Validation("date", "must be ISO-8601")
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, errs.Validation(name, "must be a positive integer")
	}
	return uint(id), nil
}
