package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}

// writeServiceError maps service sentinel errors to HTTP responses.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return writeError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, service.ErrConflict):
		return writeError(c, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrRateLimited):
		return writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, service.ErrNotConfigured):
		return writeError(c, http.StatusServiceUnavailable, "feature not configured")
	default:
		return writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
