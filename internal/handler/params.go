package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/model"
)

// Context keys set by the auth middleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

func parseIntQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

// currentUser returns the authenticated user from the request context,
// or nil when the request is anonymous.
func currentUser(c echo.Context) *model.User {
	id, ok := c.Get(ContextUserID).(int64)
	if !ok || id == 0 {
		return nil
	}
	username, _ := c.Get(ContextUsername).(string)
	return &model.User{ID: id, Username: username}
}
