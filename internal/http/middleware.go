package http

import (
	nethttp "net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/handler"
	"marginalia/backend/internal/service"
	"marginalia/backend/pkg/logger"
)

// AuthCookieName mirrors the cookie set by the auth handler so the
// middleware can accept browser sessions as well as Bearer tokens.
const AuthCookieName = handler.AuthCookieName

// extractToken pulls the session token from the Authorization header,
// falling back to the auth cookie.
func extractToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// JWTAuthMiddleware rejects requests without a valid token and stores
// the authenticated identity on the request context.
func JWTAuthMiddleware(auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return c.JSON(nethttp.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			userID, username, err := auth.ParseToken(token)
			if err != nil {
				return c.JSON(nethttp.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			c.Set(handler.ContextUserID, userID)
			c.Set(handler.ContextUsername, username)
			return next(c)
		}
	}
}

// OptionalAuthMiddleware attaches the identity when a valid token is
// present but lets anonymous requests through untouched.
func OptionalAuthMiddleware(auth service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token != "" {
				if userID, username, err := auth.ParseToken(token); err == nil {
					c.Set(handler.ContextUserID, userID)
					c.Set(handler.ContextUsername, username)
				}
			}
			return next(c)
		}
	}
}

// RequestLoggerMiddleware logs each request with a level matching the
// response status.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			args := []any{
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", status,
				"latency", time.Since(start).String(),
				"remote_ip", c.RealIP(),
			}
			switch {
			case status >= nethttp.StatusInternalServerError:
				logger.Error("request", args...)
			case status >= nethttp.StatusBadRequest:
				logger.Warn("request", args...)
			default:
				logger.Info("request", args...)
			}
			return nil
		}
	}
}
