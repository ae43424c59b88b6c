package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marginalia/backend/internal/service"
)

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "marginalia_auth"

const authCookieMaxAge = 30 * 24 * time.Hour

type AuthHandler struct {
	service service.AuthService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type authStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/status", h.Status)
}

func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/auth/me", h.Me)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	resp, err := h.service.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, err)
	}

	h.setAuthCookie(c, resp.Token)
	return c.JSON(http.StatusCreated, toAuthResponse(resp))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid request")
	}

	resp, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeAuthError(c, err)
	}

	h.setAuthCookie(c, resp.Token)
	return c.JSON(http.StatusOK, toAuthResponse(resp))
}

// Logout clears the session cookie. Tokens themselves stay valid until
// they expire; there is no server-side session state.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// Status reports whether the caller has a valid session. It never
// fails; anonymous callers get authenticated=false.
func (h *AuthHandler) Status(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, authStatusResponse{Authenticated: false})
	}
	return c.JSON(http.StatusOK, authStatusResponse{
		Authenticated: true,
		Username:      user.Username,
	})
}

// Me returns the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return writeError(c, http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, userResponse{
		ID:       itoa(user.ID),
		Username: user.Username,
	})
}

func (h *AuthHandler) setAuthCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(authCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidPassword):
		return writeError(c, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, service.ErrUserExists):
		return writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserBanned):
		return writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort):
		return writeError(c, http.StatusBadRequest, err.Error())
	default:
		return writeServiceError(c, err)
	}
}

func toAuthResponse(resp *service.AuthResponse) authResponse {
	return authResponse{
		User: userResponse{
			ID:       itoa(resp.User.ID),
			Username: resp.User.Username,
			Email:    resp.User.Email,
		},
		Token: resp.Token,
	}
}
