package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marginalia/backend/internal/handler"
	"marginalia/backend/internal/model"
	"marginalia/backend/internal/service"
	"marginalia/backend/internal/service/mock"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authService := mock.NewMockAuthService(ctrl)
	authService.EXPECT().
		Register(gomock.Any(), "alice", "alice@example.com", "secret1").
		Return(&service.AuthResponse{
			User:  &model.User{ID: 42, Username: "alice", Email: "alice@example.com"},
			Token: "signed-token",
		}, nil)

	h := handler.NewAuthHandler(authService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})
	c, rec := newTestContext(e, req)

	require.NoError(t, h.Register(c))

	var resp handler.AuthResponseDTO
	assertJSONResponse(t, rec, http.StatusCreated, &resp)
	require.Equal(t, "42", resp.User.ID)
	require.Equal(t, "signed-token", resp.Token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, handler.AuthCookieName, cookies[0].Name)
	require.Equal(t, "signed-token", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "taken", err: service.ErrUserExists, status: http.StatusConflict},
		{name: "bad username", err: service.ErrInvalidUsername, status: http.StatusBadRequest},
		{name: "short password", err: service.ErrPasswordTooShort, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			authService := mock.NewMockAuthService(ctrl)
			authService.EXPECT().
				Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tc.err)

			h := handler.NewAuthHandler(authService)
			e := newTestEcho()
			req := newJSONRequest(http.MethodPost, "/auth/register", map[string]string{"username": "x", "password": "y"})
			c, rec := newTestContext(e, req)

			require.NoError(t, h.Register(c))
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authService := mock.NewMockAuthService(ctrl)
	authService.EXPECT().
		Login(gomock.Any(), "alice", "wrong").
		Return(nil, service.ErrInvalidPassword)

	h := handler.NewAuthHandler(authService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	c, rec := newTestContext(e, req)

	require.NoError(t, h.Login(c))

	var resp map[string]string
	assertJSONResponse(t, rec, http.StatusUnauthorized, &resp)
	require.Equal(t, "invalid username or password", resp["error"])
}

func TestAuthHandler_Login_UnknownUserSameStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authService := mock.NewMockAuthService(ctrl)
	authService.EXPECT().
		Login(gomock.Any(), "ghost", "secret1").
		Return(nil, service.ErrUserNotFound)

	h := handler.NewAuthHandler(authService)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"username": "ghost",
		"password": "secret1",
	})
	c, rec := newTestContext(e, req)

	require.NoError(t, h.Login(c))
	// Unknown user and wrong password are indistinguishable.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := handler.NewAuthHandler(nil)
	e := newTestEcho()
	req := newJSONRequest(http.MethodPost, "/auth/logout", nil)
	c, rec := newTestContext(e, req)

	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, handler.AuthCookieName, cookies[0].Name)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthHandler_Me(t *testing.T) {
	h := handler.NewAuthHandler(nil)
	e := newTestEcho()

	t.Run("authenticated", func(t *testing.T) {
		req := newJSONRequest(http.MethodGet, "/auth/me", nil)
		c, rec := newTestContext(e, req)
		asUser(c, 42, "alice")

		require.NoError(t, h.Me(c))

		var resp handler.UserResponse
		assertJSONResponse(t, rec, http.StatusOK, &resp)
		require.Equal(t, "42", resp.ID)
		require.Equal(t, "alice", resp.Username)
	})

	t.Run("anonymous", func(t *testing.T) {
		req := newJSONRequest(http.MethodGet, "/auth/me", nil)
		c, rec := newTestContext(e, req)

		require.NoError(t, h.Me(c))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_Status(t *testing.T) {
	h := handler.NewAuthHandler(nil)
	e := newTestEcho()

	t.Run("authenticated", func(t *testing.T) {
		req := newJSONRequest(http.MethodGet, "/auth/status", nil)
		c, rec := newTestContext(e, req)
		asUser(c, 42, "alice")

		require.NoError(t, h.Status(c))

		var resp handler.AuthStatusResponse
		assertJSONResponse(t, rec, http.StatusOK, &resp)
		require.True(t, resp.Authenticated)
		require.Equal(t, "alice", resp.Username)
	})

	t.Run("anonymous", func(t *testing.T) {
		req := newJSONRequest(http.MethodGet, "/auth/status", nil)
		c, rec := newTestContext(e, req)

		require.NoError(t, h.Status(c))

		var resp handler.AuthStatusResponse
		assertJSONResponse(t, rec, http.StatusOK, &resp)
		require.False(t, resp.Authenticated)
		require.Empty(t, resp.Username)
	})
}
