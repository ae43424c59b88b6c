package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"marginalia/backend/internal/repository"
	"marginalia/backend/internal/repository/testutil"
	"marginalia/backend/internal/service"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newAuthService(t *testing.T) (service.AuthService, repository.BannedUserRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	bans := repository.NewBannedUserRepository(db)
	return service.NewAuthService(repository.NewUserRepository(db), bans, testJWTSecret), bans
}

func TestAuthService_RegisterAndLogin_Success(t *testing.T) {
	svc, _ := newAuthService(t)

	resp, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1")
	require.NoError(t, err, "register should not fail")
	require.NotNil(t, resp.User, "expected user in response")
	require.Equal(t, "alice", resp.User.Username)
	require.NotEmpty(t, resp.Token, "expected token")
	require.NotEqual(t, "secret1", resp.User.PasswordHash, "password must be hashed")

	userID, username, err := svc.ParseToken(resp.Token)
	require.NoError(t, err, "token should parse")
	require.Equal(t, resp.User.ID, userID)
	require.Equal(t, "alice", username)

	loginResp, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err, "login should not fail")
	require.Equal(t, resp.User.ID, loginResp.User.ID)
}

func TestAuthService_Register_ValidationErrors(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "missing username", username: "", password: "secret1", wantErr: service.ErrUsernameRequired},
		{name: "username starts with digit", username: "1alice", password: "secret1", wantErr: service.ErrInvalidUsername},
		{name: "username too short", username: "al", password: "secret1", wantErr: service.ErrInvalidUsername},
		{name: "missing password", username: "alice", password: "", wantErr: service.ErrPasswordRequired},
		{name: "short password", username: "alice", password: "123", wantErr: service.ErrPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newAuthService(t)
			_, err := svc.Register(context.Background(), tc.username, "", tc.password)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAuthService_Register_UserExists(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "", "secret2")
	require.ErrorIs(t, err, service.ErrUserExists)
}

func TestAuthService_Login_Errors(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "", "secret")
	require.ErrorIs(t, err, service.ErrUsernameRequired)

	_, err = svc.Login(context.Background(), "alice", "")
	require.ErrorIs(t, err, service.ErrPasswordRequired)

	_, err = svc.Login(context.Background(), "alice", "secret1")
	require.ErrorIs(t, err, service.ErrUserNotFound)

	_, err = svc.Register(context.Background(), "alice", "", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidPassword)
}

func TestAuthService_BannedUser(t *testing.T) {
	svc, bans := newAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "", "secret1")
	require.NoError(t, err)

	_, err = bans.Ban(context.Background(), "alice", "spam")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "secret1")
	require.ErrorIs(t, err, service.ErrUserBanned, "banned user must not log in")

	// The ban also blocks re-registration of the username.
	_, err = bans.Ban(context.Background(), "mallory", "abuse")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "mallory", "", "secret1")
	require.ErrorIs(t, err, service.ErrUserBanned)
}

func TestAuthService_ParseToken_Invalid(t *testing.T) {
	svc, _ := newAuthService(t)

	_, _, err := svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	// A token signed with a different secret is rejected.
	db := testutil.NewTestDB(t)
	other := service.NewAuthService(repository.NewUserRepository(db), repository.NewBannedUserRepository(db), "another-secret-entirely-here!!")
	resp, err := other.Register(context.Background(), "mallory", "", "secret1")
	require.NoError(t, err)

	_, _, err = svc.ParseToken(resp.Token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}
