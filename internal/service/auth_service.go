package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidUsername  = errors.New("username must start with a letter and contain only letters, numbers, - and _")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrUserExists       = errors.New("username is already taken")
	ErrUserBanned       = errors.New("username is banned")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid username or password")
	ErrInvalidToken     = errors.New("invalid token")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,31}$`)

const tokenLifetime = 30 * 24 * time.Hour

// AuthResponse carries the authenticated user and a signed token.
type AuthResponse struct {
	User  *model.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	ParseToken(token string) (int64, string, error)
}

type authService struct {
	users  repository.UserRepository
	bans   repository.BannedUserRepository
	secret []byte
}

func NewAuthService(users repository.UserRepository, bans repository.BannedUserRepository, jwtSecret string) AuthService {
	return &authService{users: users, bans: bans, secret: []byte(jwtSecret)}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	// Bans are keyed by username so they survive account deletion and
	// block re-registration.
	if err := s.requireNotBanned(ctx, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.respond(user)
}

func (s *authService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	if err := s.requireNotBanned(ctx, username); err != nil {
		return nil, err
	}

	return s.respond(user)
}

func (s *authService) requireNotBanned(ctx context.Context, username string) error {
	banned, err := s.bans.IsBanned(ctx, username)
	if err != nil {
		return fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return ErrUserBanned
	}
	return nil
}

// ParseToken validates a signed token and returns the user ID and
// username embedded in it.
func (s *authService) ParseToken(token string) (int64, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", ErrInvalidToken
	}

	username, _ := claims["username"].(string)
	return userID, username, nil
}

func (s *authService) respond(user *model.User) (*AuthResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenLifetime).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResponse{User: user, Token: signed}, nil
}
