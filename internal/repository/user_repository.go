//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	id := snowflake.NextID()
	now := time.Now().UTC()
	nowStr := formatTime(now)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, username, email, passwordHash, nowStr, nowStr)
	if err != nil {
		return nil, err
	}

	return &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetByID retrieves a user by ID. Returns nil when not found.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = ?
	`, id))
}

// GetByUsername retrieves a user by username. Returns nil when not found.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = ?
	`, username))
}

func (r *userRepository) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	u.CreatedAt, _ = parseTime(createdAt)
	u.UpdatedAt, _ = parseTime(updatedAt)
	return &u, nil
}
