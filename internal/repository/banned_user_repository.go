//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// BannedUserRepository defines the interface for write-ban storage.
type BannedUserRepository interface {
	Ban(ctx context.Context, username, reason string) (*model.BannedUser, error)
	Unban(ctx context.Context, username string) error
	IsBanned(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]model.BannedUser, error)
}

type bannedUserRepository struct {
	db *sql.DB
}

// NewBannedUserRepository creates a new banned user repository.
func NewBannedUserRepository(db *sql.DB) BannedUserRepository {
	return &bannedUserRepository{db: db}
}

// Ban records a write ban for the given username. Banning an already
// banned user updates the reason.
func (r *bannedUserRepository) Ban(ctx context.Context, username, reason string) (*model.BannedUser, error) {
	id := snowflake.NextID()
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO banned_users (id, username, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET reason = excluded.reason
	`, id, username, reason, formatTime(now))
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, reason, created_at FROM banned_users WHERE username = ?
	`, username)

	var b model.BannedUser
	var createdAt string
	if err := row.Scan(&b.ID, &b.Username, &b.Reason, &createdAt); err != nil {
		return nil, err
	}
	b.CreatedAt, _ = parseTime(createdAt)
	return &b, nil
}

// Unban lifts a write ban.
func (r *bannedUserRepository) Unban(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM banned_users WHERE username = ?`, username)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsBanned reports whether the username has an active write ban.
func (r *bannedUserRepository) IsBanned(ctx context.Context, username string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM banned_users WHERE username = ?
	`, username).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves all active bans.
func (r *bannedUserRepository) List(ctx context.Context) ([]model.BannedUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, reason, created_at FROM banned_users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bans []model.BannedUser
	for rows.Next() {
		var b model.BannedUser
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Username, &b.Reason, &createdAt); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = parseTime(createdAt)
		bans = append(bans, b)
	}
	return bans, rows.Err()
}
