//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// WalletRepository defines the interface for linked wallet storage.
type WalletRepository interface {
	Link(ctx context.Context, userID int64, address string, isPrimary bool) (*model.Wallet, error)
	Unlink(ctx context.Context, userID int64, address string) error
	ListByUser(ctx context.Context, userID int64) ([]model.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*model.Wallet, error)
	SetPrimary(ctx context.Context, userID int64, address string) error
}

type walletRepository struct {
	db *sql.DB
}

// NewWalletRepository creates a new wallet repository.
func NewWalletRepository(db *sql.DB) WalletRepository {
	return &walletRepository{db: db}
}

// Link attaches a wallet address to a user. Marking it primary demotes
// the user's previous primary in the same transaction.
func (r *walletRepository) Link(ctx context.Context, userID int64, address string, isPrimary bool) (*model.Wallet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if isPrimary {
		if _, err := tx.ExecContext(ctx, `UPDATE wallets SET is_primary = 0 WHERE user_id = ?`, userID); err != nil {
			return nil, err
		}
	}

	id := snowflake.NextID()
	now := time.Now().UTC()

	primary := 0
	if isPrimary {
		primary = 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, address, is_primary, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, userID, address, primary, formatTime(now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Wallet{
		ID:        id,
		UserID:    userID,
		Address:   address,
		IsPrimary: isPrimary,
		CreatedAt: now,
	}, nil
}

// Unlink detaches a wallet address from a user.
func (r *walletRepository) Unlink(ctx context.Context, userID int64, address string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM wallets WHERE user_id = ? AND address = ?
	`, userID, address)
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

// ListByUser retrieves a user's linked wallets, primary first.
func (r *walletRepository) ListByUser(ctx context.Context, userID int64) ([]model.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, address, is_primary, created_at
		FROM wallets WHERE user_id = ? ORDER BY is_primary DESC, created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

// GetByAddress retrieves a wallet by address regardless of owner.
// Returns nil when not found.
func (r *walletRepository) GetByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, address, is_primary, created_at FROM wallets WHERE address = ?
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanWallet(rows)
}

// SetPrimary marks one of the user's wallets as primary, demoting the
// rest.
func (r *walletRepository) SetPrimary(ctx context.Context, userID int64, address string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE wallets SET is_primary = 1 WHERE user_id = ? AND address = ?
	`, userID, address)
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

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET is_primary = 0 WHERE user_id = ? AND address != ?
	`, userID, address); err != nil {
		return err
	}

	return tx.Commit()
}

func scanWallet(rows *sql.Rows) (*model.Wallet, error) {
	var w model.Wallet
	var isPrimary int
	var createdAt string
	if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &isPrimary, &createdAt); err != nil {
		return nil, err
	}
	w.IsPrimary = isPrimary != 0
	w.CreatedAt, _ = parseTime(createdAt)
	return &w, nil
}
