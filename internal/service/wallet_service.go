package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
)

// Solana addresses are base58-encoded 32-byte keys, 32 to 44 characters.
var solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

type WalletService interface {
	Link(ctx context.Context, userID int64, address string, makePrimary bool) (*model.Wallet, error)
	Unlink(ctx context.Context, userID int64, address string) error
	List(ctx context.Context, userID int64) ([]model.Wallet, error)
	SetPrimary(ctx context.Context, userID int64, address string) error
}

type walletService struct {
	wallets repository.WalletRepository
}

func NewWalletService(wallets repository.WalletRepository) WalletService {
	return &walletService{wallets: wallets}
}

// Link attaches a Solana address to the user's account. Each address
// can belong to only one account; the user's first wallet always
// becomes primary.
func (s *walletService) Link(ctx context.Context, userID int64, address string, makePrimary bool) (*model.Wallet, error) {
	if !solanaAddressPattern.MatchString(address) {
		return nil, ErrInvalid
	}

	existing, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("check address: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	current, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	if len(current) == 0 {
		makePrimary = true
	}

	wallet, err := s.wallets.Link(ctx, userID, address, makePrimary)
	if err != nil {
		return nil, fmt.Errorf("link wallet: %w", err)
	}
	return wallet, nil
}

func (s *walletService) Unlink(ctx context.Context, userID int64, address string) error {
	if err := s.wallets.Unlink(ctx, userID, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("unlink wallet: %w", err)
	}
	return nil
}

func (s *walletService) List(ctx context.Context, userID int64) ([]model.Wallet, error) {
	return s.wallets.ListByUser(ctx, userID)
}

func (s *walletService) SetPrimary(ctx context.Context, userID int64, address string) error {
	if err := s.wallets.SetPrimary(ctx, userID, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("set primary wallet: %w", err)
	}
	return nil
}
