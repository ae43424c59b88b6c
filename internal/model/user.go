package model

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BannedUser blocks a user from writing. Bans are keyed by username so
// they survive account deletion and re-registration.
type BannedUser struct {
	ID        int64
	Username  string
	Reason    string
	CreatedAt time.Time
}

// Wallet is a Solana address a user has linked to their account. A user
// may link several; at most one is primary.
type Wallet struct {
	ID        int64
	UserID    int64
	Address   string
	IsPrimary bool
	CreatedAt time.Time
}
