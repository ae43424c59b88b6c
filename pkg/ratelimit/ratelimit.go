// Package ratelimit implements fixed-window rate limiting over an
// injectable counter store. Windows are anchored at the first request
// for a key: the entry is created with count 1, increments while the
// window is live, and resets to a fresh window once it elapses. A
// request that would exceed the limit is rejected without touching the
// counter, so rejected attempts never bleed into future windows.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a single admission check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store is the shared counter store. Implementations must apply the
// window transition atomically per key: concurrent calls for one key
// may never jointly admit more than limit requests in a window.
type Store interface {
	Take(ctx context.Context, key string, window time.Duration, limit int) (Result, error)
}

// Limiter binds a store to one window/limit pair, typically one
// Limiter per protected action.
type Limiter struct {
	store  Store
	window time.Duration
	limit  int
}

// New creates a Limiter. window and limit must be positive.
func New(store Store, window time.Duration, limit int) *Limiter {
	return &Limiter{store: store, window: window, limit: limit}
}

// Allow runs the check-and-increment for key. A store error means no
// definitive answer was obtained; callers must treat it as a rejection,
// not as permission.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.store.Take(ctx, key, l.window, l.limit)
}

// Limit returns the configured per-window maximum.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }
