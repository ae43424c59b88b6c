package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often the store walks the whole map looking for
// expired windows.
const sweepEvery = 4096

type bucket struct {
	count   int
	expires time.Time
}

// MemoryStore is a process-local Store backed by a mutex-protected map.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	takes   int
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Take implements Store. The whole read-increment-write runs under one
// lock, which serializes concurrent requests for the same key.
func (s *MemoryStore) Take(_ context.Context, key string, window time.Duration, limit int) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.takes++
	if s.takes%sweepEvery == 0 {
		s.sweepLocked(now)
	}

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.expires) {
		s.buckets[key] = &bucket{count: 1, expires: now.Add(window)}
		return Result{Allowed: true, Remaining: limit - 1, RetryAfter: 0}, nil
	}

	reset := b.expires.Sub(now)
	if b.count >= limit {
		// Rejected attempts leave the counter unchanged.
		return Result{Allowed: false, Remaining: 0, RetryAfter: reset}, nil
	}

	b.count++
	return Result{Allowed: true, Remaining: limit - b.count, RetryAfter: 0}, nil
}

// sweepLocked drops buckets whose own window has elapsed. Expiry is
// recorded per bucket at creation, so keys held by a limiter with a
// long window survive sweeps triggered through a short-window limiter
// sharing the store.
func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, b := range s.buckets {
		if !now.Before(b.expires) {
			delete(s.buckets, key)
		}
	}
}
