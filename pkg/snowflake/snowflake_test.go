package snowflake

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInit must run serially (no t.Parallel) because it mutates global state.
func TestInit(t *testing.T) {
	t.Run("initializes successfully with valid node ID", func(t *testing.T) {
		err := Init(1)
		require.NoError(t, err)
	})

	t.Run("returns error for negative node ID", func(t *testing.T) {
		err := Init(-1)
		require.Error(t, err)
	})

	t.Run("returns error for node ID exceeding max (1023)", func(t *testing.T) {
		err := Init(1024)
		require.Error(t, err)
	})

	// Reset to valid node for subsequent tests
	err := Init(0)
	require.NoError(t, err)
}

func TestNextID_Uniqueness(t *testing.T) {
	err := Init(0)
	require.NoError(t, err)

	const count = 10000
	ids := make(map[int64]bool, count)

	for i := 0; i < count; i++ {
		id := NextID()
		require.False(t, ids[id], "duplicate ID generated: %d", id)
		ids[id] = true
	}

	require.Len(t, ids, count)
}

func TestNextID_Concurrent(t *testing.T) {
	err := Init(0)
	require.NoError(t, err)

	const goroutines = 8
	const perGoroutine = 500

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perGoroutine)
			for j := 0; j < perGoroutine; j++ {
				local = append(local, NextID())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine)
}
