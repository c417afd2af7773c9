package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func (rl *RateLimiter) keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func TestCleanupEvictsIdleKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	rl := New(5, time.Minute)
	rl.now = func() time.Time { return now }

	_, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	now = now.Add(40 * time.Second)
	_, err = rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	rl.Cleanup()
	require.Equal(t, 1, rl.keys())

	now = now.Add(time.Minute)
	rl.Cleanup()
	require.Zero(t, rl.keys())
}

func TestStartCleanupStopsWithContext(t *testing.T) {
	rl := New(5, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, ip := range []string{"a", "b", "c"} {
		_, err := rl.Allow(ctx, ip)
		require.NoError(t, err)
	}
	rl.StartCleanup(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool { return rl.keys() == 0 }, time.Second, 5*time.Millisecond)
}
