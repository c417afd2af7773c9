package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisRevocationStore(client, "")
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	require.True(t, mr.Exists("oipet:revoked-refresh:jti-1"))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.Error(t, store.Revoke(ctx, " ", time.Minute))
}

func TestRedisRevocationStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisRevocationStore(client, "x").IsRevoked(context.Background(), "jti")
	require.Error(t, err)
}

func TestMemoryRevocationStoreExpires(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryRevocationStore(clk.Now)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti", time.Minute))
	revoked, _ := store.IsRevoked(ctx, "jti")
	require.True(t, revoked)

	clk.Advance(time.Minute)
	revoked, _ = store.IsRevoked(ctx, "jti")
	require.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "gone", 0))
	revoked, _ = store.IsRevoked(ctx, "gone")
	require.False(t, revoked)
}
