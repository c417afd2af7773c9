package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsUnavailable(t *testing.T) {
	require.False(t, IsUnavailable(nil))
	require.False(t, IsUnavailable(mongo.ErrNoDocuments))
	require.False(t, IsUnavailable(errors.New("boom")))

	require.True(t, IsUnavailable(fmt.Errorf("find: %w", mongo.ErrClientDisconnected)))
	require.True(t, IsUnavailable(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	require.True(t, IsUnavailable(context.DeadlineExceeded))
}

func TestConnectRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + server.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	v, err := server.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestConnectRedisBadURL(t *testing.T) {
	_, err := ConnectRedis("not a url")
	require.Error(t, err)
}
