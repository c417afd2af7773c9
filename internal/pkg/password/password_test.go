package password

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Abc123")
	require.NoError(t, err)
	require.NotEqual(t, "Abc123", hash)

	require.True(t, h.Compare(hash, "Abc123"))
	require.False(t, h.Compare(hash, "abc123"))
	require.False(t, h.Compare("not-a-hash", "Abc123"))
}

func TestNewHasherClampsCost(t *testing.T) {
	require.Equal(t, DefaultCost, NewHasher(0).cost)
	require.Equal(t, DefaultCost, NewHasher(99).cost)
	require.Equal(t, 10, NewHasher(10).cost)
}
