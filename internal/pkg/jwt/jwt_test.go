package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var alice = Identity{UserID: "64b7f0c2a1b2c3d4e5f60718", Email: "alice@example.com"}

func newManager(t *testing.T, cfg Config, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(cfg, now)
	require.NoError(t, err)
	return m
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := newManager(t, DefaultConfig("access-secret", "refresh-secret"), nil)

	pair, err := m.IssuePair(alice)
	require.NoError(t, err)
	require.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, alice, claims.Identity())
	require.Equal(t, TypeAccess, claims.Type)
	require.NotEmpty(t, claims.ID)

	claims, err = m.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, TypeRefresh, claims.Type)
}

func TestTypeConfusionIsRejected(t *testing.T) {
	m := newManager(t, DefaultConfig("access-secret", "refresh-secret"), nil)
	pair, err := m.IssuePair(alice)
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.VerifyAccessToken(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTypeClaimCheckedEvenWithSharedSecret(t *testing.T) {
	// A misconfigured deployment reusing one secret must still not
	// accept a refresh token as an access token.
	m := newManager(t, DefaultConfig("same-secret", "same-secret"), nil)
	pair, err := m.IssuePair(alice)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.VerifyRefreshToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := newManager(t, DefaultConfig("a", "r"), clock)

	token, err := m.IssueAccessToken(alice)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSecretAndGarbageRejected(t *testing.T) {
	m := newManager(t, DefaultConfig("a", "r"), nil)
	other := newManager(t, DefaultConfig("other-a", "other-r"), nil)

	token, err := other.IssueAccessToken(alice)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyAccessToken("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.VerifyAccessToken("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongAudienceRejected(t *testing.T) {
	cfg := DefaultConfig("a", "r")
	m := newManager(t, cfg, nil)
	cfg.Audience = "someone-else"
	other := newManager(t, cfg, nil)

	token, err := other.IssueAccessToken(alice)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecrets(t *testing.T) {
	_, err := NewManager(DefaultConfig("", "r"), nil)
	require.Error(t, err)
}
