package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("pet")
	require.True(t, stderrors.Is(err, ErrNotFound))
	require.False(t, stderrors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("load pet: %w", err)
	require.True(t, Is(wrapped, ErrNotFound))
}

func TestDefaultStatuses(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrMissingToken, http.StatusUnauthorized},
		{ErrInvalidRefreshToken, http.StatusUnauthorized},
		{ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrDuplicateEmail, http.StatusConflict},
		{ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, tc.err.Status, tc.err.Code())
	}
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	e := ErrValidation.WithDetails("name is required")
	require.Len(t, e.Details, 1)
	require.Empty(t, ErrValidation.Details)
}

func TestAsUnwrapsCause(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := fmt.Errorf("ping: %w", Unavailable(cause))

	appErr, ok := As(err)
	require.True(t, ok)
	require.Equal(t, KindServiceUnavailable, appErr.Kind)
	require.ErrorIs(t, err, cause)
}
