package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New(2, 10, 25)
	require.Equal(t, 3, p.Pages)
	require.True(t, p.HasNext)
	require.True(t, p.HasPrev)

	p = New(0, 0, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultLimit, p.Limit)
	require.Equal(t, 1, p.Pages)
	require.False(t, p.HasNext)
}

func TestRequestNormalizeAndSkip(t *testing.T) {
	r := Request{Page: 3, Limit: 500}.Normalize()
	require.Equal(t, MaxLimit, r.Limit)
	require.Equal(t, int64(200), r.Skip())
}

func TestWindow(t *testing.T) {
	start, end := Window(Request{Page: 2, Limit: 2}, 5)
	require.Equal(t, 2, start)
	require.Equal(t, 4, end)

	start, end = Window(Request{Page: 9, Limit: 2}, 5)
	require.Equal(t, 5, start)
	require.Equal(t, 5, end)
}

func TestOversizedPageStaysInRange(t *testing.T) {
	r := Request{Page: 1<<62 + 1, Limit: 2}

	start, end := Window(r, 3)
	require.Equal(t, 3, start)
	require.Equal(t, 3, end)

	require.Positive(t, r.Skip())
	require.LessOrEqual(t, r.Normalize().Page, math.MaxInt/2)

	items := []int{1, 2, 3}
	require.Empty(t, items[start:end])

	p := New(r.Page, r.Limit, 3)
	require.False(t, p.HasNext)
	require.True(t, p.HasPrev)
}
