package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise the L1-only path (l2 == nil), since a real Redis
// instance isn't available for unit tests. L2 fall-through/backfill has
// no unit test: CachedProvider's tests in internal/retrieval also build
// their caches with a nil L2.

func TestTiered_SetThenGetL1Hit(t *testing.T) {
	l1, err := NewLRU[string](8, time.Hour)
	require.NoError(t, err)
	tc := NewTiered[string](l1, nil, "test", time.Hour)

	ctx := context.Background()
	require.NoError(t, tc.Set(ctx, "k1", "v1"))

	v, ok := tc.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestTiered_MissWithoutL2(t *testing.T) {
	l1, err := NewLRU[string](8, time.Hour)
	require.NoError(t, err)
	tc := NewTiered[string](l1, nil, "test", time.Hour)

	_, ok := tc.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestTiered_Invalidate(t *testing.T) {
	l1, err := NewLRU[int](8, time.Hour)
	require.NoError(t, err)
	tc := NewTiered[int](l1, nil, "test", time.Hour)

	ctx := context.Background()
	require.NoError(t, tc.Set(ctx, "k", 7))
	require.NoError(t, tc.Invalidate(ctx, "k"))

	_, ok := tc.Get(ctx, "k")
	assert.False(t, ok)
}
