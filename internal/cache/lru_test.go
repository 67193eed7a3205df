package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_SetGet(t *testing.T) {
	c, err := NewLRU[string](4, time.Hour)
	require.NoError(t, err)

	c.Set("a", "apple")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "apple", v)
}

func TestLRU_MissReturnsFalse(t *testing.T) {
	c, err := NewLRU[string](4, time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_ExpiredEntryEvictedOnRead(t *testing.T) {
	c, err := NewLRU[int](4, time.Millisecond)
	require.NoError(t, err)

	c.Set("k", 42)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_RemoveAndLen(t *testing.T) {
	c, err := NewLRU[int](4, time.Hour)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 2, c.Len())

	c.Remove("a")
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
