package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsUpToBurstThenBlocks(t *testing.T) {
	l := New(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "client-a"), "request %d within burst should pass", i)
	}
	assert.False(t, l.Allow(ctx, "client-a"), "request beyond burst should be blocked")
}

func TestLimiter_TracksClientsIndependently(t *testing.T) {
	l := New(1, time.Minute)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "client-a"))
	assert.False(t, l.Allow(ctx, "client-a"))
	assert.True(t, l.Allow(ctx, "client-b"), "a different client must have its own bucket")
}
