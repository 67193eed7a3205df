package callwrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCall_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Call(context.Background(), DefaultPolicy(time.Second), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_RetriesOnTransientThenSucceeds(t *testing.T) {
	calls := 0
	policy := Policy{PerCallTimeout: time.Second, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}
	err := Call(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("request failed with 503 Service Unavailable")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCall_StopsImmediatelyOnNonTransient(t *testing.T) {
	calls := 0
	policy := Policy{PerCallTimeout: time.Second, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}
	err := Call(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return errors.New("operation not supported by this provider")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	calls := 0
	policy := Policy{PerCallTimeout: time.Second, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}
	err := Call(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return errors.New("timeout waiting for upstream")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
