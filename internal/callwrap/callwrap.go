// Package callwrap applies a single retry/backoff/timeout policy to
// every external call the orchestrator makes, adapted from the
// teacher's internal/llm/providers.BaseProvider.WithRetry so map,
// LLM, and routing calls all degrade the same way under latency or
// transient failure (§9 design note).
package callwrap

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Policy configures one call wrapper instance.
type Policy struct {
	// PerCallTimeout bounds a single attempt; exceeding it counts as a
	// transient (retryable) failure.
	PerCallTimeout time.Duration
	// Backoff lists the delay before each retry, in order; its length
	// is also the max retry count (2 entries -> 2 retries, 3 attempts
	// total), matching §9's 200ms/800ms schedule.
	Backoff []time.Duration
}

// DefaultPolicy is the 2-retry, 200ms/800ms schedule from §9.
func DefaultPolicy(perCallTimeout time.Duration) Policy {
	return Policy{
		PerCallTimeout: perCallTimeout,
		Backoff:        []time.Duration{200 * time.Millisecond, 800 * time.Millisecond},
	}
}

// Call runs op under the policy: each attempt gets its own
// PerCallTimeout-bound sub-context; a transient error triggers the
// next backoff delay (bounded by ctx.Done()); a non-transient error
// returns immediately.
func Call(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	attempts := len(policy.Backoff) + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := policy.Backoff[attempt-1]
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if policy.PerCallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, policy.PerCallTimeout)
		}
		err := op(callCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}
	}

	return lastErr
}

// isTransient reports whether err is the kind of timeout, 5xx, or
// 429 failure §9 says is worth retrying, as opposed to a permanent
// rejection (bad request, auth failure, unsupported operation).
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "429", "too many requests", "503", "502", "500", "rate limit", "connection refused", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
