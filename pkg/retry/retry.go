// Package retry provides a reusable fixed-delay retry policy shared by every
// per-item fallback path in the distribution engine.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// ErrAttemptsExhausted wraps the last error after all attempts failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy is a fixed-attempt, fixed-delay retry schedule. Delays are plain
// timed pauses with no backoff growth; ledger read-rate limits are handled by
// separate pacing delays, not here.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy returns the standard per-item fallback policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
	}
}

// Do runs op up to MaxAttempts times, pausing Delay between attempts. It
// returns nil on the first success. Context cancellation aborts immediately
// with the context error, without consuming further attempts.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if attempt < attempts {
			waitErr := Wait(ctx, p.Delay)
			if waitErr != nil {
				return waitErr
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}

// Wait pauses for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
