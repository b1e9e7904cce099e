package retry

import (
	"context"
	"time"
)

// Policy drives Do. Zero values mean: single attempt, every error retryable,
// no waiting between attempts.
type Policy struct {
	// MaxAttempts is the total number of calls, first try included.
	MaxAttempts int

	// Backoff returns the wait before retry k (1-based). Nil means no wait.
	Backoff func(attempt int) time.Duration

	// IsRetryable decides whether an error is worth another attempt. Nil
	// means all errors are retryable.
	IsRetryable func(err error) bool

	// OnRetry is invoked before each wait, with the 1-based retry number and
	// the error that triggered it.
	OnRetry func(attempt int, err error)
}

// ExponentialBackoff returns a deterministic 2^(k-1) schedule: base before
// the first retry, 2*base before the second, capped at 30s. No jitter, so
// retry timing stays reproducible.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		if attempt > 30 {
			attempt = 30
		}
		backoff := base * time.Duration(1<<uint(attempt-1))
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		return backoff
	}
}

// Do runs fn up to MaxAttempts times, waiting per the policy between
// attempts. It returns the last error unwrapped so callers can still inspect
// its classification. A non-retryable error or a cancelled context stops the
// loop immediately.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if policy.IsRetryable != nil && !policy.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			return lastErr
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr)
		}

		var wait time.Duration
		if policy.Backoff != nil {
			wait = policy.Backoff(attempt)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return lastErr
}
