package services

import (
	"context"
	"time"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// retryPolicy retries retryable failures with a linearly growing delay.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func newRetryPolicy(attempts int, delay time.Duration) retryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	return retryPolicy{attempts: attempts, delay: delay}
}

// do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. onRetry, if set, is called before each wait.
// The last error is returned unchanged.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !domain.IsRetryable(err) || attempt >= p.attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.delay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
