// Package retry wraps an operation with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do invokes op up to maxAttempts times, waiting baseDelay * 2^k before the
// retry that follows the k-th failure (k zero-based). Every error is treated
// as transient; after the final attempt the last error is returned as-is.
// A cancelled context aborts the backoff wait.
//
// Callers must not wrap non-idempotent operations: a send that failed on the
// wire may still have been delivered and would be repeated.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), maxAttempts int, baseDelay time.Duration) (T, error) {
	var zero T
	if maxAttempts < 1 {
		return zero, fmt.Errorf("retry: maxAttempts must be >= 1, got %d", maxAttempts)
	}
	if baseDelay <= 0 {
		return zero, fmt.Errorf("retry: baseDelay must be > 0, got %v", baseDelay)
	}

	var lastErr error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry abandoned after %d attempts (%v): %w", attempt+1, lastErr, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return zero, lastErr
}
