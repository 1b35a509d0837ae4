package util

import (
	"context"
	"errors"
	"time"

	"stocktracker/pkg/stocktracker"
)

// Retry calls fn up to maxAttempts times with exponential backoff starting
// at baseDelay, returning nil on the first success or the last error when
// all attempts fail. Only transient failures are retried: a ServerError is a
// decoded rejection from the backend, and repeating the same request cannot
// change its answer, so it is returned immediately. Context cancellation is
// respected between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var rejection *stocktracker.ServerError
		if errors.As(err, &rejection) {
			return err
		}

		// Don't sleep after the last failed attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
