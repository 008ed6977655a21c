package services

import (
	"context"
	"time"
)

const (
	readRetryAttempts = 3
	readRetryDelay    = 50 * time.Millisecond
)

// retryRead runs an idempotent read up to attempts times with linear backoff.
// Service errors other than StorageUnavailable are returned immediately.
// Writes must never go through this helper.
func retryRead(ctx context.Context, attempts int, delay time.Duration, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if kind := KindOf(err); kind != 0 && kind != KindStorageUnavailable {
			return err
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(time.Duration(attempt) * delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}
