package store

import (
	"context"
	"errors"
	"time"
)

// RetryStore retries failed appends a fixed number of times. A write that
// failed after reaching the backend may still have landed, so retried
// appends give at-least-once semantics.
type RetryStore struct {
	RecordStore
	attempts int
	wait     time.Duration
}

// WithRetry wraps rs so Append is attempted up to attempts times.
func WithRetry(rs RecordStore, attempts int, wait time.Duration) *RetryStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryStore{RecordStore: rs, attempts: attempts, wait: wait}
}

func (r *RetryStore) Append(ctx context.Context, table string, rows ...Row) error {
	var lastErr error
	for attempt := range r.attempts {
		err := r.RecordStore.Append(ctx, table, rows...)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == r.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.wait):
		}
	}
	return lastErr
}
