package fs

import (
	"context"
	"fmt"
	"time"
)

// retry runs fn with exponential backoff while it fails with transient errors.
// fn runs at least once even when ctx is already cancelled.

var retryBase = 100 * time.Millisecond

const maxRetries = 5

func retry(ctx context.Context, opName string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isTransient(err) {
			return fmt.Errorf("%s failed permanently: %w", opName, err)
		}

		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s interrupted: %w", opName, lastErr)
		case <-time.After(retryBase * (1 << (attempt - 1))):
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", opName, maxRetries, lastErr)
}
