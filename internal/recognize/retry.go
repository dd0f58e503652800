package recognize

import (
	"context"
	"fmt"
	"time"
)

// Default retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// backoff retries an operation with exponentially growing delays.
type backoff struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// do runs fn until it succeeds, fails with an error retryable rejects, or
// the retries are exhausted. Waiting is interrupted by ctx.
func (b backoff) do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	delay := max(b.baseDelay, time.Millisecond)
	ceiling := max(b.maxDelay, delay)

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= b.maxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", b.maxRetries, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, ceiling)
	}
}
