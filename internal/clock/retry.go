// Package clock waits on timers that respect context cancellation.
package clock

import (
	"context"
	"fmt"
	"time"
)

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn up to attempts times, sleeping delay between failures.
// The last error of fn is returned when every attempt fails.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	attempts = max(attempts, 1)

	var err error
	for i := range attempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if sleepErr := Sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w (last error: %v)", sleepErr, err)
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
