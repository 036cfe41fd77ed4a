package helpers

import (
	"context"
	"time"
)

// Retry calls fun until it returns nil or attempts are exhausted,
// sleeping delay between failed attempts. Attempt numbers start at 1.
// Returns nil on success, otherwise the last error from fun
// or ctx.Err() if context is done while sleeping.
func Retry(ctx context.Context, attempts int, delay time.Duration, fun func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fun(i); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		if delay <= 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return err
}
