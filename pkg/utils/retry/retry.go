package retry

import (
	"context"
	"time"
)

// Backoff is a (blocking) function returning when to retry.
//
// It waits for its interval, or returns ctx.Err() when the context
// is canceled while waiting.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff waiting for a fixed interval.
func StaticBackoff(interval time.Duration) Backoff {
	return Capped(interval, 1, interval)
}

// Capped returns a Backoff with exponential growth clipped at a ceiling.
//
// For the N-th call (N = 0, 1, 2, ...), it waits
//
//	min(initial * r^N, max)
//
// There is no jitter. The interval progression is stateful per Backoff value;
// build a fresh one to start over from initial.
func Capped(initial time.Duration, r float64, max time.Duration) Backoff {
	interval := initial
	if max < interval {
		interval = max
	}
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer func() {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}()

		next := time.Duration(float64(interval) * r)
		if max < next || next < interval { // overflow also clips to max
			next = max
		}
		interval = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}
