package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikage-io/kagami/pkg/utils/retry"
)

func TestCapped(t *testing.T) {
	t.Run("waits roughly the configured intervals", func(t *testing.T) {
		ctx := context.Background()
		backoff := retry.Capped(10*time.Millisecond, 2, 40*time.Millisecond)

		// expected progression: 10ms, 20ms, 40ms, 40ms (capped)
		for i, want := range []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			40 * time.Millisecond,
			40 * time.Millisecond,
		} {
			start := time.Now()
			if err := backoff(ctx); err != nil {
				t.Fatalf("#%d: unexpected error: %s", i, err)
			}
			elapsed := time.Since(start)
			if elapsed < want {
				t.Errorf("#%d: returned after %s, want at least %s", i, elapsed, want)
			}
			// generous upper bound; this only catches gross mistakes
			if want*10 < elapsed {
				t.Errorf("#%d: returned after %s, want about %s", i, elapsed, want)
			}
		}
	})

	t.Run("each value starts over from initial", func(t *testing.T) {
		ctx := context.Background()

		first := retry.Capped(10*time.Millisecond, 2, time.Second)
		if err := first(ctx); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if err := first(ctx); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		fresh := retry.Capped(10*time.Millisecond, 2, time.Second)
		start := time.Now()
		if err := fresh(ctx); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if 100*time.Millisecond < time.Since(start) {
			t.Error("a fresh backoff should wait the initial interval, not a grown one")
		}
	})

	t.Run("initial above max is clipped", func(t *testing.T) {
		ctx := context.Background()
		backoff := retry.Capped(time.Hour, 2, 10*time.Millisecond)

		start := time.Now()
		if err := backoff(ctx); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if time.Second < time.Since(start) {
			t.Error("interval should be clipped to max")
		}
	})

	t.Run("canceled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		backoff := retry.Capped(time.Hour, 2, time.Hour)

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		if err := backoff(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("error should be context.Canceled: %v", err)
		}
	})
}

func TestStaticBackoff(t *testing.T) {
	ctx := context.Background()
	backoff := retry.StaticBackoff(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		start := time.Now()
		if err := backoff(ctx); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		elapsed := time.Since(start)
		if elapsed < 10*time.Millisecond || 100*time.Millisecond < elapsed {
			t.Errorf("#%d: interval should stay static: %s", i, elapsed)
		}
	}
}
