package unsplash

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"icandy/internal/logging"
)

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rateWindow tracks successful searches against the provider's hourly quota.
// It is owned by a single Client and is not safe for concurrent use.
type rateWindow struct {
	limit  int
	length time.Duration
	start  time.Time
	count  int
}

// acquire blocks until another request fits inside the window. The window
// starts lazily on first use and restarts once its length has elapsed.
func (w *rateWindow) acquire(ctx context.Context, now func() time.Time, sleep Sleeper, logger *slog.Logger) error {
	current := now()
	if w.start.IsZero() {
		w.start = current
	}
	elapsed := current.Sub(w.start)
	if elapsed >= w.length {
		w.start = current
		w.count = 0
		return nil
	}
	if w.count < w.limit {
		return nil
	}

	remaining := w.length - elapsed
	logger.Warn(fmt.Sprintf("rate limit of %d requests reached, waiting %s for the window to reset", w.limit, remaining.Round(time.Second)),
		logging.String(logging.FieldEventType, "rate_window_wait"),
		logging.Int("requests", w.count),
		logging.Duration("wait", remaining),
		logging.String(logging.FieldErrorHint, "lower build.assets_per_key or split the key list across hours"),
		logging.String(logging.FieldImpact, "build pauses until the quota window resets"))
	if err := sleep(ctx, remaining); err != nil {
		return fmt.Errorf("rate window wait: %w: %w", ErrInterrupted, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate window wait: %w: %w", ErrInterrupted, err)
	}
	w.start = now()
	w.count = 0
	return nil
}

func (w *rateWindow) record() {
	w.count++
}

func (w *rateWindow) reset(now time.Time) {
	w.start = now
	w.count = 0
}
