package unsplash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"icandy/internal/logging"
)

// withRetry runs fn under the two-tier policy shared by Search and Download.
// Credential failures return at once. Rate-limited attempts use linear
// backoff and their own small ceiling. Everything else is retried with a
// fixed delay until MaxRetries total attempts have been made.
func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	maxAttempts := c.cfg.MaxRetries
	attempts := 0
	rateLimited := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrInterrupted, err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrInterrupted, err)
		}

		var delay time.Duration
		switch {
		case errors.Is(err, ErrCredentials):
			return fmt.Errorf("%s: %w", op, err)
		case errors.Is(err, ErrRateLimited):
			rateLimited++
			if rateLimited >= c.cfg.RateLimitRetries {
				logging.ErrorWithContext(c.logger, "rate limit persisted, giving up", "rate_limit_exhausted",
					logging.String("op", op),
					logging.Int("attempts", rateLimited),
					logging.String(logging.FieldErrorHint, "wait for the hourly quota to reset before rebuilding"))
				return fmt.Errorf("%s: rate limited after %d attempts, failing fast: %w", op, rateLimited, err)
			}
			delay = c.cfg.RateLimitDelay * time.Duration(rateLimited)
			logging.WarnWithContext(c.logger, "rate limit hit, backing off", "rate_limit_backoff",
				logging.String("op", op),
				logging.Int("attempt", rateLimited),
				logging.Duration("delay", delay),
				logging.String(logging.FieldErrorHint, "provider quota exhausted"),
				logging.String(logging.FieldImpact, "request retried after backoff"))
		default:
			attempts++
			if attempts >= maxAttempts {
				return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
			}
			delay = c.cfg.RetryDelay
			c.logger.Debug("transient failure, retrying",
				logging.String("op", op),
				logging.Int("attempt", attempts),
				logging.Error(err))
		}

		if err := c.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrInterrupted, err)
		}
	}
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if err := c.sleeper(ctx, delay); err != nil {
		return err
	}
	return ctx.Err()
}
