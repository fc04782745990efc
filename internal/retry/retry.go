// Package retry provides exponential-backoff retry with an explicit policy
// value, used for LLM batch calls.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy configures retry behavior. Callers pass a Policy in rather than
// relying on hard-coded control flow so attempt counts and delays stay on
// the tuning surface.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt; it doubles each
	// subsequent attempt.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
	// Jitter adds up to one BaseDelay of random slack per wait.
	Jitter bool
}

// DefaultPolicy returns the retry policy used for LLM batch calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// Do runs op until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The last error is returned wrapped with the attempt
// count.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

// delay computes the backoff before the attempt following attempt n.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(1<<attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && p.BaseDelay > 0 {
		d += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	}
	return d
}
