package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures exponential backoff retry.
// Delay for attempt n is InitialDelay * Multiplier^n capped at MaxDelay,
// plus random jitter of ±JitterFactor.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default: 3.
	MaxAttempts int

	// InitialDelay is the delay before the first retry. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay. Default: 10s.
	MaxDelay time.Duration

	// Multiplier grows the delay after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFactor randomizes each delay by ±factor (0..1). Default: 0.1.
	JitterFactor float64

	// OnRetry is an optional hook invoked before each retry wait with the
	// 1-based attempt number that just failed, its error, and the next delay.
	OnRetry func(attempt int, err error, nextDelay time.Duration)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// validate sets defaults for zero-valued fields.
func (c *RetryConfig) validate() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
}

// delay computes the backoff delay for a 0-based attempt index.
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.JitterFactor > 0 {
		d += d * c.JitterFactor * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Retry runs f up to MaxAttempts times with exponential backoff between
// attempts. Waits are cancellable through ctx. On exhaustion the last error
// is wrapped in ErrRetriesExhausted.
func Retry(ctx context.Context, f func(ctx context.Context) error, config RetryConfig) error {
	config.validate()

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
			}
			return ctx.Err()
		default:
		}

		err := f(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Last attempt: no wait, no hook
		if attempt == config.MaxAttempts-1 {
			break
		}

		next := config.delay(attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err, next)
		}

		select {
		case <-time.After(next):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
		}
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}
