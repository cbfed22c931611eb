package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"

	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

// RetryConfig holds configuration for retry behavior around the vector
// index.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int
	// InitialDelay is the initial delay before the first retry (default: 100ms)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 5 seconds)
	MaxDelay time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	return c
}

// calculateDelay returns the backoff delay for a retry attempt, capped at
// MaxDelay.
func (c RetryConfig) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	return time.Duration(delay)
}

// withRetry runs op with exponential backoff. Non-retryable errors fail
// immediately.
func withRetry(ctx context.Context, cfg RetryConfig, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(cfg.calculateDelay(attempt)):
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// isRetryableError reports whether a vector index failure is worth another
// attempt. Caller cancellation, an open breaker, and input validation
// failures are not.
func isRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	case errors.Is(err, vectorindex.ErrDimensionMatch),
		errors.Is(err, vectorindex.ErrEmptyID),
		errors.Is(err, vectorindex.ErrMissingVector):
		return false
	}
	return true
}
