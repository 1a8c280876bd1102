// Package resilience retries store writes that fail for transient reasons.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls how a failed store write is retried: exponential
// backoff with jitter, for errors IsTransient accepts.
type RetryConfig struct {
	// MaxAttempts counts the first write. 1 disables retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 50ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff and is never below InitialBackoff. Default: 2s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each retry; values below 1 mean
	// the default of 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%).
	JitterFraction float64

	// ShouldRetry optionally overrides IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry is called with the failed attempt number before each wait.
	OnRetry func(attempt int, err error)
}

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 50 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultMultiplier     = 2.0
	defaultJitterFraction = 0.25
)

// DefaultRetryConfig waits out local lock contention (a busy SQLite file, a
// Postgres row lock): few attempts, short waits.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{JitterFraction: defaultJitterFraction}.withDefaults()
}

// FromSettings builds a RetryConfig from the merge settings. Non-positive
// values fall back to the defaults.
func FromSettings(maxAttempts, initialBackoffMs int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Duration(initialBackoffMs) * time.Millisecond,
		JitterFraction: defaultJitterFraction,
	}.withDefaults()
}

// withDefaults fills unset fields. A zero JitterFraction stays zero.
func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	c.MaxBackoff = max(c.MaxBackoff, c.InitialBackoff)
	if c.Multiplier < 1 {
		c.Multiplier = defaultMultiplier
	}
	c.JitterFraction = min(max(c.JitterFraction, 0), 1)
	if c.ShouldRetry == nil {
		c.ShouldRetry = IsTransient
	}
	return c
}

// Do runs write until it succeeds or its failure is final: the error is not
// transient, attempts are used up, or ctx is done. The error from the last
// attempt is returned unwrapped so callers can still match it.
func Do(ctx context.Context, cfg RetryConfig, write func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()
	for attempt := 1; ; attempt++ {
		err := write(ctx)
		if err == nil || attempt >= cfg.MaxAttempts || ctx.Err() != nil || !cfg.ShouldRetry(err) {
			return err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if !sleep(ctx, cfg.backoff(attempt)) {
			return err
		}
	}
}

// backoff returns the wait before the given retry (1-based), capped at
// MaxBackoff before jitter is applied.
func (c RetryConfig) backoff(retry int) time.Duration {
	d := min(float64(c.InitialBackoff)*math.Pow(c.Multiplier, float64(retry-1)), float64(c.MaxBackoff))
	if c.JitterFraction > 0 {
		d += d * c.JitterFraction * (2*rand.Float64() - 1)
	}
	return time.Duration(max(d, 0))
}

// sleep waits for d and reports false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryLogger returns an OnRetry callback that logs each retry at warn level.
func RetryLogger(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying store write",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
