// Package policy implements the pure policy objects composed in front of
// the transport: retry with backoff+jitter, a token-bucket rate limiter,
// and a circuit breaker.
package policy

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig parameterizes Retry.NextDelay.
type RetryConfig struct {
	Initial        time.Duration
	Multiplier     float64
	Max            time.Duration
	MaxRetries     int
	JitterFraction float64
}

// DefaultRetryConfig matches common provider guidance: quick first retry,
// capped exponential backoff, small jitter to avoid thundering herds across
// concurrent callers.
var DefaultRetryConfig = RetryConfig{
	Initial:        100 * time.Millisecond,
	Multiplier:     2.0,
	Max:            30 * time.Second,
	MaxRetries:     5,
	JitterFraction: 0.1,
}

// Retry computes the per-attempt backoff delay per spec §4.7:
// next_delay(attempt) = min(initial * multiplier^(attempt-1), max) * (1 ± jitter_fraction * u).
type Retry struct {
	cfg RetryConfig
	// rng is swappable for deterministic tests; nil uses math/rand's
	// package-level source (jitter=0 configs never read it).
	rng *rand.Rand
}

// NewRetry builds a Retry policy from cfg.
func NewRetry(cfg RetryConfig) *Retry {
	return &Retry{cfg: cfg}
}

// NewRetryWithSource builds a Retry policy with a deterministic random
// source, for reproducible jitter in tests.
func NewRetryWithSource(cfg RetryConfig, src rand.Source) *Retry {
	return &Retry{cfg: cfg, rng: rand.New(src)}
}

// NextDelay returns the delay before the given attempt (1-indexed), or
// false once attempt exceeds MaxRetries.
func (r *Retry) NextDelay(attempt int) (time.Duration, bool) {
	if attempt > r.cfg.MaxRetries {
		return 0, false
	}
	base := float64(r.cfg.Initial) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	capped := math.Min(base, float64(r.cfg.Max))

	if r.cfg.JitterFraction == 0 {
		return time.Duration(capped), true
	}
	u := r.random()
	jitter := 1.0 + r.cfg.JitterFraction*(2*u-1)
	return time.Duration(capped * jitter), true
}

// MaxRetries exposes the configured retry ceiling.
func (r *Retry) MaxRetries() int { return r.cfg.MaxRetries }

func (r *Retry) random() float64 {
	if r.rng != nil {
		return r.rng.Float64()
	}
	return rand.Float64()
}
