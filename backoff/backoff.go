// Package backoff provides pluggable retry delay strategies.
// All strategies are safe for concurrent use (they are stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// MaxDelay is the hard cap applied by Policy regardless of attempt number.
const MaxDelay = 5 * time.Minute

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Policy (proportional jitter, hard cap)
// ──────────────────────────────────────────────────

// Policy is the delay curve used by the retry engine:
// Initial * Multiplier^(attempt-1), stretched by up to 10% proportional
// jitter, never exceeding MaxDelay. Proportional (rather than full)
// jitter keeps the curve monotonic so attempt budgets stay predictable
// inside a wall-clock-budgeted run.
type Policy struct {
	Initial    time.Duration
	Multiplier float64
}

// NewPolicy creates a Policy strategy.
func NewPolicy(initial time.Duration, multiplier float64) *Policy {
	return &Policy{Initial: initial, Multiplier: multiplier}
}

// Delay returns min(Initial * Multiplier^(attempt-1) * (1 + jitter), MaxDelay)
// where jitter is uniform in [0, 0.1).
func (p *Policy) Delay(attempt int) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}

	base := float64(p.Initial) * math.Pow(mult, float64(attempt-1))
	base *= 1 + rand.Float64()*0.1 //nolint:gosec // jitter intentionally uses non-crypto rand

	d := time.Duration(base)
	if d > MaxDelay || d < 0 { // negative on float overflow
		return MaxDelay
	}
	return d
}
