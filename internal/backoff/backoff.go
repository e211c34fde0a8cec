// Package backoff implements the exponential retry delay policy used by the
// source pollers. The policy is pure: it computes delays, it never sleeps.
package backoff

import (
	"math"
	"time"
)

// Config holds the retry policy parameters.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
}

// DefaultConfig returns the policy used when configuration is absent.
func DefaultConfig() Config {
	return Config{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
	}
}

// Exponential hands out exponentially increasing delays up to a cap, then
// signals exhaustion. The only state is the attempt counter, so a Reset makes
// the policy reusable across poll cycles.
type Exponential struct {
	cfg     Config
	attempt int
}

// New returns a fresh policy for one retried unit of work.
func New(cfg Config) *Exponential {
	return &Exponential{cfg: cfg}
}

// NextDelay returns the delay to wait before the next attempt. The second
// return value is false once MaxAttempts delays have been handed out; callers
// must treat that as terminal failure for the current cycle.
func (e *Exponential) NextDelay() (time.Duration, bool) {
	if e.attempt >= e.cfg.MaxAttempts {
		return 0, false
	}

	delay := e.cfg.InitialDelay
	if e.attempt > 0 {
		scaled := float64(e.cfg.InitialDelay) * math.Pow(e.cfg.Multiplier, float64(e.attempt))
		delay = time.Duration(scaled)
		if delay > e.cfg.MaxDelay {
			delay = e.cfg.MaxDelay
		}
	}

	e.attempt++
	return delay, true
}

// Attempt returns how many delays have been handed out.
func (e *Exponential) Attempt() int { return e.attempt }

// Exhausted reports whether the policy has no delays left.
func (e *Exponential) Exhausted() bool { return e.attempt >= e.cfg.MaxAttempts }

// Reset rewinds the attempt counter for reuse in a new cycle.
func (e *Exponential) Reset() { e.attempt = 0 }
