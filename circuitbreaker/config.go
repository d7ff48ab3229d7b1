// Package circuitbreaker implements the circuit breaker pattern for gating
// calls to repeatedly failing targets.
package circuitbreaker

import (
	"time"
)

// Options holds configuration for a circuit breaker.
type Options struct {
	// Threshold is the number of consecutive failures before the circuit
	// opens.
	Threshold int

	// Timeout is how long the circuit stays open before a trial call is
	// admitted.
	Timeout time.Duration

	// ResetTimeout is accepted for configuration compatibility. No state
	// transition currently consumes it; do not rely on it.
	ResetTimeout time.Duration
}

// DefaultOptions returns Options with default values.
func DefaultOptions() *Options {
	return &Options{
		Threshold:    5,
		Timeout:      30 * time.Second,
		ResetTimeout: 60 * time.Second,
	}
}

// Validate normalizes out-of-range values to their defaults.
func (o *Options) Validate() error {
	if o.Threshold < 1 {
		o.Threshold = 5
	}
	if o.Timeout < time.Millisecond {
		o.Timeout = 30 * time.Second
	}
	if o.ResetTimeout <= 0 {
		o.ResetTimeout = o.Timeout
	}
	return nil
}

// WithThreshold sets the consecutive failure threshold.
func (o *Options) WithThreshold(n int) *Options {
	o.Threshold = n
	return o
}

// WithTimeout sets the open cooldown duration.
func (o *Options) WithTimeout(d time.Duration) *Options {
	o.Timeout = d
	return o
}

// WithResetTimeout sets the reset timeout.
func (o *Options) WithResetTimeout(d time.Duration) *Options {
	o.ResetTimeout = d
	return o
}
