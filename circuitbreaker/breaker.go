package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents the state of a circuit breaker.
type State int

const (
	// StateClosed indicates the circuit is closed and calls are allowed.
	StateClosed State = iota

	// StateOpen indicates the circuit is open and calls are rejected.
	StateOpen

	// StateHalfOpen indicates the circuit is probing whether the target
	// has recovered, admitting a limited number of trial calls.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit
// breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// halfOpenMaxCalls is the number of trial successes admitted in half-open
// state before the circuit closes.
const halfOpenMaxCalls = 3

// CircuitBreaker gates calls to one logical target. It opens after a run of
// consecutive failures, rejects calls for a cooldown period, then admits a
// limited number of trial calls before closing again.
type CircuitBreaker struct {
	name   string
	opts   *Options
	logger *zap.Logger

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	nextAttemptTime time.Time
}

// New creates a circuit breaker for the named target.
func New(name string, opts *Options, logger *zap.Logger) *CircuitBreaker {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.Validate()

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CircuitBreaker{
		name:   name,
		opts:   opts,
		logger: logger,
		state:  StateClosed,
	}
}

// CanExecute reports whether a call to the target may proceed. This is a
// side-effecting query: when the open cooldown has expired, the check itself
// transitions the circuit to half-open and admits the caller. There is no
// background timer; recovery probing happens on the next query after the
// cooldown, driven entirely by request traffic.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var allowed bool

	switch cb.state {
	case StateClosed:
		allowed = true

	case StateOpen:
		if !time.Now().Before(cb.nextAttemptTime) {
			cb.transitionTo(StateHalfOpen)
			cb.successCount = 0
			allowed = true
		}

	case StateHalfOpen:
		allowed = cb.successCount < halfOpenMaxCalls
	}

	RecordRequest(cb.name, allowed)

	return allowed
}

// RecordSuccess records a successful call. In half-open state, reaching
// halfOpenMaxCalls successes closes the circuit. Never fails.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successCount++
	cb.failureCount = 0

	RecordSuccess(cb.name)

	if cb.state == StateHalfOpen && cb.successCount >= halfOpenMaxCalls {
		cb.transitionTo(StateClosed)
	}
}

// RecordFailure records a failed call. In closed state the circuit opens
// once the consecutive failure count reaches the threshold; in half-open
// state any failure reopens the circuit immediately. Never fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.failureCount++
	cb.lastFailureTime = now

	RecordFailure(cb.name)

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.opts.Threshold {
			cb.open(now)
		}

	case StateHalfOpen:
		cb.open(now)
	}
}

// open transitions to the open state with a fresh cooldown deadline.
// The caller must hold cb.mu.
func (cb *CircuitBreaker) open(now time.Time) {
	cb.nextAttemptTime = now.Add(cb.opts.Timeout)
	cb.transitionTo(StateOpen)
}

// transitionTo moves the breaker to a new state. The caller must hold cb.mu.
func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := cb.state
	cb.state = newState

	RecordStateChange(cb.name, oldState, newState)

	cb.logger.Info("circuit breaker state changed",
		zap.String("name", cb.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)
}

// Execute runs fn under circuit breaker protection: it rejects with
// ErrCircuitOpen when the circuit is open, otherwise runs fn and records
// the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.CanExecute() {
		return ErrCircuitOpen
	}

	err := fn()

	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}

	return err
}

// Reset force-transitions the breaker to closed with all counters and
// timers zeroed. This is an administrative override, not part of normal
// operation.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.lastFailureTime = time.Time{}
	cb.nextAttemptTime = time.Time{}

	RecordStateChange(cb.name, oldState, StateClosed)

	cb.logger.Info("circuit breaker reset",
		zap.String("name", cb.name),
	)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Stats returns a read-only snapshot of the breaker's counters and timers.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		SuccessCount:    cb.successCount,
		LastFailureTime: cb.lastFailureTime,
		NextAttemptTime: cb.nextAttemptTime,
	}
}

// Stats holds a snapshot of circuit breaker state.
type Stats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	LastFailureTime time.Time
	NextAttemptTime time.Time
}
