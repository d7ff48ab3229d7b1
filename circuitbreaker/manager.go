package circuitbreaker

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager owns one circuit breaker per logical service name. Breakers are
// created lazily on first request and never destroyed except by explicit
// administrative reset.
type Manager struct {
	breakers sync.Map
	defaults *Options
	logger   *zap.Logger
}

// NewManager creates a circuit breaker manager. The given options are used
// for breakers requested without explicit options.
func NewManager(defaults *Options, logger *zap.Logger) *Manager {
	if defaults == nil {
		defaults = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		defaults: defaults,
		logger:   logger,
	}
}

// GetBreaker returns the breaker for a service name, creating it with the
// given options on first request. Options are honored only at creation:
// later calls for the same name return the existing breaker and silently
// ignore differing options. Nil options use the manager defaults.
func (m *Manager) GetBreaker(name string, opts *Options) *CircuitBreaker {
	if value, ok := m.breakers.Load(name); ok {
		return value.(*CircuitBreaker)
	}

	if opts == nil {
		opts = m.defaults
	}
	cb := New(name, opts, m.logger)

	// LoadOrStore keeps the first breaker when two callers race.
	actual, loaded := m.breakers.LoadOrStore(name, cb)
	if loaded {
		return actual.(*CircuitBreaker)
	}

	m.logger.Debug("created circuit breaker",
		zap.String("name", name),
		zap.Int("threshold", opts.Threshold),
		zap.Duration("timeout", opts.Timeout),
	)

	return cb
}

// Stats returns a name-keyed snapshot of all breakers.
func (m *Manager) Stats() map[string]Stats {
	stats := make(map[string]Stats)
	m.breakers.Range(func(key, value interface{}) bool {
		stats[key.(string)] = value.(*CircuitBreaker).Stats()
		return true
	})
	return stats
}

// ResetBreaker force-closes the breaker for a service name.
func (m *Manager) ResetBreaker(name string) error {
	value, ok := m.breakers.Load(name)
	if !ok {
		return fmt.Errorf("circuit breaker %q not found", name)
	}
	value.(*CircuitBreaker).Reset()
	return nil
}

// ResetAll force-closes every breaker.
func (m *Manager) ResetAll() {
	m.breakers.Range(func(key, value interface{}) bool {
		value.(*CircuitBreaker).Reset()
		return true
	})
	m.logger.Info("reset all circuit breakers")
}

// Names returns the names of all registered breakers.
func (m *Manager) Names() []string {
	var names []string
	m.breakers.Range(func(key, value interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// Count returns the number of registered breakers.
func (m *Manager) Count() int {
	count := 0
	m.breakers.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}
