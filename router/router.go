// Package router composes the resilience layer: it resolves instances from
// the service catalog, gates calls through per-service circuit breakers, and
// selects instances with the configured balancing strategy.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avyr/routeguard/balancer"
	"github.com/avyr/routeguard/circuitbreaker"
	"github.com/avyr/routeguard/config"
	"github.com/avyr/routeguard/discovery"
)

// Router picks backend instances for outbound calls and feeds their outcomes
// back into health tracking and circuit breaking. One balancer is kept per
// logical service, created lazily from the configured policy.
type Router struct {
	catalog  discovery.Catalog
	breakers *circuitbreaker.Manager
	logger   *zap.Logger

	mu        sync.RWMutex
	cfg       *config.Config
	balancers map[string]balancer.Balancer
}

// Stats aggregates balancer and breaker snapshots for export.
type Stats struct {
	Balancers map[string]balancer.Stats
	Breakers  map[string]circuitbreaker.Stats
}

// New creates a router over the given catalog with the given routing policy.
// A nil config uses defaults for every service.
func New(catalog discovery.Catalog, cfg *config.Config, logger *zap.Logger) *Router {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Router{
		catalog:   catalog,
		breakers:  circuitbreaker.NewManager(cfg.Defaults.CircuitBreaker.Options(), logger),
		logger:    logger,
		cfg:       cfg,
		balancers: make(map[string]balancer.Balancer),
	}
}

// UpdateConfig replaces the routing policy. Balancers whose strategy changed
// are rebuilt on next use; their accumulated statistics are discarded.
// Existing circuit breakers keep their original options.
func (r *Router) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = cfg
	for name, b := range r.balancers {
		if b.Algorithm() != cfg.PolicyFor(name).Algorithm() {
			delete(r.balancers, name)
		}
	}

	r.logger.Info("routing policy updated",
		zap.Int("services", len(cfg.Services)),
	)
}

// Pick resolves the candidate instances for a logical service, checks the
// service's circuit breaker, and selects one instance. When the circuit is
// open the call must not be attempted and ErrCircuitOpen is returned.
func (r *Router) Pick(ctx context.Context, service string) (discovery.ServiceInfo, error) {
	candidates, err := r.catalog.Services(ctx, service)
	if err != nil {
		return discovery.ServiceInfo{}, fmt.Errorf("resolving %q: %w", service, err)
	}

	if !r.breaker(service).CanExecute() {
		return discovery.ServiceInfo{}, fmt.Errorf("service %q: %w", service, circuitbreaker.ErrCircuitOpen)
	}

	chosen, err := r.balancerFor(service).Select(candidates)
	if err != nil {
		return discovery.ServiceInfo{}, fmt.Errorf("selecting instance for %q: %w", service, err)
	}

	return chosen, nil
}

// Report records the outcome of a completed attempt against an instance
// picked earlier: request statistics, the breaker transition, and the
// connection release for the least connections strategy. Callers must report
// every attempt exactly once, including attempts against degraded picks.
func (r *Router) Report(service, instanceID string, elapsed time.Duration, callErr error) {
	b := r.balancerFor(service)
	b.RecordRequest(instanceID, elapsed, callErr != nil)

	if counter, ok := b.(balancer.ConnectionCounter); ok {
		counter.DecrementConnections(instanceID)
	}

	cb := r.breaker(service)
	if callErr != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
}

// Do picks an instance, runs fn against it, and reports the outcome,
// including the connection release for least connections. It returns
// ErrCircuitOpen without running fn when the circuit is open.
func (r *Router) Do(ctx context.Context, service string, fn func(discovery.ServiceInfo) error) error {
	target, err := r.Pick(ctx, service)
	if err != nil {
		return err
	}

	start := time.Now()
	callErr := fn(target)
	r.Report(service, target.ID, time.Since(start), callErr)

	return callErr
}

// UpdateHealth forwards a health probe result to the service's balancer.
func (r *Router) UpdateHealth(service, instanceID string, healthy bool) {
	r.balancerFor(service).UpdateHealth(instanceID, healthy)
}

// Breakers exposes the circuit breaker manager for administrative use.
func (r *Router) Breakers() *circuitbreaker.Manager {
	return r.breakers
}

// Stats returns a snapshot of all balancer and breaker state for export.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	balancers := make(map[string]balancer.Stats, len(r.balancers))
	for name, b := range r.balancers {
		balancers[name] = b.Stats()
	}
	r.mu.RUnlock()

	return Stats{
		Balancers: balancers,
		Breakers:  r.breakers.Stats(),
	}
}

// balancerFor returns the balancer for a service, creating it from the
// configured policy on first use.
func (r *Router) balancerFor(service string) balancer.Balancer {
	r.mu.RLock()
	b, ok := r.balancers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.balancers[service]; ok {
		return b
	}

	algorithm := r.cfg.PolicyFor(service).Algorithm()
	b = balancer.New(algorithm, r.logger)
	r.balancers[service] = b

	r.logger.Debug("created balancer",
		zap.String("service", service),
		zap.String("algorithm", string(algorithm)),
	)

	return b
}

// breaker returns the circuit breaker for a service, creating it from the
// configured policy on first use.
func (r *Router) breaker(service string) *circuitbreaker.CircuitBreaker {
	r.mu.RLock()
	policy := r.cfg.PolicyFor(service)
	r.mu.RUnlock()

	return r.breakers.GetBreaker(service, policy.CircuitBreaker.Options())
}
