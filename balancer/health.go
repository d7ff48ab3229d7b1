package balancer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

// healthRecord holds the accumulated state for one instance. Records are
// created lazily on first reference and never removed.
type healthRecord struct {
	requests      int64
	errors        int64
	totalResponse time.Duration
	healthy       bool

	// weight is the recorded override for weighted selection; 0 means no
	// override and the catalog metadata (or the default of 1) applies.
	weight int

	// currentWeight is the smooth weighted round robin accumulator.
	currentWeight int

	// activeConns counts in-flight connections for least connections.
	activeConns int64
}

// tracker is the shared bookkeeping core embedded by every strategy. It owns
// the per-instance records and the lock that makes each logical mutation
// atomic.
type tracker struct {
	mu        sync.RWMutex
	records   map[string]*healthRecord
	algorithm Algorithm
	logger    *zap.Logger
}

func newTracker(algorithm Algorithm, logger *zap.Logger) tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return tracker{
		records:   make(map[string]*healthRecord),
		algorithm: algorithm,
		logger:    logger,
	}
}

// record returns the record for an instance, creating it if absent.
// The caller must hold t.mu.
func (t *tracker) record(serviceID string) *healthRecord {
	rec, ok := t.records[serviceID]
	if !ok {
		rec = &healthRecord{healthy: true}
		t.records[serviceID] = rec
	}
	return rec
}

// healthyOf returns the subset of candidates whose record is healthy.
// Unknown instances are treated as healthy. The caller must hold t.mu.
func (t *tracker) healthyOf(candidates []discovery.ServiceInfo) []discovery.ServiceInfo {
	healthy := make([]discovery.ServiceInfo, 0, len(candidates))
	for _, info := range candidates {
		if t.record(info.ID).healthy {
			healthy = append(healthy, info)
		}
	}
	return healthy
}

// degrade implements the availability fallback used when every candidate is
// unhealthy: the first candidate is returned unchanged and no strategy
// bookkeeping takes place. The resulting call is expected to fail; its
// outcome must still be reported via RecordRequest so health can recover.
func (t *tracker) degrade(candidates []discovery.ServiceInfo) discovery.ServiceInfo {
	first := candidates[0]
	t.logger.Warn("no healthy instances, degrading to first candidate",
		zap.String("service", first.Name),
		zap.String("id", first.ID),
		zap.Int("candidates", len(candidates)),
	)
	RecordDegradedSelection(first.Name, t.algorithm)
	return first
}

// UpdateHealth sets the health status of an instance, creating its record
// if absent.
func (t *tracker) UpdateHealth(serviceID string, healthy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(serviceID)
	if rec.healthy != healthy {
		t.logger.Info("instance health changed",
			zap.String("id", serviceID),
			zap.Bool("healthy", healthy),
		)
	}
	rec.healthy = healthy
}

// RecordRequest records the outcome of one completed attempt.
func (t *tracker) RecordRequest(serviceID string, responseTime time.Duration, isError bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(serviceID)
	rec.requests++
	rec.totalResponse += responseTime
	if isError {
		rec.errors++
	}

	RecordOutcome(serviceID, isError)
}

// SetWeight overrides the weight of an instance for weighted selection.
// Weights below 1 clear the override.
func (t *tracker) SetWeight(serviceID string, weight int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(serviceID)
	if weight < 1 {
		rec.weight = 0
		return
	}
	rec.weight = weight
}

// Stats returns a snapshot of all instance records.
func (t *tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		Algorithm: t.algorithm,
		Services:  make(map[string]ServiceStats, len(t.records)),
	}
	for id, rec := range t.records {
		avg := time.Duration(0)
		if rec.requests > 0 {
			avg = rec.totalResponse / time.Duration(rec.requests)
		}
		stats.TotalRequests += rec.requests
		stats.Services[id] = ServiceStats{
			Requests:          rec.requests,
			Errors:            rec.errors,
			AvgResponseTime:   avg,
			Healthy:           rec.healthy,
			Weight:            rec.weight,
			ActiveConnections: rec.activeConns,
		}
	}
	return stats
}
