package balancer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

// Algorithm identifies a load balancing strategy.
type Algorithm string

const (
	// AlgorithmRoundRobin selects healthy instances in turn.
	AlgorithmRoundRobin Algorithm = "RoundRobin"

	// AlgorithmWeightedRoundRobin selects instances proportionally to their
	// weight using the smooth accumulator algorithm.
	AlgorithmWeightedRoundRobin Algorithm = "WeightedRoundRobin"

	// AlgorithmLeastConnections selects the instance with the fewest
	// in-flight connections.
	AlgorithmLeastConnections Algorithm = "LeastConnections"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = AlgorithmRoundRobin

// ParseAlgorithm parses an algorithm name from configuration. An empty
// string yields DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "":
		return DefaultAlgorithm, nil
	case AlgorithmRoundRobin, AlgorithmWeightedRoundRobin, AlgorithmLeastConnections:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Balancer selects one instance per call from a candidate list and
// accumulates per-instance usage and health statistics.
type Balancer interface {
	// Algorithm returns the strategy implemented by this balancer.
	Algorithm() Algorithm

	// Select picks one instance from the candidates. The list must be
	// non-empty; ErrNoServicesAvailable is returned otherwise. Selection
	// filters to healthy instances (unknown instances count as healthy).
	// When no candidate is healthy the selection degrades: a warning is
	// logged and the first candidate is returned unchanged, with no
	// strategy bookkeeping performed.
	Select(candidates []discovery.ServiceInfo) (discovery.ServiceInfo, error)

	// UpdateHealth sets the health status of an instance, creating its
	// record if absent. Idempotent.
	UpdateHealth(serviceID string, healthy bool)

	// RecordRequest records the outcome of one completed attempt against
	// an instance. Callers must invoke it after every attempt; it is the
	// only way the balancer observes call outcomes.
	RecordRequest(serviceID string, responseTime time.Duration, isError bool)

	// SetWeight overrides the weight of an instance for weighted
	// selection. Overrides take precedence over catalog metadata.
	SetWeight(serviceID string, weight int)

	// Stats returns a point-in-time snapshot of accumulated statistics.
	Stats() Stats
}

// ConnectionCounter is implemented by strategies that track in-flight
// connections per instance.
type ConnectionCounter interface {
	// IncrementConnections adds one in-flight connection to an instance.
	IncrementConnections(serviceID string)

	// DecrementConnections removes one in-flight connection from an
	// instance. The counter never goes below zero.
	DecrementConnections(serviceID string)
}

// New creates a balancer for the given algorithm. Unrecognized algorithms
// fall back to round robin.
func New(algorithm Algorithm, logger *zap.Logger) Balancer {
	switch algorithm {
	case AlgorithmWeightedRoundRobin:
		return NewWeightedRoundRobin(logger)
	case AlgorithmLeastConnections:
		return NewLeastConnections(logger)
	default:
		return NewRoundRobin(logger)
	}
}
