package balancer

import (
	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

// RoundRobin selects healthy instances in turn. The cursor is kept per
// logical service name, shared by all instances of that service, so over
// len(healthy) consecutive calls with a stable healthy set each instance is
// chosen exactly once. If the healthy set changes size between calls the
// cursor is not renormalized and fairness is only approximate.
type RoundRobin struct {
	tracker
	cursors map[string]int
}

// NewRoundRobin creates a round robin balancer.
func NewRoundRobin(logger *zap.Logger) *RoundRobin {
	return &RoundRobin{
		tracker: newTracker(AlgorithmRoundRobin, logger),
		cursors: make(map[string]int),
	}
}

// Algorithm returns AlgorithmRoundRobin.
func (rr *RoundRobin) Algorithm() Algorithm {
	return AlgorithmRoundRobin
}

// Select picks the next healthy instance in cyclic order.
func (rr *RoundRobin) Select(candidates []discovery.ServiceInfo) (discovery.ServiceInfo, error) {
	if len(candidates) == 0 {
		return discovery.ServiceInfo{}, ErrNoServicesAvailable
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	healthy := rr.healthyOf(candidates)
	if len(healthy) == 0 {
		return rr.degrade(candidates), nil
	}

	name := healthy[0].Name
	chosen := healthy[rr.cursors[name]%len(healthy)]
	rr.cursors[name]++

	RecordSelection(name, AlgorithmRoundRobin)
	return chosen, nil
}
