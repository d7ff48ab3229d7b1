package balancer

import (
	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

// LeastConnections selects the healthy instance with the fewest in-flight
// connections, ties broken by candidate order. Selection increments the
// chosen instance's counter; the caller must call DecrementConnections once
// the call completes, success or failure. A missed decrement biases the
// balancer against that instance until the process restarts.
type LeastConnections struct {
	tracker
}

// NewLeastConnections creates a least connections balancer.
func NewLeastConnections(logger *zap.Logger) *LeastConnections {
	return &LeastConnections{
		tracker: newTracker(AlgorithmLeastConnections, logger),
	}
}

// Algorithm returns AlgorithmLeastConnections.
func (lc *LeastConnections) Algorithm() Algorithm {
	return AlgorithmLeastConnections
}

// Select picks the healthy instance with the fewest in-flight connections
// and increments its counter.
func (lc *LeastConnections) Select(candidates []discovery.ServiceInfo) (discovery.ServiceInfo, error) {
	if len(candidates) == 0 {
		return discovery.ServiceInfo{}, ErrNoServicesAvailable
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	healthy := lc.healthyOf(candidates)
	if len(healthy) == 0 {
		return lc.degrade(candidates), nil
	}

	var chosen discovery.ServiceInfo
	var chosenRec *healthRecord

	for _, info := range healthy {
		rec := lc.record(info.ID)
		if chosenRec == nil || rec.activeConns < chosenRec.activeConns {
			chosen = info
			chosenRec = rec
		}
	}

	chosenRec.activeConns++
	SetActiveConnections(chosen.ID, chosenRec.activeConns)

	RecordSelection(chosen.Name, AlgorithmLeastConnections)
	return chosen, nil
}

// IncrementConnections adds one in-flight connection to an instance,
// creating its record if absent.
func (lc *LeastConnections) IncrementConnections(serviceID string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	rec := lc.record(serviceID)
	rec.activeConns++
	SetActiveConnections(serviceID, rec.activeConns)
}

// DecrementConnections removes one in-flight connection from an instance.
// The counter never goes below zero.
func (lc *LeastConnections) DecrementConnections(serviceID string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	rec := lc.record(serviceID)
	if rec.activeConns > 0 {
		rec.activeConns--
	}
	SetActiveConnections(serviceID, rec.activeConns)
}
