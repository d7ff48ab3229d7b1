package balancer

import (
	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

// WeightedRoundRobin implements smooth weighted round robin. On each
// selection every healthy instance's accumulator grows by its weight; the
// instance with the highest accumulator is chosen and its accumulator is
// reduced by the sum of all healthy weights. The resulting distribution is
// proportional to weight without bursts: an instance is not picked twice in
// a row unless its weight dominates the pool.
//
// Weights resolve in order: recorded override (SetWeight), catalog metadata
// ("weight" key), default 1.
type WeightedRoundRobin struct {
	tracker
}

// NewWeightedRoundRobin creates a smooth weighted round robin balancer.
func NewWeightedRoundRobin(logger *zap.Logger) *WeightedRoundRobin {
	return &WeightedRoundRobin{
		tracker: newTracker(AlgorithmWeightedRoundRobin, logger),
	}
}

// Algorithm returns AlgorithmWeightedRoundRobin.
func (w *WeightedRoundRobin) Algorithm() Algorithm {
	return AlgorithmWeightedRoundRobin
}

// Select picks the healthy instance with the highest weight accumulator.
func (w *WeightedRoundRobin) Select(candidates []discovery.ServiceInfo) (discovery.ServiceInfo, error) {
	if len(candidates) == 0 {
		return discovery.ServiceInfo{}, ErrNoServicesAvailable
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	healthy := w.healthyOf(candidates)
	if len(healthy) == 0 {
		return w.degrade(candidates), nil
	}

	totalWeight := 0
	var chosen discovery.ServiceInfo
	var chosenRec *healthRecord

	for _, info := range healthy {
		rec := w.record(info.ID)
		weight := w.effectiveWeight(rec, info)
		rec.currentWeight += weight
		totalWeight += weight

		// Ties go to the later candidate so a dominant weight does not
		// open the rotation with a double pick.
		if chosenRec == nil || rec.currentWeight >= chosenRec.currentWeight {
			chosen = info
			chosenRec = rec
		}
	}

	chosenRec.currentWeight -= totalWeight

	RecordSelection(chosen.Name, AlgorithmWeightedRoundRobin)
	return chosen, nil
}

// effectiveWeight resolves the weight of an instance: recorded override,
// else catalog metadata, else 1. The caller must hold w.mu.
func (w *WeightedRoundRobin) effectiveWeight(rec *healthRecord, info discovery.ServiceInfo) int {
	if rec.weight > 0 {
		return rec.weight
	}
	if weight, ok := info.MetaWeight(); ok {
		return weight
	}
	return 1
}
