package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avyr/routeguard/discovery"
)

func weightedInstances(weights map[string]string) []discovery.ServiceInfo {
	out := []discovery.ServiceInfo{
		{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080},
		{ID: "b", Name: "orders-api", Address: "10.0.0.2", Port: 8080},
	}
	for i := range out {
		if w, ok := weights[out[i].ID]; ok {
			out[i].Meta = map[string]string{"weight": w}
		}
	}
	return out
}

func TestWeightedRoundRobin_Distribution(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(map[string]string{"a": "3", "b": "1"})

	counts := make(map[string]int)
	var picks []string
	for i := 0; i < 4; i++ {
		chosen, err := wrr.Select(candidates)
		require.NoError(t, err)
		counts[chosen.ID]++
		picks = append(picks, chosen.ID)
	}

	assert.Equal(t, 3, counts["a"])
	assert.Equal(t, 1, counts["b"])

	// Smoothness: the heavy instance does not open with a double pick.
	assert.NotEqual(t, picks[0], picks[1])
}

func TestWeightedRoundRobin_DistributionRepeats(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(map[string]string{"a": "3", "b": "1"})

	// The accumulators return to zero after each full cycle, so the
	// distribution holds over any number of cycles.
	counts := make(map[string]int)
	for i := 0; i < 12; i++ {
		chosen, err := wrr.Select(candidates)
		require.NoError(t, err)
		counts[chosen.ID]++
	}

	assert.Equal(t, 9, counts["a"])
	assert.Equal(t, 3, counts["b"])
}

func TestWeightedRoundRobin_DefaultWeightIsOne(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(nil)

	counts := make(map[string]int)
	for i := 0; i < 4; i++ {
		chosen, err := wrr.Select(candidates)
		require.NoError(t, err)
		counts[chosen.ID]++
	}

	assert.Equal(t, 2, counts["a"])
	assert.Equal(t, 2, counts["b"])
}

func TestWeightedRoundRobin_SetWeightOverridesMeta(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(map[string]string{"a": "3", "b": "1"})

	// Invert the metadata weights via recorded overrides.
	wrr.SetWeight("a", 1)
	wrr.SetWeight("b", 3)

	counts := make(map[string]int)
	for i := 0; i < 4; i++ {
		chosen, err := wrr.Select(candidates)
		require.NoError(t, err)
		counts[chosen.ID]++
	}

	assert.Equal(t, 1, counts["a"])
	assert.Equal(t, 3, counts["b"])
}

func TestWeightedRoundRobin_ClearOverride(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())

	wrr.SetWeight("a", 7)
	assert.Equal(t, 7, wrr.Stats().Services["a"].Weight)

	wrr.SetWeight("a", 0)
	assert.Equal(t, 0, wrr.Stats().Services["a"].Weight)
}

func TestWeightedRoundRobin_EmptyCandidates(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())

	_, err := wrr.Select([]discovery.ServiceInfo{})
	assert.ErrorIs(t, err, ErrNoServicesAvailable)
}

func TestWeightedRoundRobin_DegradedFallback(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(map[string]string{"a": "3", "b": "1"})

	wrr.UpdateHealth("a", false)
	wrr.UpdateHealth("b", false)

	chosen, err := wrr.Select(candidates)
	require.NoError(t, err)
	assert.Equal(t, "a", chosen.ID)
}

func TestWeightedRoundRobin_UnhealthyExcludedFromRotation(t *testing.T) {
	wrr := NewWeightedRoundRobin(zap.NewNop())
	candidates := weightedInstances(map[string]string{"a": "3", "b": "1"})

	wrr.UpdateHealth("a", false)

	for i := 0; i < 3; i++ {
		chosen, err := wrr.Select(candidates)
		require.NoError(t, err)
		assert.Equal(t, "b", chosen.ID)
	}
}
