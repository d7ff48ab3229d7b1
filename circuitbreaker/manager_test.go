package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_GetBreakerIsIdempotent(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	first := m.GetBreaker("svc-a", testOptions())
	second := m.GetBreaker("svc-a", testOptions())

	assert.Same(t, first, second)
}

func TestManager_OptionsHonoredOnlyOnCreation(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	m.GetBreaker("svc-a", &Options{Threshold: 2, Timeout: time.Second})

	// Later options for the same name are silently ignored.
	cb := m.GetBreaker("svc-a", &Options{Threshold: 100, Timeout: time.Second})

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestManager_NilOptionsUseDefaults(t *testing.T) {
	defaults := &Options{Threshold: 2, Timeout: time.Second}
	m := NewManager(defaults, zap.NewNop())

	cb := m.GetBreaker("svc-a", nil)
	cb.RecordFailure()
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
}

func TestManager_Stats(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	m.GetBreaker("svc-a", &Options{Threshold: 1, Timeout: time.Second}).RecordFailure()
	m.GetBreaker("svc-b", testOptions()).RecordSuccess()

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, StateOpen, stats["svc-a"].State)
	assert.Equal(t, StateClosed, stats["svc-b"].State)
	assert.Equal(t, 1, stats["svc-b"].SuccessCount)
}

func TestManager_ResetBreaker(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	cb := m.GetBreaker("svc-a", &Options{Threshold: 1, Timeout: time.Hour})
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	require.NoError(t, m.ResetBreaker("svc-a"))
	assert.Equal(t, StateClosed, cb.State())

	assert.Error(t, m.ResetBreaker("missing"))
}

func TestManager_ResetAll(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	opts := &Options{Threshold: 1, Timeout: time.Hour}
	a := m.GetBreaker("svc-a", opts)
	b := m.GetBreaker("svc-b", &Options{Threshold: 1, Timeout: time.Hour})
	a.RecordFailure()
	b.RecordFailure()

	m.ResetAll()

	assert.Equal(t, StateClosed, a.State())
	assert.Equal(t, StateClosed, b.State())
}

func TestManager_NamesAndCount(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	assert.Equal(t, 0, m.Count())

	m.GetBreaker("svc-a", nil)
	m.GetBreaker("svc-b", nil)

	assert.Equal(t, 2, m.Count())
	assert.ElementsMatch(t, []string{"svc-a", "svc-b"}, m.Names())
}

func TestManager_ConcurrentGetBreaker(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	const workers = 16
	breakers := make([]*CircuitBreaker, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(idx int) {
			defer wg.Done()
			breakers[idx] = m.GetBreaker("svc-a", testOptions())
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, breakers[0], breakers[i])
	}
	assert.Equal(t, 1, m.Count())
}
