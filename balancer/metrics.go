package balancer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SelectionsTotal counts instance selections per service and algorithm.
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_balancer_selections_total",
			Help: "Total number of instance selections",
		},
		[]string{"service", "algorithm"},
	)

	// DegradedSelectionsTotal counts selections that fell back to an
	// unhealthy instance because no healthy one was available.
	DegradedSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_balancer_degraded_selections_total",
			Help: "Total number of selections degraded to an unhealthy instance",
		},
		[]string{"service", "algorithm"},
	)

	// RequestsTotal counts recorded request outcomes per instance.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_balancer_requests_total",
			Help: "Total number of recorded request outcomes",
		},
		[]string{"instance", "result"},
	)

	// ActiveConnections shows in-flight connections per instance.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "load_balancer_active_connections",
			Help: "Current number of in-flight connections per instance",
		},
		[]string{"instance"},
	)
)

// RecordSelection records a normal instance selection.
func RecordSelection(service string, algorithm Algorithm) {
	SelectionsTotal.WithLabelValues(service, string(algorithm)).Inc()
}

// RecordDegradedSelection records a degraded selection.
func RecordDegradedSelection(service string, algorithm Algorithm) {
	DegradedSelectionsTotal.WithLabelValues(service, string(algorithm)).Inc()
}

// RecordOutcome records a completed request outcome.
func RecordOutcome(instance string, isError bool) {
	result := "success"
	if isError {
		result = "error"
	}
	RequestsTotal.WithLabelValues(instance, result).Inc()
}

// SetActiveConnections records the in-flight connection count of an instance.
func SetActiveConnections(instance string, n int64) {
	ActiveConnections.WithLabelValues(instance).Set(float64(n))
}
