package balancer

import "time"

// Stats is a point-in-time snapshot of a balancer's accumulated statistics.
type Stats struct {
	// Algorithm is the strategy that produced the snapshot.
	Algorithm Algorithm

	// TotalRequests is the sum of recorded requests across all instances.
	TotalRequests int64

	// Services holds per-instance statistics keyed by instance ID.
	Services map[string]ServiceStats
}

// ServiceStats holds the accumulated statistics for one instance.
type ServiceStats struct {
	// Requests is the number of recorded attempts.
	Requests int64

	// Errors is the number of recorded attempts that failed.
	Errors int64

	// AvgResponseTime is the mean response time of recorded attempts,
	// zero when no attempts have been recorded.
	AvgResponseTime time.Duration

	// Healthy reports the last known health status.
	Healthy bool

	// Weight is the recorded weight override; zero means the catalog
	// metadata (or the default of 1) applies.
	Weight int

	// ActiveConnections is the current in-flight connection count
	// (least connections strategy only).
	ActiveConnections int64
}
