// Package balancer provides load balancing strategies for selecting one
// backend instance from a pool of interchangeable candidates.
//
// Three strategies are available:
//
//   - RoundRobin: one shared cursor per logical service name, each healthy
//     instance selected in turn.
//   - WeightedRoundRobin: smooth weighted selection using per-instance
//     weight accumulators, converging to a weight-proportional distribution
//     without bursts.
//   - LeastConnections: selects the healthy instance with the fewest
//     in-flight connections. Selection increments the counter; callers must
//     decrement it when the call completes.
//
// Every strategy tracks per-instance request counts, error counts, response
// times, and health status. Selection filters to healthy instances first;
// unknown instances are treated as healthy. When every candidate is
// unhealthy, selection degrades: it logs a warning and returns the first
// candidate unchanged so the caller can still attempt the request.
//
// All operations are safe for concurrent use and never block.
package balancer
