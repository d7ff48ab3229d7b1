package balancer

import "errors"

// Sentinel errors for selection operations.
var (
	// ErrNoServicesAvailable indicates that the candidate list was empty.
	ErrNoServicesAvailable = errors.New("no services available")

	// ErrUnknownAlgorithm indicates an unrecognized balancing algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown load balancing algorithm")
)
