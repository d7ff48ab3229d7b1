// Package discovery defines the service catalog data model consumed by the
// routing layer. The catalog itself (registration, health probing, refresh
// cadence) is owned by an external collaborator; this package only fixes the
// shape of what it produces.
package discovery

import (
	"fmt"
	"strconv"
	"time"
)

// ServiceInfo describes one backend instance of a logical service.
// Instances are immutable from the routing layer's point of view.
type ServiceInfo struct {
	// ID uniquely identifies this instance.
	ID string `json:"id" yaml:"id"`

	// Name is the logical service group the instance belongs to.
	Name string `json:"name" yaml:"name"`

	// Address is the network address of the instance.
	Address string `json:"address" yaml:"address"`

	// Port is the port the instance listens on.
	Port int `json:"port" yaml:"port"`

	// Tags are free-form labels attached by the catalog.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Meta holds key-value metadata. A numeric "weight" entry is honored
	// by the weighted round robin strategy.
	Meta map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`

	// Check optionally describes the health probe for this instance.
	// It is opaque to the routing layer.
	Check *Check `json:"check,omitempty" yaml:"check,omitempty"`
}

// Check describes a health probe for an instance. It is carried through
// unchanged for the health-checking collaborator.
type Check struct {
	HTTP     string        `json:"http,omitempty" yaml:"http,omitempty"`
	TCP      string        `json:"tcp,omitempty" yaml:"tcp,omitempty"`
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// FullAddress returns the complete network address of the instance in
// "host:port" format, suitable for net.Dial and similar functions.
func (s ServiceInfo) FullAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// MetaWeight returns the weight declared in the instance metadata.
// The second return value is false when no valid weight is present.
// Weights below 1 are treated as absent.
func (s ServiceInfo) MetaWeight() (int, bool) {
	raw, ok := s.Meta["weight"]
	if !ok {
		return 0, false
	}
	w, err := strconv.Atoi(raw)
	if err != nil || w < 1 {
		return 0, false
	}
	return w, true
}
