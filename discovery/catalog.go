package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrServiceNotFound is returned when a logical service has no registered instances.
var ErrServiceNotFound = errors.New("service not found")

// Catalog supplies the current list of instances for a logical service name.
// Implementations may be backed by an external directory; the routing layer
// has no opinion on freshness beyond "current list at call time".
type Catalog interface {
	Services(ctx context.Context, name string) ([]ServiceInfo, error)
}

// StaticCatalog is an in-memory Catalog. It is used in tests and in
// deployments where the instance set is fixed at startup or maintained by an
// external reconciler calling Register/Deregister.
type StaticCatalog struct {
	mu       sync.RWMutex
	services map[string][]ServiceInfo
	logger   *zap.Logger
}

// NewStaticCatalog creates an empty in-memory catalog.
func NewStaticCatalog(logger *zap.Logger) *StaticCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticCatalog{
		services: make(map[string][]ServiceInfo),
		logger:   logger,
	}
}

// Register adds an instance to the catalog. An empty ID is assigned a
// generated one. Registering an ID that already exists replaces the previous
// entry. Returns the registered instance (with its final ID).
func (c *StaticCatalog) Register(info ServiceInfo) ServiceInfo {
	if info.ID == "" {
		info.ID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	instances := c.services[info.Name]
	replaced := false
	for i, existing := range instances {
		if existing.ID == info.ID {
			instances[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		instances = append(instances, info)
	}
	c.services[info.Name] = instances

	c.logger.Debug("service instance registered",
		zap.String("service", info.Name),
		zap.String("id", info.ID),
		zap.String("address", info.FullAddress()),
	)

	return info
}

// Deregister removes an instance by ID. Unknown IDs are a no-op.
func (c *StaticCatalog) Deregister(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	instances := c.services[name]
	for i, existing := range instances {
		if existing.ID == id {
			c.services[name] = append(instances[:i], instances[i+1:]...)
			c.logger.Debug("service instance deregistered",
				zap.String("service", name),
				zap.String("id", id),
			)
			return
		}
	}
}

// Services returns the current instances of a logical service.
func (c *StaticCatalog) Services(_ context.Context, name string) ([]ServiceInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	instances, ok := c.services[name]
	if !ok {
		return nil, ErrServiceNotFound
	}

	out := make([]ServiceInfo, len(instances))
	copy(out, instances)
	return out, nil
}

// Names returns all logical service names with at least one instance.
func (c *StaticCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name, instances := range c.services {
		if len(instances) > 0 {
			names = append(names, name)
		}
	}
	return names
}
