package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServiceInfo_FullAddress(t *testing.T) {
	info := ServiceInfo{Address: "10.0.0.1", Port: 8080}
	assert.Equal(t, "10.0.0.1:8080", info.FullAddress())
}

func TestServiceInfo_MetaWeight(t *testing.T) {
	tests := []struct {
		name   string
		meta   map[string]string
		weight int
		ok     bool
	}{
		{"valid weight", map[string]string{"weight": "5"}, 5, true},
		{"missing key", map[string]string{}, 0, false},
		{"nil meta", nil, 0, false},
		{"not a number", map[string]string{"weight": "heavy"}, 0, false},
		{"zero", map[string]string{"weight": "0"}, 0, false},
		{"negative", map[string]string{"weight": "-3"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := ServiceInfo{Meta: tt.meta}.MetaWeight()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.weight, w)
		})
	}
}

func TestStaticCatalog_RegisterAndServices(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())

	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080})
	catalog.Register(ServiceInfo{ID: "b", Name: "orders-api", Address: "10.0.0.2", Port: 8080})

	instances, err := catalog.Services(context.Background(), "orders-api")
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "a", instances[0].ID)
	assert.Equal(t, "b", instances[1].ID)
}

func TestStaticCatalog_RegisterAssignsID(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())

	registered := catalog.Register(ServiceInfo{Name: "orders-api", Address: "10.0.0.1", Port: 8080})
	assert.NotEmpty(t, registered.ID)
}

func TestStaticCatalog_RegisterReplacesExistingID(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())

	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080})
	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.9", Port: 9090})

	instances, err := catalog.Services(context.Background(), "orders-api")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "10.0.0.9:9090", instances[0].FullAddress())
}

func TestStaticCatalog_Deregister(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())

	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080})
	catalog.Register(ServiceInfo{ID: "b", Name: "orders-api", Address: "10.0.0.2", Port: 8080})

	catalog.Deregister("orders-api", "a")

	instances, err := catalog.Services(context.Background(), "orders-api")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "b", instances[0].ID)

	// Unknown IDs are a no-op.
	catalog.Deregister("orders-api", "missing")
}

func TestStaticCatalog_ServicesUnknownName(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())

	_, err := catalog.Services(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestStaticCatalog_ServicesReturnsCopy(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())
	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080})

	instances, err := catalog.Services(context.Background(), "orders-api")
	require.NoError(t, err)

	instances[0].Address = "mutated"

	again, err := catalog.Services(context.Background(), "orders-api")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", again[0].Address)
}

func TestStaticCatalog_Names(t *testing.T) {
	catalog := NewStaticCatalog(zap.NewNop())
	catalog.Register(ServiceInfo{ID: "a", Name: "orders-api", Address: "10.0.0.1", Port: 8080})
	catalog.Register(ServiceInfo{ID: "b", Name: "billing-api", Address: "10.0.0.2", Port: 8080})

	names := catalog.Names()
	assert.ElementsMatch(t, []string{"orders-api", "billing-api"}, names)
}
