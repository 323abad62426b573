package labels

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	entityType string
	data       []LabelData
}

func (p *fakeProvider) EntityType() string { return p.entityType }

func (p *fakeProvider) GetData(_ context.Context, _ uuid.UUID, _ []string) ([]LabelData, error) {
	return p.data, nil
}

func TestProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry()
	assert.False(t, registry.HasProvider("item"))
	assert.Empty(t, registry.RegisteredTypes())

	registry.Register(&fakeProvider{entityType: "item", data: []LabelData{{EntityID: "1"}}})
	registry.Register(nil) // ignored

	assert.True(t, registry.HasProvider("item"))
	assert.Equal(t, []string{"item"}, registry.RegisteredTypes())

	provider, ok := registry.GetProvider("item")
	assert.True(t, ok)
	assert.NotNil(t, provider)

	data, err := registry.LoadData(context.Background(), uuid.New(), "item", []string{"1"})
	require.NoError(t, err)
	assert.Len(t, data, 1)
}

func TestProviderRegistry_UnknownType(t *testing.T) {
	registry := NewProviderRegistry()

	_, err := registry.LoadData(context.Background(), uuid.New(), "ghost", []string{"1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data provider registered")
}

func TestProviderRegistry_ReplacesOnReRegister(t *testing.T) {
	registry := NewProviderRegistry()
	registry.Register(&fakeProvider{entityType: "item"})
	registry.Register(&fakeProvider{entityType: "item", data: []LabelData{{EntityID: "2"}}})

	data, err := registry.LoadData(context.Background(), uuid.New(), "item", []string{"2"})
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "2", data[0].EntityID)
}
