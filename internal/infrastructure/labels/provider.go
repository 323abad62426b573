package labels

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// LabelField is one printable name/value line on a label
type LabelField struct {
	Name  string
	Value string
}

// LabelData is the renderable content for a single entity
type LabelData struct {
	// EntityID identifies the source entity
	EntityID string
	// Title is the headline line, typically the entity name
	Title string
	// Barcode is the value encoded in the label barcode; empty disables it
	Barcode string
	// Fields are additional lines printed in order
	Fields []LabelField
}

// DataProvider loads label data for one entity type.
// Each printable entity type has its own implementation.
type DataProvider interface {
	// EntityType returns the entity type this provider handles
	EntityType() string
	// GetData loads label data for the given entity ids, scoped to an
	// organization. Missing ids are skipped, not errors.
	GetData(ctx context.Context, orgID uuid.UUID, entityIDs []string) ([]LabelData, error)
}

// ProviderRegistry manages DataProvider implementations per entity type
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]DataProvider
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]DataProvider),
	}
}

// Register adds a provider, replacing any existing one for the same type
func (r *ProviderRegistry) Register(provider DataProvider) {
	if provider == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.EntityType()] = provider
}

// GetProvider returns the provider for the given entity type
func (r *ProviderRegistry) GetProvider(entityType string) (DataProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[entityType]
	return provider, ok
}

// LoadData loads label data using the provider registered for the entity type
func (r *ProviderRegistry) LoadData(ctx context.Context, orgID uuid.UUID, entityType string, entityIDs []string) ([]LabelData, error) {
	provider, ok := r.GetProvider(entityType)
	if !ok {
		return nil, fmt.Errorf("no data provider registered for entity type: %s", entityType)
	}
	return provider.GetData(ctx, orgID, entityIDs)
}

// HasProvider checks whether a provider is registered for the entity type
func (r *ProviderRegistry) HasProvider(entityType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[entityType]
	return ok
}

// RegisteredTypes returns all entity types with registered providers
func (r *ProviderRegistry) RegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.providers))
	for entityType := range r.providers {
		types = append(types, entityType)
	}
	return types
}
