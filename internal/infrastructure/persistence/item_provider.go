package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warecore/printd/internal/infrastructure/labels"
	"github.com/warecore/printd/internal/infrastructure/persistence/models"
)

// ItemLabelProvider loads label data for inventory items
type ItemLabelProvider struct {
	db *gorm.DB
}

// NewItemLabelProvider creates a label data provider for the "item" entity
// type
func NewItemLabelProvider(db *gorm.DB) *ItemLabelProvider {
	return &ItemLabelProvider{db: db}
}

// EntityType returns the entity type this provider handles
func (p *ItemLabelProvider) EntityType() string {
	return "item"
}

// GetData loads label data for the given item ids. Ids that do not resolve
// to an item are skipped.
func (p *ItemLabelProvider) GetData(ctx context.Context, orgID uuid.UUID, entityIDs []string) ([]labels.LabelData, error) {
	var items []models.ItemModel
	query := p.db.WithContext(ctx).Where("id IN ?", entityIDs)
	if orgID != uuid.Nil {
		query = query.Where("org_id = ?", orgID)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	// Preserve the requested order
	byID := make(map[string]models.ItemModel, len(items))
	for _, item := range items {
		byID[item.ID.String()] = item
	}

	data := make([]labels.LabelData, 0, len(items))
	for _, id := range entityIDs {
		item, ok := byID[id]
		if !ok {
			continue
		}
		fields := []labels.LabelField{{Name: "SKU", Value: item.SKU}}
		if item.Location != "" {
			fields = append(fields, labels.LabelField{Name: "Location", Value: item.Location})
		}
		if item.Unit != "" {
			fields = append(fields, labels.LabelField{Name: "Unit", Value: item.Unit})
		}
		data = append(data, labels.LabelData{
			EntityID: id,
			Title:    item.Name,
			Barcode:  item.SKU,
			Fields:   fields,
		})
	}
	return data, nil
}

var _ labels.DataProvider = (*ItemLabelProvider)(nil)
