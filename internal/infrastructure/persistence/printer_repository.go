package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/persistence/models"
)

// GormPrinterRepository implements PrinterRepository using GORM.
// Printers are owned by the inventory application; this repository is
// read-only.
type GormPrinterRepository struct {
	db *gorm.DB
}

// NewGormPrinterRepository creates a new GormPrinterRepository
func NewGormPrinterRepository(db *gorm.DB) *GormPrinterRepository {
	return &GormPrinterRepository{db: db}
}

// FindByID finds a printer by ID
func (r *GormPrinterRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.Printer, error) {
	var model models.PrinterModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns all configured printers
func (r *GormPrinterRepository) FindAll(ctx context.Context) ([]printing.Printer, error) {
	var printerModels []models.PrinterModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&printerModels).Error; err != nil {
		return nil, err
	}

	printers := make([]printing.Printer, len(printerModels))
	for i, model := range printerModels {
		printer, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		printers[i] = *printer
	}
	return printers, nil
}

var _ printing.PrinterRepository = (*GormPrinterRepository)(nil)
var _ printing.PrintJobRepository = (*GormPrintJobRepository)(nil)
