package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/persistence/models"
)

// PrintJobSortFields defines allowed sort fields for print jobs
var PrintJobSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"entity_type": true,
	"status":      true,
	"started_at":  true,
	"finished_at": true,
}

// GormPrintJobRepository implements PrintJobRepository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	var model models.PrintJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAllForOrg finds all jobs for an organization with optional filtering
func (r *GormPrintJobRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]printing.PrintJob, error) {
	var jobModels []models.PrintJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PrintJobModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]printing.PrintJob, len(jobModels))
	for i, model := range jobModels {
		job, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		jobs[i] = *job
	}
	return jobs, nil
}

// CountByStatus counts an organization's jobs in the given status
func (r *GormPrintJobRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status printing.JobStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PrintJobModel{}).
		Where("org_id = ? AND status = ?", orgID, string(status)).
		Count(&count).Error
	return count, err
}

// Save creates or updates a job. Ids are generated by the domain, so the
// write is an upsert keyed on the primary key.
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printing.PrintJob) error {
	model, err := models.PrintJobModelFromDomain(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(model).Error
}

// applyFilter applies pagination and sorting to a query
func (r *GormPrintJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if entityType, ok := filter.Filters["entity_type"]; ok {
		query = query.Where("entity_type = ?", entityType)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" && PrintJobSortFields[filter.OrderBy] {
		orderBy = filter.OrderBy
	}
	direction := "DESC"
	if filter.OrderDir == "asc" {
		direction = "ASC"
	}
	query = query.Order(orderBy + " " + direction)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
