package printing

import (
	"context"

	"github.com/google/uuid"
	"github.com/warecore/printd/internal/domain/shared"
)

// PrintJobRepository provides access to persisted print jobs
type PrintJobRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PrintJob, error)
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]PrintJob, error)
	CountByStatus(ctx context.Context, orgID uuid.UUID, status JobStatus) (int64, error)
	Save(ctx context.Context, job *PrintJob) error
}

// PrinterRepository provides read access to printer configurations
type PrinterRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Printer, error)
	FindAll(ctx context.Context) ([]Printer, error)
}
