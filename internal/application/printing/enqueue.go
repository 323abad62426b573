package printing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
)

// JobQueue hands job ids to the background workers
type JobQueue interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
}

// EnqueueRequest describes a print job to create and queue
type EnqueueRequest struct {
	OrgID         uuid.UUID
	EntityType    string
	EntityIDs     []string
	Options       map[string]any
	PrinterID     *uuid.UUID
	RequestedBy   *uuid.UUID
	RequesterName string
}

// EnqueueService creates print job records and pushes them onto the queue
type EnqueueService struct {
	jobs   printing.PrintJobRepository
	queue  JobQueue
	logger *zap.Logger
}

// NewEnqueueService creates an enqueue service
func NewEnqueueService(jobs printing.PrintJobRepository, queue JobQueue, logger *zap.Logger) *EnqueueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnqueueService{jobs: jobs, queue: queue, logger: logger}
}

// Enqueue persists a new queued job and schedules it for processing. If the
// queue push fails the job record stays queued and can be re-enqueued.
func (s *EnqueueService) Enqueue(ctx context.Context, req EnqueueRequest) (*printing.PrintJob, error) {
	job, err := printing.NewPrintJob(req.OrgID, req.EntityType, req.EntityIDs)
	if err != nil {
		return nil, err
	}
	if req.PrinterID != nil {
		job.SetPrinter(*req.PrinterID)
	}
	if req.RequestedBy != nil {
		job.SetRequester(*req.RequestedBy, req.RequesterName)
	}
	if len(req.Options) > 0 {
		job.SetOptions(req.Options)
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save print job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		s.logger.Error("failed to queue print job",
			zap.String("jobID", job.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to queue print job: %w", err)
	}

	s.logger.Info("print job queued",
		zap.String("jobID", job.ID.String()),
		zap.String("entityType", job.EntityType),
		zap.Int("entities", len(job.EntityIDs)))

	return job, nil
}

// GetJob loads a print job by id
func (s *EnqueueService) GetJob(ctx context.Context, jobID uuid.UUID) (*printing.PrintJob, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(ErrCodeJobNotFound,
				fmt.Sprintf("print job %s not found", jobID))
		}
		return nil, fmt.Errorf("failed to load print job: %w", err)
	}
	return job, nil
}

// ListJobs returns a page of jobs for an organization
func (s *EnqueueService) ListJobs(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]printing.PrintJob, error) {
	return s.jobs.FindAllForOrg(ctx, orgID, filter)
}
