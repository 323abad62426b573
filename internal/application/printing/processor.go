package printing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/delivery"
	"github.com/warecore/printd/internal/infrastructure/labels"
)

// ErrCodeJobNotFound marks a process call for a job id that does not exist
const ErrCodeJobNotFound = "JOB_NOT_FOUND"

// ErrCodeInternal is recorded when a failure carries no classifiable code
const ErrCodeInternal = "INTERNAL"

// Dispatcher delivers a payload to a destination and returns the artifact
// descriptor
type Dispatcher interface {
	Dispatch(ctx context.Context, payload []byte, dest delivery.Destination) (string, error)
}

// PrintJobProcessor executes one print job end to end: it commits the
// processing transition, renders the payload, delivers it and commits the
// terminal transition. On failure the error is recorded on the job and then
// returned so the surrounding queue can schedule a retry.
//
// Processing is at-least-once, not exactly-once: a retry re-runs the whole
// rendering and delivery sequence, so bytes already written to a physical
// printer before a later fault can be printed again.
type PrintJobProcessor struct {
	jobs       printing.PrintJobRepository
	printers   printing.PrinterRepository
	labels     *LabelService
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewPrintJobProcessor creates a print job processor
func NewPrintJobProcessor(
	jobs printing.PrintJobRepository,
	printers printing.PrinterRepository,
	labelService *LabelService,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *PrintJobProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintJobProcessor{
		jobs:       jobs,
		printers:   printers,
		labels:     labelService,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Process runs the job with the given id to a terminal state
func (p *PrintJobProcessor) Process(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(ErrCodeJobNotFound,
				fmt.Sprintf("print job %s not found", jobID))
		}
		return fmt.Errorf("failed to load print job: %w", err)
	}

	// Commit the processing transition before doing any work so a concurrent
	// worker or an operator sees the job as claimed
	if err := job.Start(); err != nil {
		return err
	}
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to claim print job: %w", err)
	}

	printer, err := p.loadPrinter(ctx, job)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	plan := ResolveDelivery(job, printer)

	payload, err := p.labels.Generate(ctx, plan.Format, job.OrgID, job.EntityType, job.EntityIDs, job.Options)
	if err != nil {
		return p.fail(ctx, job, err)
	}
	if plan.EncodeBase64 {
		payload = []byte(base64.StdEncoding.EncodeToString(payload))
	}

	descriptor, err := p.dispatcher.Dispatch(ctx, payload, plan.Destination)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	if err := job.Complete(descriptor); err != nil {
		return p.fail(ctx, job, err)
	}
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save completed print job: %w", err)
	}

	p.logger.Info("print job completed",
		zap.String("jobID", job.ID.String()),
		zap.String("artifact", descriptor))

	return nil
}

// loadPrinter resolves the job's printer snapshot. A dangling printer
// reference degrades to the no-printer path instead of failing the job.
func (p *PrintJobProcessor) loadPrinter(ctx context.Context, job *printing.PrintJob) (*printing.Printer, error) {
	if job.PrinterID == nil {
		return nil, nil
	}
	printer, err := p.printers.FindByID(ctx, *job.PrinterID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			p.logger.Warn("printer not found, falling back to file delivery",
				zap.String("jobID", job.ID.String()),
				zap.String("printerID", job.PrinterID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load printer: %w", err)
	}
	return printer, nil
}

// fail records the failure on the job and returns the original cause so the
// queue infrastructure can decide on a retry
func (p *PrintJobProcessor) fail(ctx context.Context, job *printing.PrintJob, cause error) error {
	code, message := classifyFailure(cause)

	if err := job.Fail(code, message); err != nil {
		p.logger.Error("failed to mark print job as failed",
			zap.String("jobID", job.ID.String()),
			zap.Error(err))
		return cause
	}
	if err := p.jobs.Save(ctx, job); err != nil {
		p.logger.Error("failed to save failed print job",
			zap.String("jobID", job.ID.String()),
			zap.Error(err))
	}

	p.logger.Warn("print job failed",
		zap.String("jobID", job.ID.String()),
		zap.String("code", code),
		zap.Error(cause))

	return cause
}

// classifyFailure maps a failure to the error code and message recorded on
// the job
func classifyFailure(err error) (string, string) {
	var deliveryErr *delivery.DeliveryError
	if errors.As(err, &deliveryErr) {
		return string(deliveryErr.Kind), deliveryErr.Message
	}
	var renderErr *labels.RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Code, renderErr.Message
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, domainErr.Message
	}
	return ErrCodeInternal, err.Error()
}
