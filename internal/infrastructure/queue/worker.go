package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/telemetry"
)

// Processor handles a single job attempt
type Processor interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

// Queue is the job backlog the worker pool consumes
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*JobEnvelope, error)
	ScheduleRetry(ctx context.Context, env JobEnvelope, delay time.Duration, lastError string) error
	DeadLetter(ctx context.Context, env JobEnvelope, lastError string) error
	PromoteDue(ctx context.Context) (int, error)
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	Workers         int
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	PollTimeout     time.Duration
	PromoteInterval time.Duration
}

// DefaultWorkerPoolConfig returns sensible defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:         4,
		MaxAttempts:     5,
		RetryBaseDelay:  5 * time.Second,
		PollTimeout:     5 * time.Second,
		PromoteInterval: time.Second,
	}
}

// WorkerPool consumes the job queue and drives the processor
type WorkerPool struct {
	queue     Queue
	processor Processor
	config    WorkerPoolConfig
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	// pollCancel stops the dequeue/promote polling. workCancel aborts jobs
	// already picked up and is only used when Stop's deadline expires, so a
	// job mid-delivery at shutdown keeps a live context for its terminal
	// save and retry bookkeeping.
	pollCancel context.CancelFunc
	workCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewWorkerPool creates a worker pool
func NewWorkerPool(queue Queue, processor Processor, config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkerPoolConfig().Workers
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultWorkerPoolConfig().MaxAttempts
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = DefaultWorkerPoolConfig().RetryBaseDelay
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultWorkerPoolConfig().PollTimeout
	}
	if config.PromoteInterval <= 0 {
		config.PromoteInterval = DefaultWorkerPoolConfig().PromoteInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		queue:     queue,
		processor: processor,
		config:    config,
		logger:    logger,
	}
}

// Start launches the worker loops and the delayed job promoter
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("worker pool already running")
	}

	pollCtx, pollCancel := context.WithCancel(ctx)
	workCtx, workCancel := context.WithCancel(context.Background())
	p.pollCancel = pollCancel
	p.workCancel = workCancel
	p.running = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(pollCtx, workCtx, i)
	}

	p.wg.Add(1)
	go p.promoteLoop(pollCtx)

	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("maxAttempts", p.config.MaxAttempts))

	return nil
}

// Stop shuts the pool down. Polling stops immediately; jobs already in
// flight are given until the deadline of the given context to finish, then
// aborted.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.pollCancel()
	p.running = false

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.workCancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.workCancel()
		return fmt.Errorf("worker pool shutdown timed out: %w", ctx.Err())
	}
}

func (p *WorkerPool) workerLoop(pollCtx, workCtx context.Context, id int) {
	defer p.wg.Done()

	logger := p.logger.With(zap.Int("worker", id))
	logger.Debug("worker started")

	for {
		select {
		case <-pollCtx.Done():
			logger.Debug("worker stopped")
			return
		default:
		}

		env, err := p.queue.Dequeue(pollCtx, p.config.PollTimeout)
		if err != nil {
			if pollCtx.Err() != nil {
				return
			}
			logger.Error("failed to dequeue job", zap.Error(err))
			// Back off briefly so a broken Redis does not spin the loop
			select {
			case <-pollCtx.Done():
				return
			case <-time.After(p.config.PollTimeout):
			}
			continue
		}
		if env == nil {
			continue
		}

		// The envelope is already consumed from Redis; finish it on the
		// work context so shutdown cannot strand the job
		p.handle(workCtx, logger, *env)
	}
}

func (p *WorkerPool) handle(ctx context.Context, logger *zap.Logger, env JobEnvelope) {
	logger.Info("processing print job",
		zap.String("jobID", env.JobID.String()),
		zap.Int("attempt", env.Attempt))

	ctx, span := telemetry.StartSpan(ctx, "print_job.process",
		attribute.String("job.id", env.JobID.String()),
		attribute.Int("job.attempt", env.Attempt))
	defer span.End()

	err := p.processor.Process(ctx, env.JobID)
	if err == nil {
		telemetry.SetOK(span)
		return
	}
	telemetry.RecordError(span, err)

	if !isRetryable(err) {
		logger.Warn("print job failed permanently",
			zap.String("jobID", env.JobID.String()),
			zap.Error(err))
		if dlErr := p.queue.DeadLetter(ctx, env, err.Error()); dlErr != nil {
			logger.Error("failed to dead letter job", zap.Error(dlErr))
		}
		return
	}

	if env.Attempt >= p.config.MaxAttempts {
		logger.Warn("print job exhausted retries",
			zap.String("jobID", env.JobID.String()),
			zap.Int("attempts", env.Attempt),
			zap.Error(err))
		if dlErr := p.queue.DeadLetter(ctx, env, err.Error()); dlErr != nil {
			logger.Error("failed to dead letter job", zap.Error(dlErr))
		}
		return
	}

	delay := RetryBackoff(p.config.RetryBaseDelay, env.Attempt)
	logger.Warn("print job failed, retrying",
		zap.String("jobID", env.JobID.String()),
		zap.Int("attempt", env.Attempt),
		zap.Duration("delay", delay),
		zap.Error(err))
	if rErr := p.queue.ScheduleRetry(ctx, env, delay, err.Error()); rErr != nil {
		logger.Error("failed to schedule retry", zap.Error(rErr))
	}
}

func (p *WorkerPool) promoteLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PromoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			promoted, err := p.queue.PromoteDue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Error("failed to promote delayed jobs", zap.Error(err))
				continue
			}
			if promoted > 0 {
				p.logger.Debug("promoted delayed jobs", zap.Int("count", promoted))
			}
		}
	}
}

// maxRetryBackoff caps the exponential backoff between attempts
const maxRetryBackoff = 5 * time.Minute

// RetryBackoff returns the delay before the next attempt, doubling the
// base delay per completed attempt and capping at maxRetryBackoff
func RetryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultWorkerPoolConfig().RetryBaseDelay
	}
	if attempt < 1 {
		attempt = 1
	}
	backoff := base * time.Duration(1<<uint(attempt-1))
	if backoff > maxRetryBackoff || backoff <= 0 {
		backoff = maxRetryBackoff
	}
	return backoff
}

// isRetryable reports whether another attempt could succeed. Jobs that no
// longer exist or already left the QUEUED state will never process again.
func isRetryable(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case "JOB_NOT_FOUND", "INVALID_STATE":
			return false
		}
	}
	return true
}

var _ Queue = (*RedisQueue)(nil)
