package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warecore/printd/internal/domain/shared"
)

type retryCall struct {
	env       JobEnvelope
	delay     time.Duration
	lastError string
	ctxErr    error
}

type deadCall struct {
	env       JobEnvelope
	lastError string
	ctxErr    error
}

// fakeQueue serves envelopes from a channel and records retry and dead
// letter calls together with the liveness of the context they arrived on
type fakeQueue struct {
	envs chan JobEnvelope

	mu      sync.Mutex
	retries []retryCall
	deads   []deadCall
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{envs: make(chan JobEnvelope, 8)}
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*JobEnvelope, error) {
	select {
	case env := <-q.envs:
		return &env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (q *fakeQueue) ScheduleRetry(ctx context.Context, env JobEnvelope, delay time.Duration, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries = append(q.retries, retryCall{env: env, delay: delay, lastError: lastError, ctxErr: ctx.Err()})
	return nil
}

func (q *fakeQueue) DeadLetter(ctx context.Context, env JobEnvelope, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deads = append(q.deads, deadCall{env: env, lastError: lastError, ctxErr: ctx.Err()})
	return nil
}

func (q *fakeQueue) PromoteDue(ctx context.Context) (int, error) {
	return 0, nil
}

func (q *fakeQueue) retryCalls() []retryCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]retryCall(nil), q.retries...)
}

func (q *fakeQueue) deadCalls() []deadCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]deadCall(nil), q.deads...)
}

type stubProcessor struct {
	err error

	mu    sync.Mutex
	calls int
}

func (p *stubProcessor) Process(ctx context.Context, jobID uuid.UUID) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.err
}

func testPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:         1,
		MaxAttempts:     3,
		RetryBaseDelay:  time.Second,
		PollTimeout:     10 * time.Millisecond,
		PromoteInterval: time.Hour,
	}
}

func TestHandleSuccessTouchesNothing(t *testing.T) {
	q := newFakeQueue()
	pool := NewWorkerPool(q, &stubProcessor{}, testPoolConfig(), nil)

	pool.handle(context.Background(), pool.logger, JobEnvelope{JobID: uuid.New(), Attempt: 1})

	assert.Empty(t, q.retryCalls())
	assert.Empty(t, q.deadCalls())
}

func TestHandleRetryableErrorSchedulesRetry(t *testing.T) {
	q := newFakeQueue()
	pool := NewWorkerPool(q, &stubProcessor{err: errors.New("dial tcp: connection refused")}, testPoolConfig(), nil)

	env := JobEnvelope{JobID: uuid.New(), Attempt: 2}
	pool.handle(context.Background(), pool.logger, env)

	retries := q.retryCalls()
	require.Len(t, retries, 1)
	assert.Equal(t, env.JobID, retries[0].env.JobID)
	assert.Equal(t, 2, retries[0].env.Attempt)
	assert.Equal(t, RetryBackoff(time.Second, 2), retries[0].delay)
	assert.Equal(t, "dial tcp: connection refused", retries[0].lastError)
	assert.Empty(t, q.deadCalls())
}

func TestHandleExhaustedAttemptsDeadLetters(t *testing.T) {
	q := newFakeQueue()
	pool := NewWorkerPool(q, &stubProcessor{err: errors.New("still broken")}, testPoolConfig(), nil)

	env := JobEnvelope{JobID: uuid.New(), Attempt: 3}
	pool.handle(context.Background(), pool.logger, env)

	deads := q.deadCalls()
	require.Len(t, deads, 1)
	assert.Equal(t, env.JobID, deads[0].env.JobID)
	assert.Equal(t, "still broken", deads[0].lastError)
	assert.Empty(t, q.retryCalls())
}

func TestHandleNonRetryableErrorDeadLettersImmediately(t *testing.T) {
	q := newFakeQueue()
	pool := NewWorkerPool(q, &stubProcessor{err: shared.NewDomainError("JOB_NOT_FOUND", "print job not found")}, testPoolConfig(), nil)

	pool.handle(context.Background(), pool.logger, JobEnvelope{JobID: uuid.New(), Attempt: 1})

	require.Len(t, q.deadCalls(), 1)
	assert.Empty(t, q.retryCalls())
}

// blockingProcessor parks in Process until released and records whether its
// context was still live when it finished
type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
	err     error

	mu        sync.Mutex
	ctxAtExit error
}

func newBlockingProcessor(err error) *blockingProcessor {
	return &blockingProcessor{
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     err,
	}
}

func (p *blockingProcessor) Process(ctx context.Context, jobID uuid.UUID) error {
	close(p.started)
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	p.mu.Lock()
	p.ctxAtExit = ctx.Err()
	p.mu.Unlock()
	return p.err
}

func (p *blockingProcessor) exitCtxErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctxAtExit
}

func TestStopWaitsForInFlightJob(t *testing.T) {
	q := newFakeQueue()
	proc := newBlockingProcessor(errors.New("transient"))
	pool := NewWorkerPool(q, proc, testPoolConfig(), nil)

	require.NoError(t, pool.Start(context.Background()))
	q.envs <- JobEnvelope{JobID: uuid.New(), Attempt: 1}

	select {
	case <-proc.started:
	case <-time.After(time.Second):
		t.Fatal("processor never picked up the job")
	}

	stopErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stopErr <- pool.Stop(ctx)
	}()

	// Let Stop begin waiting before the job finishes
	time.Sleep(50 * time.Millisecond)
	close(proc.release)

	select {
	case err := <-stopErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the job finished")
	}

	// The in-flight job must have kept a live context through shutdown,
	// and its retry must have been recorded on a live context too
	assert.NoError(t, proc.exitCtxErr())
	retries := q.retryCalls()
	require.Len(t, retries, 1)
	assert.NoError(t, retries[0].ctxErr)
}

func TestStopDeadlineAbortsStuckJob(t *testing.T) {
	q := newFakeQueue()
	proc := newBlockingProcessor(errors.New("stuck"))
	pool := NewWorkerPool(q, proc, testPoolConfig(), nil)

	require.NoError(t, pool.Start(context.Background()))
	q.envs <- JobEnvelope{JobID: uuid.New(), Attempt: 1}

	select {
	case <-proc.started:
	case <-time.After(time.Second):
		t.Fatal("processor never picked up the job")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Stop(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown timed out")

	// The expired deadline cancels the work context, releasing the job
	require.Eventually(t, func() bool { return proc.exitCtxErr() != nil },
		time.Second, 5*time.Millisecond, "stuck job was not aborted after the Stop deadline")
	assert.ErrorIs(t, proc.exitCtxErr(), context.Canceled)
}

func TestRetryBackoff(t *testing.T) {
	base := 5 * time.Second

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first attempt", attempt: 1, expected: 5 * time.Second},
		{name: "second attempt", attempt: 2, expected: 10 * time.Second},
		{name: "third attempt", attempt: 3, expected: 20 * time.Second},
		{name: "fifth attempt", attempt: 5, expected: 80 * time.Second},
		{name: "capped at five minutes", attempt: 12, expected: 5 * time.Minute},
		{name: "zero attempt treated as first", attempt: 0, expected: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetryBackoff(base, tt.attempt))
		})
	}
}

func TestRetryBackoffDefaultsBase(t *testing.T) {
	assert.Equal(t, 5*time.Second, RetryBackoff(0, 1))
}

func TestRetryBackoffOverflowCaps(t *testing.T) {
	// A large enough shift overflows time.Duration and must still cap
	assert.Equal(t, 5*time.Minute, RetryBackoff(time.Second, 80))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "plain error",
			err:       errors.New("connection refused"),
			retryable: true,
		},
		{
			name:      "job not found",
			err:       shared.NewDomainError("JOB_NOT_FOUND", "print job not found"),
			retryable: false,
		},
		{
			name:      "invalid state",
			err:       shared.NewDomainError("INVALID_STATE", "job already finished"),
			retryable: false,
		},
		{
			name:      "other domain error",
			err:       shared.NewDomainError("CONNECT_FAILED", "dial tcp: refused"),
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryable(tt.err))
		})
	}
}
