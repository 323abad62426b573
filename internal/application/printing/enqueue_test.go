package printing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/application/printing"
	domain "github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
)

func TestEnqueueService_Enqueue(t *testing.T) {
	jobs := new(MockPrintJobRepository)
	queue := new(MockJobQueue)
	service := printing.NewEnqueueService(jobs, queue, zap.NewNop())

	printerID := uuid.New()
	userID := uuid.New()

	jobs.On("Save", mock.Anything, mock.Anything).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	job, err := service.Enqueue(context.Background(), printing.EnqueueRequest{
		OrgID:         uuid.New(),
		EntityType:    "item",
		EntityIDs:     []string{"1", "2"},
		Options:       map[string]any{"copies": 2},
		PrinterID:     &printerID,
		RequestedBy:   &userID,
		RequesterName: "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Equal(t, "item", job.EntityType)
	assert.Equal(t, []string{"1", "2"}, job.EntityIDs)
	assert.Equal(t, &printerID, job.PrinterID)
	assert.Equal(t, "alice", job.RequesterName)

	queue.AssertCalled(t, "Enqueue", mock.Anything, job.ID)
}

func TestEnqueueService_InvalidRequest(t *testing.T) {
	jobs := new(MockPrintJobRepository)
	queue := new(MockJobQueue)
	service := printing.NewEnqueueService(jobs, queue, zap.NewNop())

	_, err := service.Enqueue(context.Background(), printing.EnqueueRequest{
		OrgID:      uuid.New(),
		EntityType: "item",
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ENTITY_IDS", domainErr.Code)
	jobs.AssertNotCalled(t, "Save")
}

func TestEnqueueService_QueuePushFailure(t *testing.T) {
	jobs := new(MockPrintJobRepository)
	queue := new(MockJobQueue)
	service := printing.NewEnqueueService(jobs, queue, zap.NewNop())

	jobs.On("Save", mock.Anything, mock.Anything).Return(nil)
	queue.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := service.Enqueue(context.Background(), printing.EnqueueRequest{
		OrgID:      uuid.New(),
		EntityType: "item",
		EntityIDs:  []string{"1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to queue print job")
}

func TestEnqueueService_GetJob(t *testing.T) {
	jobs := new(MockPrintJobRepository)
	service := printing.NewEnqueueService(jobs, new(MockJobQueue), zap.NewNop())

	job, err := domain.NewPrintJob(uuid.New(), "item", []string{"1"})
	require.NoError(t, err)

	jobs.On("FindByID", mock.Anything, job.ID).Return(job, nil)

	got, err := service.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestEnqueueService_GetJobNotFound(t *testing.T) {
	jobs := new(MockPrintJobRepository)
	service := printing.NewEnqueueService(jobs, new(MockJobQueue), zap.NewNop())

	jobID := uuid.New()
	jobs.On("FindByID", mock.Anything, jobID).Return(nil, shared.ErrNotFound)

	_, err := service.GetJob(context.Background(), jobID)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, printing.ErrCodeJobNotFound, domainErr.Code)
}
