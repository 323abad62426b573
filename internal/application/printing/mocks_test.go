package printing_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	domain "github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/delivery"
	"github.com/warecore/printd/internal/infrastructure/labels"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockPrintJobRepository struct {
	mock.Mock
}

func (m *MockPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PrintJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]domain.PrintJob, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status domain.JobStatus) (int64, error) {
	args := m.Called(ctx, orgID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPrintJobRepository) Save(ctx context.Context, job *domain.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type MockPrinterRepository struct {
	mock.Mock
}

func (m *MockPrinterRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Printer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Printer), args.Error(1)
}

func (m *MockPrinterRepository) FindAll(ctx context.Context) ([]domain.Printer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Printer), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, payload []byte, dest delivery.Destination) (string, error) {
	args := m.Called(ctx, payload, dest)
	return args.String(0), args.Error(1)
}

type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// stubProvider serves fixed label data for the "item" entity type
type stubProvider struct {
	data []labels.LabelData
	err  error
}

func (p *stubProvider) EntityType() string { return "item" }

func (p *stubProvider) GetData(_ context.Context, _ uuid.UUID, entityIDs []string) ([]labels.LabelData, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.data != nil {
		return p.data, nil
	}
	out := make([]labels.LabelData, len(entityIDs))
	for i, id := range entityIDs {
		out[i] = labels.LabelData{EntityID: id, Title: "Item " + id, Barcode: "SKU-" + id}
	}
	return out, nil
}
