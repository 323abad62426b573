package printing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/application/printing"
	domain "github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/labels"
)

func newLabelService(t *testing.T, provider labels.DataProvider) *printing.LabelService {
	t.Helper()
	registry := labels.NewProviderRegistry()
	registry.Register(provider)
	return printing.NewLabelService(registry,
		[]labels.LabelRenderer{labels.NewZPLRenderer()},
		zap.NewNop())
}

func TestLabelService_Generate(t *testing.T) {
	service := newLabelService(t, &stubProvider{})

	payload, err := service.Generate(context.Background(), domain.FormatZPL,
		uuid.New(), "item", []string{"1", "2"}, map[string]any{"copies": 2})
	require.NoError(t, err)

	zpl := string(payload)
	assert.Contains(t, zpl, "^FDItem 1^FS")
	assert.Contains(t, zpl, "^FDItem 2^FS")
	assert.Contains(t, zpl, "^PQ2")
}

func TestLabelService_GenerateZPL(t *testing.T) {
	service := newLabelService(t, &stubProvider{})

	payload, err := service.GenerateZPL(context.Background(), uuid.New(), "item", []string{"7"}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "^FDItem 7^FS")
}

func TestLabelService_EmptyEntityIDs(t *testing.T) {
	service := newLabelService(t, &stubProvider{})

	_, err := service.Generate(context.Background(), domain.FormatZPL, uuid.New(), "item", nil, nil)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, printing.ErrCodeInvalidEntityIDs, domainErr.Code)
}

func TestLabelService_UnsupportedFormat(t *testing.T) {
	service := newLabelService(t, &stubProvider{})

	tests := []struct {
		name   string
		format domain.LabelFormat
	}{
		{name: "unknown tag", format: "docx"},
		{name: "valid tag without renderer", format: domain.FormatPDF},
		{name: "empty tag", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Generate(context.Background(), tt.format, uuid.New(), "item", []string{"1"}, nil)
			require.Error(t, err)

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, printing.ErrCodeUnsupportedFormat, domainErr.Code)
		})
	}
}

func TestLabelService_ProviderFailure(t *testing.T) {
	service := newLabelService(t, &stubProvider{err: errors.New("database gone")})

	_, err := service.Generate(context.Background(), domain.FormatZPL, uuid.New(), "item", []string{"1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load label data")
}

func TestLabelService_UnknownEntityType(t *testing.T) {
	service := newLabelService(t, &stubProvider{})

	_, err := service.Generate(context.Background(), domain.FormatZPL, uuid.New(), "warehouse", []string{"1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data provider registered")
}
