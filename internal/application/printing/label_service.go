// Package printing contains the application services that orchestrate label
// rendering, delivery and print job state transitions.
package printing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/labels"
)

// Error codes surfaced by the label service
const (
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInvalidEntityIDs  = "INVALID_ENTITY_IDS"
)

// LabelService produces label payloads for a given format and entity
// selection. It is stateless; rendering is a pure function of its inputs plus
// read access to entity data through the provider registry.
type LabelService struct {
	providers *labels.ProviderRegistry
	renderers map[printing.LabelFormat]labels.LabelRenderer
	logger    *zap.Logger
}

// NewLabelService creates a label service over the given providers and
// format renderers
func NewLabelService(providers *labels.ProviderRegistry, renderers []labels.LabelRenderer, logger *zap.Logger) *LabelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byFormat := make(map[printing.LabelFormat]labels.LabelRenderer, len(renderers))
	for _, renderer := range renderers {
		if renderer != nil {
			byFormat[renderer.Format()] = renderer
		}
	}
	return &LabelService{
		providers: providers,
		renderers: byFormat,
		logger:    logger,
	}
}

// Generate renders a label payload for the given format and entity selection
func (s *LabelService) Generate(ctx context.Context, format printing.LabelFormat, orgID uuid.UUID, entityType string, entityIDs []string, options map[string]any) ([]byte, error) {
	if len(entityIDs) == 0 {
		return nil, shared.NewDomainError(ErrCodeInvalidEntityIDs, "entity ids must not be empty")
	}

	renderer, ok := s.renderers[format]
	if !ok || !format.IsValid() {
		return nil, shared.NewDomainError(ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported label format: %s", format))
	}

	data, err := s.providers.LoadData(ctx, orgID, entityType, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load label data: %w", err)
	}

	payload, err := renderer.Render(ctx, data, labels.ParseOptions(options))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("label payload generated",
		zap.String("format", string(format)),
		zap.String("entityType", entityType),
		zap.Int("entities", len(entityIDs)),
		zap.Int("bytes", len(payload)))

	return payload, nil
}

// GenerateZPL is a convenience wrapper for Generate with the zpl format
func (s *LabelService) GenerateZPL(ctx context.Context, orgID uuid.UUID, entityType string, entityIDs []string, options map[string]any) ([]byte, error) {
	return s.Generate(ctx, printing.FormatZPL, orgID, entityType, entityIDs, options)
}
