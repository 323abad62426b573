package delivery

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/infrastructure/storage"
)

const defaultFilePrefix = "printjobs"

// FileDriver persists payloads to the artifact store instead of a physical
// printer. It serves both the no-printer case and the graceful degradation
// path when an IPP printer has no usable endpoint.
type FileDriver struct {
	store  storage.ArtifactStore
	logger *zap.Logger
}

// NewFileDriver creates a storage backed delivery driver
func NewFileDriver(store storage.ArtifactStore, logger *zap.Logger) *FileDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileDriver{store: store, logger: logger}
}

// Deliver persists the payload under a collision resistant path scoped by
// organization and prefix, and returns that relative path as the descriptor
func (d *FileDriver) Deliver(ctx context.Context, payload []byte, dest FileDestination) (string, error) {
	data := payload
	if dest.IsBase64 {
		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			return "", NewDeliveryError(ErrStorageWriteFailed, "failed to decode base64 payload", err)
		}
		data = decoded
	}

	prefix := dest.Prefix
	if prefix == "" {
		prefix = defaultFilePrefix
	}
	orgName := dest.OrgName
	if orgName == "" {
		orgName = printing.SystemOrgName
	}
	format := dest.Format
	if format == "" {
		format = string(printing.FormatZPL)
	}

	key := fmt.Sprintf("%s/%s/%s.%s", prefix, orgName, uuid.New().String(), format)

	contentType := printing.LabelFormat(format).ContentType()
	if err := d.store.Put(ctx, key, data, contentType); err != nil {
		return "", NewDeliveryError(ErrStorageWriteFailed,
			fmt.Sprintf("failed to store artifact %s", key), err)
	}

	d.logger.Debug("payload stored as artifact",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return key, nil
}
