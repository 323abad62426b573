// Package storage provides artifact storage backends for delivered label
// files. The delivery layer only depends on ArtifactStore; whether artifacts
// land on local disk or an S3-compatible object store is a deployment choice.
package storage

import (
	"context"
	"io"
)

// ArtifactStore persists delivered label artifacts under relative keys
type ArtifactStore interface {
	// Put stores data under the given relative key
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get retrieves a stored artifact
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored artifact; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
