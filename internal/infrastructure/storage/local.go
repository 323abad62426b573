package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalStoreConfig contains configuration for filesystem artifact storage
type LocalStoreConfig struct {
	// BasePath is the root directory for artifact storage
	// Default: /data/printjobs
	BasePath string
	// Logger for operations
	Logger *zap.Logger
}

// LocalStore stores artifacts on the local file system
type LocalStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalStore creates a new file system based artifact store
func NewLocalStore(cfg *LocalStoreConfig) (*LocalStore, error) {
	if cfg == nil {
		cfg = &LocalStoreConfig{}
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/data/printjobs"
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LocalStore{
		basePath: basePath,
		logger:   logger,
	}, nil
}

// Put stores data under the given relative key
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	s.logger.Debug("artifact stored",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

// Get retrieves a stored artifact
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return file, nil
}

// Delete removes a stored artifact
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted, not an error
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// CleanupOlderThan removes artifacts older than the specified duration and
// returns how many were deleted
func (s *LocalStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("deleted old artifact", zap.String("path", path))
			}
		}
		return nil
	})

	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return deleted, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("artifact cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))

	return deleted, nil
}

// resolve maps a relative key to an absolute path under BasePath,
// rejecting traversal attempts
func (s *LocalStore) resolve(key string) (string, error) {
	cleanKey := filepath.Clean(key)
	if filepath.IsAbs(cleanKey) || containsDotDot(key) {
		s.logger.Warn("blocked potentially malicious key", zap.String("key", key))
		return "", fmt.Errorf("invalid artifact key: %s", key)
	}

	fullPath := filepath.Join(s.basePath, cleanKey)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve artifact path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		s.logger.Warn("path escape attempt blocked",
			zap.String("key", key),
			zap.String("absPath", absPath))
		return "", fmt.Errorf("invalid artifact key: %s", key)
	}

	return fullPath, nil
}

// containsDotDot checks if a key contains ".." components
func containsDotDot(key string) bool {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

// Ensure LocalStore implements ArtifactStore
var _ ArtifactStore = (*LocalStore)(nil)
