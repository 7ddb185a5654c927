// Package storage provides object storage implementations for snapshot archiving.
package storage

import (
	"context"
	"errors"

	feedapp "github.com/pim/backend/internal/application/feed"
	"go.uber.org/zap"
)

// StubObjectStorage is a no-op implementation of SnapshotArchiver.
// Use this when snapshot archiving is disabled or no storage backend is
// configured; snapshots are logged and discarded.
type StubObjectStorage struct {
	logger *zap.Logger
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage(logger *zap.Logger) *StubObjectStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubObjectStorage{logger: logger}
}

// Ensure StubObjectStorage implements SnapshotArchiver
var _ feedapp.SnapshotArchiver = (*StubObjectStorage)(nil)

// Archive discards the snapshot and logs that it did so
func (s *StubObjectStorage) Archive(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.logger.Debug("Snapshot archiving disabled, discarding snapshot",
		zap.String("key", storageKey),
		zap.Int("bytes", len(data)),
	)
	return nil
}
