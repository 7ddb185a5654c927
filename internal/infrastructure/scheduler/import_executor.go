package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	feedapp "github.com/pim/backend/internal/application/feed"
	"github.com/pim/backend/internal/domain/feed"
	"github.com/pim/backend/internal/domain/shared"
)

// runLockKey serializes import runs across all process instances
const runLockKey = "catalog-import"

// releaseTimeout bounds the lock release after the job context is gone
const releaseTimeout = 5 * time.Second

// ImportRunner runs a full feed import and reports the outcome
type ImportRunner interface {
	Run(ctx context.Context) (*feed.ImportResult, error)
}

// SnapshotExporter writes the current catalog as CSV
type SnapshotExporter interface {
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
}

// ImportExecutorImpl executes import jobs against the feed import service.
// A distributed run lock guarantees at most one run at a time even when
// several instances share the same queue schedule.
type ImportExecutorImpl struct {
	runner  ImportRunner
	lock    shared.RunLock
	lockTTL time.Duration
	logger  *zap.Logger

	// Optional snapshot archiving, wired when storage is configured
	exporter SnapshotExporter
	archiver feedapp.SnapshotArchiver
}

// NewImportExecutor creates a new import executor
func NewImportExecutor(runner ImportRunner, lock shared.RunLock, lockTTL time.Duration, logger *zap.Logger) *ImportExecutorImpl {
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}
	return &ImportExecutorImpl{
		runner:  runner,
		lock:    lock,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// SetSnapshotArchive enables CSV snapshot archiving after completed runs
func (e *ImportExecutorImpl) SetSnapshotArchive(exporter SnapshotExporter, archiver feedapp.SnapshotArchiver) {
	e.exporter = exporter
	e.archiver = archiver
}

// Execute runs the feed import and records the result on the job
func (e *ImportExecutorImpl) Execute(ctx context.Context, job *ImportJob) error {
	acquired, err := e.lock.Acquire(ctx, runLockKey, e.lockTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImportRunFailed, err)
	}
	if !acquired {
		return ErrImportAlreadyRunning
	}
	defer func() {
		// The job context may already be cancelled or past its deadline
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := e.lock.Release(releaseCtx, runLockKey); err != nil {
			e.logger.Warn("Failed to release import run lock",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}()

	result, err := e.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImportRunFailed, err)
	}

	job.Complete(result)

	if job.Status == ImportJobStatusFailed {
		return fmt.Errorf("%w: no products imported across %d batch errors", ErrImportRunFailed, len(job.BatchErrors))
	}

	e.archiveSnapshot(ctx, job)
	return nil
}

// archiveSnapshot exports the catalog and stores it under a dated key.
// Archive failures never fail the run; the import itself already succeeded.
func (e *ImportExecutorImpl) archiveSnapshot(ctx context.Context, job *ImportJob) {
	if e.exporter == nil || e.archiver == nil {
		return
	}

	var buf bytes.Buffer
	rows, err := e.exporter.WriteCSV(ctx, &buf)
	if err != nil {
		e.logger.Warn("Snapshot export failed after import run",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}

	key := feedapp.SnapshotKey(time.Now())
	if err := e.archiver.Archive(ctx, key, buf.Bytes(), feedapp.CSVContentType); err != nil {
		e.logger.Warn("Snapshot archive failed after import run",
			zap.String("job_id", job.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}

	e.logger.Info("Catalog snapshot archived",
		zap.String("job_id", job.ID.String()),
		zap.String("key", key),
		zap.Int("rows", rows),
	)
}

// Ensure ImportExecutorImpl implements the interface
var _ ImportExecutor = (*ImportExecutorImpl)(nil)
