package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pim/backend/internal/domain/feed"
)

// ---------------------------------------------------------------------------
// Import Job Types
// ---------------------------------------------------------------------------

// ImportTrigger identifies what scheduled an import run
type ImportTrigger string

const (
	// ImportTriggerScheduled marks runs scheduled by the cron trigger
	ImportTriggerScheduled ImportTrigger = "SCHEDULED"
	// ImportTriggerManual marks runs requested through the API
	ImportTriggerManual ImportTrigger = "MANUAL"
)

// ImportJobStatus represents the status of an import job
type ImportJobStatus string

const (
	ImportJobStatusPending   ImportJobStatus = "PENDING"
	ImportJobStatusRunning   ImportJobStatus = "RUNNING"
	ImportJobStatusSuccess   ImportJobStatus = "SUCCESS"
	ImportJobStatusPartial   ImportJobStatus = "PARTIAL"
	ImportJobStatusFailed    ImportJobStatus = "FAILED"
	ImportJobStatusCancelled ImportJobStatus = "CANCELLED"
)

// ImportJob represents a scheduled feed import run
type ImportJob struct {
	ID          uuid.UUID
	Trigger     ImportTrigger
	Status      ImportJobStatus
	Error       string
	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	// Run results
	TotalFetched int
	CreatedCount int
	UpdatedCount int
	FailedCount  int
	BatchErrors  []feed.BatchError
}

// NewImportJob creates a new import job
func NewImportJob(trigger ImportTrigger, maxRetries int) *ImportJob {
	return &ImportJob{
		ID:          uuid.New(),
		Trigger:     trigger,
		Status:      ImportJobStatusPending,
		SubmittedAt: time.Now(),
		MaxRetries:  maxRetries,
	}
}

// Start marks the job as running
func (j *ImportJob) Start() {
	now := time.Now()
	j.Status = ImportJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete stores the run result on the job and derives the terminal status
func (j *ImportJob) Complete(result *feed.ImportResult) {
	now := time.Now()
	j.TotalFetched = result.TotalFetched
	j.CreatedCount = result.CreatedCount
	j.UpdatedCount = result.UpdatedCount
	j.FailedCount = result.FailedCount
	j.BatchErrors = append([]feed.BatchError(nil), result.BatchErrors...)
	j.CompletedAt = &now

	switch {
	case len(j.BatchErrors) == 0:
		j.Status = ImportJobStatusSuccess
	case j.CreatedCount > 0 || j.UpdatedCount > 0:
		j.Status = ImportJobStatusPartial
	default:
		j.Status = ImportJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *ImportJob) Fail(err string) {
	now := time.Now()
	j.Status = ImportJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Cancel marks a job that never ran as cancelled
func (j *ImportJob) Cancel() {
	now := time.Now()
	j.Status = ImportJobStatusCancelled
	j.CompletedAt = &now
	j.Error = "scheduler stopped before the job ran"
}

// ShouldRetry returns true if the job should be retried
func (j *ImportJob) ShouldRetry() bool {
	return j.Status == ImportJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *ImportJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = ImportJobStatusPending
	// Exponential backoff: baseDelay * 2^(retryCount-1)
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute // Cap at 30 minutes
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// ImportExecutor Interface
// ---------------------------------------------------------------------------

// ImportExecutor executes import jobs
type ImportExecutor interface {
	// Execute runs the feed import and records the result on the job
	Execute(ctx context.Context, job *ImportJob) error
}

// ImportRunRecorder receives the outcome of finished import attempts.
// A retried job reports one run per attempt.
type ImportRunRecorder interface {
	RecordRun(ctx context.Context, trigger, status string, failedCount int64, duration time.Duration)
}

// ---------------------------------------------------------------------------
// ImportSchedulerConfig
// ---------------------------------------------------------------------------

// ImportSchedulerConfig holds configuration for the import scheduler
type ImportSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// MaxConcurrentJobs is the number of worker goroutines
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
}

// DefaultImportSchedulerConfig returns default configuration
func DefaultImportSchedulerConfig() ImportSchedulerConfig {
	return ImportSchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        1 * time.Minute,
	}
}

// Validate validates the configuration
func (c *ImportSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ImportScheduler
// ---------------------------------------------------------------------------

// ImportScheduler manages queued import jobs with a small worker pool
type ImportScheduler struct {
	config   ImportSchedulerConfig
	executor ImportExecutor
	recorder ImportRunRecorder
	logger   *zap.Logger

	jobs      chan *ImportJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*ImportJob
	maxHistory int
}

// NewImportScheduler creates a new import scheduler
func NewImportScheduler(config ImportSchedulerConfig, executor ImportExecutor, logger *zap.Logger) (*ImportScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ImportScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *ImportJob, 100),
		history:    make([]*ImportJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// SetRunRecorder sets the optional run outcome recorder
func (s *ImportScheduler) SetRunRecorder(recorder ImportRunRecorder) {
	s.recorder = recorder
}

// Start starts the scheduler
func (s *ImportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Start worker pool
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Import scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler. Jobs still waiting in the queue when
// the workers exit are marked cancelled and moved to history.
func (s *ImportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for workers, then drain what they never picked up
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(s.jobs)
		for job := range s.jobs {
			job.Cancel()
			s.addToHistory(job)
			s.logger.Info("Import job cancelled on shutdown",
				zap.String("job_id", job.ID.String()),
				zap.String("trigger", string(job.Trigger)),
			)
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Import scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Import scheduler stop timed out")
		return ctx.Err()
	}
}

// ScheduleImport creates a job for the given trigger and submits it
func (s *ImportScheduler) ScheduleImport(trigger ImportTrigger) (*ImportJob, error) {
	job := NewImportJob(trigger, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob submits a job for execution
func (s *ImportScheduler) SubmitJob(job *ImportJob) error {
	if err := s.trySubmit(job); err != nil {
		return err
	}

	s.logger.Debug("Import job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
	)
	return nil
}

// trySubmit enqueues a job while the scheduler is accepting work. The mutex
// is held across the send so Stop cannot observe isRunning=false and close
// the channel mid-submission.
func (s *ImportScheduler) trySubmit(job *ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker processes jobs from the queue
func (s *ImportScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Import worker started", zap.Int("worker_id", workerID))

	for {
		// Exit promptly once shutdown begins, even when jobs are queued
		select {
		case <-ctx.Done():
			s.logger.Debug("Import worker stopping", zap.Int("worker_id", workerID))
			return
		default:
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("Import worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *ImportScheduler) processJob(ctx context.Context, job *ImportJob, workerID int) {
	// Check if job is ready to run (for retries)
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		// Re-queue the job
		if err := s.trySubmit(job); err != nil {
			s.logger.Warn("Failed to re-queue import job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
		return
	}

	job.Start()
	s.logger.Info("Processing import job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.Int("retry_count", job.RetryCount),
	)

	// Create context with timeout
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	// Execute the job
	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Import job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("trigger", string(job.Trigger)),
			zap.Error(err),
		)

		// Record before ScheduleRetry resets the status to PENDING
		s.recordRun(ctx, job)

		// Check if should retry
		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Import job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			if err := s.trySubmit(job); err != nil {
				s.logger.Warn("Failed to re-queue import job for retry",
					zap.String("job_id", job.ID.String()),
					zap.Error(err),
				)
			}
		}

		// Add to history
		s.addToHistory(job)
		return
	}

	s.logger.Info("Import job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.String("status", string(job.Status)),
		zap.Int("total_fetched", job.TotalFetched),
		zap.Int("created_count", job.CreatedCount),
		zap.Int("updated_count", job.UpdatedCount),
		zap.Int("failed_count", job.FailedCount),
	)

	s.recordRun(ctx, job)

	// Add to history
	s.addToHistory(job)
}

// recordRun reports a finished attempt to the configured recorder
func (s *ImportScheduler) recordRun(ctx context.Context, job *ImportJob) {
	if s.recorder == nil {
		return
	}

	var duration time.Duration
	if job.StartedAt != nil && job.CompletedAt != nil {
		duration = job.CompletedAt.Sub(*job.StartedAt)
	}

	s.recorder.RecordRun(ctx, string(job.Trigger), string(job.Status), int64(job.FailedCount), duration)
}

// addToHistory adds a completed job to history
func (s *ImportScheduler) addToHistory(job *ImportJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*ImportJob{job}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *ImportScheduler) GetJobHistory(limit int) []*ImportJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ImportJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJob returns a job from history by id
func (s *ImportScheduler) GetJob(id uuid.UUID) (*ImportJob, error) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	for _, job := range s.history {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, ErrJobNotFound
}
