package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ImportCronTriggerConfig holds configuration for the periodic import trigger
type ImportCronTriggerConfig struct {
	// CheckInterval is how often to evaluate whether a run is due
	CheckInterval time.Duration
	// Interval is the time between scheduled import runs
	Interval time.Duration
}

// DefaultImportCronTriggerConfig returns default configuration
func DefaultImportCronTriggerConfig() ImportCronTriggerConfig {
	return ImportCronTriggerConfig{
		CheckInterval: 1 * time.Minute,
		Interval:      24 * time.Hour,
	}
}

// ImportCronTrigger periodically schedules feed import runs. The first check
// happens right after Start, so a fresh deployment imports without waiting a
// full interval.
type ImportCronTrigger struct {
	config    ImportCronTriggerConfig
	scheduler *ImportScheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	stateMu        sync.RWMutex
	lastScheduled  time.Time
	scheduledCount int
}

// NewImportCronTrigger creates a new periodic import trigger
func NewImportCronTrigger(config ImportCronTriggerConfig, scheduler *ImportScheduler, logger *zap.Logger) *ImportCronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 1 * time.Minute
	}
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}

	return &ImportCronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the periodic trigger
func (t *ImportCronTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Import cron trigger started",
		zap.Duration("check_interval", t.config.CheckInterval),
		zap.Duration("import_interval", t.config.Interval),
	)

	return nil
}

// Stop stops the periodic trigger
func (t *ImportCronTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Import cron trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Import cron trigger stop timed out")
		return ctx.Err()
	}
}

// runLoop checks periodically whether an import run is due
func (t *ImportCronTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	// Check immediately on start
	t.checkAndSchedule()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndSchedule()
		}
	}
}

// checkAndSchedule schedules a run when the configured interval has elapsed
func (t *ImportCronTrigger) checkAndSchedule() {
	t.stateMu.RLock()
	last := t.lastScheduled
	t.stateMu.RUnlock()

	if !last.IsZero() && time.Since(last) < t.config.Interval {
		return
	}

	job, err := t.scheduler.ScheduleImport(ImportTriggerScheduled)
	if err != nil {
		t.logger.Error("Failed to schedule import run", zap.Error(err))
		return
	}

	t.stateMu.Lock()
	t.lastScheduled = time.Now()
	t.scheduledCount++
	t.stateMu.Unlock()

	t.logger.Info("Scheduled import run",
		zap.String("job_id", job.ID.String()),
		zap.Duration("interval", t.config.Interval),
	)
}

// TriggerManualImport schedules an import run outside the regular cadence.
// Manual runs do not move the scheduled cadence forward.
func (t *ImportCronTrigger) TriggerManualImport() (*ImportJob, error) {
	job, err := t.scheduler.ScheduleImport(ImportTriggerManual)
	if err != nil {
		return nil, err
	}

	t.stateMu.Lock()
	t.scheduledCount++
	t.stateMu.Unlock()

	t.logger.Info("Manual import run requested",
		zap.String("job_id", job.ID.String()),
	)
	return job, nil
}

// GetStats returns trigger statistics for monitoring
func (t *ImportCronTrigger) GetStats() map[string]interface{} {
	t.mu.Lock()
	isRunning := t.isRunning
	t.mu.Unlock()

	t.stateMu.RLock()
	defer t.stateMu.RUnlock()

	lastScheduled := ""
	if !t.lastScheduled.IsZero() {
		lastScheduled = t.lastScheduled.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"is_running":      isRunning,
		"check_interval":  t.config.CheckInterval.String(),
		"import_interval": t.config.Interval.String(),
		"last_scheduled":  lastScheduled,
		"scheduled_count": t.scheduledCount,
	}
}
