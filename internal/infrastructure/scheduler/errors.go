package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrImportAlreadyRunning is returned when another instance holds the run lock
	ErrImportAlreadyRunning = errors.New("import run already in progress")

	// ErrImportRunFailed is returned when a feed import run fails
	ErrImportRunFailed = errors.New("import run failed")
)
