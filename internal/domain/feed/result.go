package feed

import "time"

// ---------------------------------------------------------------------------
// ImportStatus
// ---------------------------------------------------------------------------

// ImportStatus represents the outcome of a reconciliation run
type ImportStatus string

const (
	// ImportStatusPending indicates the run has not started yet
	ImportStatusPending ImportStatus = "PENDING"
	// ImportStatusRunning indicates the run is in progress
	ImportStatusRunning ImportStatus = "RUNNING"
	// ImportStatusSuccess indicates every batch succeeded
	ImportStatusSuccess ImportStatus = "SUCCESS"
	// ImportStatusPartial indicates some batches failed
	ImportStatusPartial ImportStatus = "PARTIAL"
	// ImportStatusFailed indicates no batch succeeded
	ImportStatusFailed ImportStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusRunning, ImportStatusSuccess,
		ImportStatusPartial, ImportStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of ImportStatus
func (s ImportStatus) String() string {
	return string(s)
}

// IsFinal returns true if the status is a terminal state
func (s ImportStatus) IsFinal() bool {
	switch s {
	case ImportStatusSuccess, ImportStatusPartial, ImportStatusFailed:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// ImportResult
// ---------------------------------------------------------------------------

// BatchError records one failed batch. Skip identifies the batch by the
// offset it was fetched at.
type BatchError struct {
	// Skip is the offset of the failed batch
	Skip int `json:"skip"`
	// Message is the error description
	Message string `json:"message"`
}

// ImportResult aggregates the outcome of one reconciliation run. A run
// finishes even when batches fail; failed batches are listed in BatchErrors.
type ImportResult struct {
	// Status is the derived overall outcome
	Status ImportStatus `json:"status"`
	// TotalFetched is the number of records read from the source
	TotalFetched int `json:"total_fetched"`
	// CreatedCount is the number of products created
	CreatedCount int `json:"created_count"`
	// UpdatedCount is the number of products updated
	UpdatedCount int `json:"updated_count"`
	// FailedCount is the number of records in failed batches
	FailedCount int `json:"failed_count"`
	// BatchErrors lists the failed batches
	BatchErrors []BatchError `json:"batch_errors,omitempty"`
	// StartedAt is when the run began
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the run finished
	CompletedAt time.Time `json:"completed_at"`
}

// NewImportResult creates a result in the running state
func NewImportResult() *ImportResult {
	return &ImportResult{
		Status:    ImportStatusRunning,
		StartedAt: time.Now(),
	}
}

// RecordBatchError marks a batch of the given size as failed
func (r *ImportResult) RecordBatchError(skip, size int, message string) {
	r.FailedCount += size
	r.BatchErrors = append(r.BatchErrors, BatchError{Skip: skip, Message: message})
}

// Finalize derives the terminal status and stamps the completion time.
// FAILED when nothing succeeded, PARTIAL when some batches failed, SUCCESS
// otherwise.
func (r *ImportResult) Finalize() {
	r.CompletedAt = time.Now()

	switch {
	case len(r.BatchErrors) == 0:
		r.Status = ImportStatusSuccess
	case r.CreatedCount == 0 && r.UpdatedCount == 0:
		r.Status = ImportStatusFailed
	default:
		r.Status = ImportStatusPartial
	}
}

// Duration returns how long the run took
func (r *ImportResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
