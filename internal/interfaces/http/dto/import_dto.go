package dto

import (
	"time"

	"github.com/pim/backend/internal/domain/feed"
	"github.com/pim/backend/internal/infrastructure/scheduler"
)

// ImportJobResponse represents a feed import job
// @Description Feed import run with reconciliation counts
type ImportJobResponse struct {
	ID           string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Trigger      string            `json:"trigger" example:"MANUAL" enums:"SCHEDULED,MANUAL"`
	Status       string            `json:"status" example:"SUCCESS" enums:"PENDING,RUNNING,SUCCESS,PARTIAL,FAILED,CANCELLED"`
	Error        string            `json:"error,omitempty"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	NextRetryAt  *time.Time        `json:"next_retry_at,omitempty"`
	RetryCount   int               `json:"retry_count" example:"0"`
	MaxRetries   int               `json:"max_retries" example:"3"`
	TotalFetched int               `json:"total_fetched" example:"120"`
	CreatedCount int               `json:"created_count" example:"80"`
	UpdatedCount int               `json:"updated_count" example:"40"`
	FailedCount  int               `json:"failed_count" example:"0"`
	BatchErrors  []feed.BatchError `json:"batch_errors,omitempty"`
}

// NewImportJobResponse converts a scheduler job to its API representation
func NewImportJobResponse(job *scheduler.ImportJob) ImportJobResponse {
	return ImportJobResponse{
		ID:           job.ID.String(),
		Trigger:      string(job.Trigger),
		Status:       string(job.Status),
		Error:        job.Error,
		SubmittedAt:  job.SubmittedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		NextRetryAt:  job.NextRetryAt,
		RetryCount:   job.RetryCount,
		MaxRetries:   job.MaxRetries,
		TotalFetched: job.TotalFetched,
		CreatedCount: job.CreatedCount,
		UpdatedCount: job.UpdatedCount,
		FailedCount:  job.FailedCount,
		BatchErrors:  job.BatchErrors,
	}
}

// NewImportJobResponses converts a job history slice, preserving order
func NewImportJobResponses(jobs []*scheduler.ImportJob) []ImportJobResponse {
	responses := make([]ImportJobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = NewImportJobResponse(job)
	}
	return responses
}

// ImportHistoryRequest represents query parameters for the run history endpoint
type ImportHistoryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
