package queue

import (
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSpreadsheetUpdate carries task changes to the spreadsheet writer
	JobTypeSpreadsheetUpdate JobType = "spreadsheet_update"
)

// DefaultMaxRetries is the retry budget of a new job
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID             `json:"id"`
	Type       JobType               `json:"type"`
	SessionID  string                `json:"session_id,omitempty"`
	Updates    []models.UpdateRecord `json:"updates"`
	NotBefore  *time.Time            `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time            `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any        `json:"metadata,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	RetryCount int                   `json:"retry_count"`
	MaxRetries int                   `json:"max_retries"`
}

// NewUpdateJob creates a spreadsheet update job
func NewUpdateJob(sessionID string, updates []models.UpdateRecord) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeSpreadsheetUpdate,
		SessionID:  sessionID,
		Updates:    updates,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job scheduled no earlier than notBefore with the retry count bumped
func (j *Job) Retry(notBefore time.Time) *Job {
	next := *j
	next.NotBefore = &notBefore
	next.RetryCount = j.RetryCount + 1
	return &next
}
