package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/validation"
	"go.uber.org/zap"
)

// ErrNoUpdates is returned when a batch carries no valid records
var ErrNoUpdates = errors.New("no valid updates")

// UpdatePublisher turns task changes into spreadsheet update jobs.
// It satisfies board.Echo.
type UpdatePublisher struct {
	queue     JobQueue
	sessionID string
	logger    *zap.Logger
}

// NewUpdatePublisher creates a publisher bound to a session
func NewUpdatePublisher(q JobQueue, sessionID string, logger *zap.Logger) *UpdatePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdatePublisher{queue: q, sessionID: sessionID, logger: logger}
}

// Publish validates and enqueues a single update record
func (p *UpdatePublisher) Publish(ctx context.Context, record models.UpdateRecord) error {
	if err := validation.Validate.Struct(record); err != nil {
		return fmt.Errorf("invalid update record: %s", validation.FirstError(err))
	}
	job := NewUpdateJob(p.sessionID, []models.UpdateRecord{record})
	if err := p.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue update: %w", err)
	}
	p.logger.Debug("update_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("project_name", record.ProjectName),
	)
	return nil
}

// PublishBatch enqueues the valid records of a batch as one job and returns how many were accepted.
// Invalid records are skipped and logged.
func (p *UpdatePublisher) PublishBatch(ctx context.Context, records []models.UpdateRecord) (int, error) {
	valid := make([]models.UpdateRecord, 0, len(records))
	for i, record := range records {
		if err := validation.Validate.Struct(record); err != nil {
			p.logger.Warn("update_record_rejected",
				zap.Int("index", i),
				zap.String("project_name", record.ProjectName),
				zap.String("reason", validation.FirstError(err)),
			)
			continue
		}
		valid = append(valid, record)
	}
	if len(valid) == 0 {
		return 0, ErrNoUpdates
	}

	job := NewUpdateJob(p.sessionID, valid)
	if err := p.queue.Enqueue(ctx, job); err != nil {
		return 0, fmt.Errorf("failed to enqueue updates: %w", err)
	}
	p.logger.Info("update_batch_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.Int("accepted", len(valid)),
		zap.Int("rejected", len(records)-len(valid)),
	)
	return len(valid), nil
}
