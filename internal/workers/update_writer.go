package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/queue"
	"go.uber.org/zap"
)

const (
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// UpdateWriter persists spreadsheet update records for a session
type UpdateWriter interface {
	WriteUpdates(ctx context.Context, sessionID string, records []models.UpdateRecord) error
}

// LogWriter is the default UpdateWriter; it records each update in the log
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter
func NewLogWriter(logger *zap.Logger) *LogWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogWriter{logger: logger}
}

// WriteUpdates logs every record
func (w *LogWriter) WriteUpdates(_ context.Context, sessionID string, records []models.UpdateRecord) error {
	for _, r := range records {
		fields := []zap.Field{
			zap.String("session_id", sessionID),
			zap.String("project_name", r.ProjectName),
			zap.String("reason", r.Reason),
		}
		if r.NewStartDate != nil {
			fields = append(fields, zap.String("new_start_date", *r.NewStartDate))
		}
		if r.NewEndDate != nil {
			fields = append(fields, zap.String("new_end_date", *r.NewEndDate))
		}
		if r.NewStatus != nil {
			fields = append(fields, zap.String("new_status", *r.NewStatus))
		}
		if r.NewProgress != nil {
			fields = append(fields, zap.Int("new_progress", *r.NewProgress))
		}
		w.logger.Info("spreadsheet_update", fields...)
	}
	return nil
}

// PermanentError marks a failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the job goes straight to the DLQ
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// UpdateProcessor consumes spreadsheet update jobs and hands them to an UpdateWriter.
// Failed jobs are re-enqueued with exponential backoff until their retry budget is spent,
// then dead-lettered.
type UpdateProcessor struct {
	writer   UpdateWriter
	jobQueue queue.JobQueue
	now      func() time.Time
	logger   *zap.Logger
}

// NewUpdateProcessor creates an update processor
func NewUpdateProcessor(writer UpdateWriter, jobQueue queue.JobQueue, logger *zap.Logger) *UpdateProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writer == nil {
		writer = NewLogWriter(logger)
	}
	return &UpdateProcessor{
		writer:   writer,
		jobQueue: jobQueue,
		now:      time.Now,
		logger:   logger,
	}
}

// Run processes messages until ctx is cancelled or msgs is closed
func (p *UpdateProcessor) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				p.logger.Info("message_channel_closed")
				return
			}
			if err := p.ProcessJob(ctx, msg); err != nil {
				p.logger.Error("job_processing_failed",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}

// ProcessJob settles a single message
func (p *UpdateProcessor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.GetJob()

	if job.IsExpired() {
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job %s expired", job.ID)
	}

	switch job.Type {
	case queue.JobTypeSpreadsheetUpdate:
		if err := p.writer.WriteUpdates(ctx, job.SessionID, job.Updates); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		p.logger.Debug("job_processed",
			zap.String("job_id", job.ID.String()),
			zap.Int("updates", len(job.Updates)),
		)
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *UpdateProcessor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	var permanent *PermanentError
	if errors.As(err, &permanent) || !job.CanRetry() {
		p.logger.Warn("job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (dead-lettered): %w", err)
	}

	delay := RetryDelay(job.RetryCount)
	retry := job.Retry(p.now().Add(delay))

	if p.jobQueue != nil {
		enqueueErr := p.jobQueue.Enqueue(ctx, retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				p.logger.Warn("job_ack_failed", zap.Error(ackErr))
			}
			p.logger.Info("job_retry_scheduled",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", retry.RetryCount),
				zap.Duration("delay", delay),
			)
			return fmt.Errorf("job failed (retry scheduled): %w", err)
		}
		p.logger.Warn("job_reenqueue_failed", zap.Error(enqueueErr))
	}

	// Without a delayed re-enqueue the broker redelivers immediately
	if nackErr := msg.Nack(true); nackErr != nil {
		p.logger.Warn("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (requeued): %w", err)
}

// RetryDelay is the backoff before the attempt following retryCount failures
func RetryDelay(retryCount int) time.Duration {
	delay := baseRetryDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
