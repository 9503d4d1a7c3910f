package board

import (
	"context"
	"fmt"

	"github.com/benvon/smart-gantt/internal/models"
)

// Echo forwards an accepted mutation to the remote spreadsheet
type Echo interface {
	Publish(ctx context.Context, record models.UpdateRecord) error
}

// NoopEcho accepts every record and does nothing
type NoopEcho struct{}

// Publish implements Echo
func (NoopEcho) Publish(context.Context, models.UpdateRecord) error {
	return nil
}

// EchoFunc adapts a function to Echo
type EchoFunc func(ctx context.Context, record models.UpdateRecord) error

// Publish implements Echo
func (f EchoFunc) Publish(ctx context.Context, record models.UpdateRecord) error {
	return f(ctx, record)
}

// EchoError means the remote echo rejected a mutation and the local task was rolled back
type EchoError struct {
	TaskID string
	Err    error
}

func (e *EchoError) Error() string {
	return fmt.Sprintf("remote update for task %s failed: %v", e.TaskID, e.Err)
}

func (e *EchoError) Unwrap() error {
	return e.Err
}

// toUpdateRecord converts a patch into the spreadsheet update contract.
// Rows are keyed by task id, which renames never change.
func toUpdateRecord(task *models.Task, p Patch, reason string) models.UpdateRecord {
	rec := models.UpdateRecord{
		ProjectName: task.ID,
		Reason:      reason,
	}
	if p.StartDate != nil {
		s := p.StartDate.Format(models.DateLayout)
		rec.NewStartDate = &s
	}
	if p.EndDate != nil {
		s := p.EndDate.Format(models.DateLayout)
		rec.NewEndDate = &s
	}
	if p.Status != nil {
		s := string(*p.Status)
		rec.NewStatus = &s
	}
	if p.Progress != nil {
		v := *p.Progress
		rec.NewProgress = &v
	}
	return rec
}
