package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audited field names
const (
	FieldName      = "name"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldProgress  = "progress"
	FieldAssignee  = "assignee"
	FieldPriority  = "priority"
	FieldStatus    = "status"
	FieldDuration  = "duration"
	FieldOrder     = "order"
)

// ReorderReason is recorded on order audit entries
const ReorderReason = "Task reordered via drag and drop"

var (
	// ErrInvalidDateRange is returned when a mutation would leave end earlier than start + 1 day
	ErrInvalidDateRange = errors.New("end date must be at least one day after start date")
	// ErrEmptyPatch is returned when a patch carries no fields
	ErrEmptyPatch = errors.New("no fields to update")
	// ErrInvalidPatch is returned when a patch field fails validation
	ErrInvalidPatch = errors.New("invalid update")
)

// Patch is a partial update to a task. Nil fields are left untouched.
// Duration is derived and cannot be patched.
type Patch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Progress  *int
	Assignee  *string
	Priority  *models.TaskPriority
	Status    *models.TaskStatus
}

// IsEmpty reports whether no field is set
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.StartDate == nil && p.EndDate == nil && p.Progress == nil &&
		p.Assignee == nil && p.Priority == nil && p.Status == nil
}

// Validate checks field values independently of any task
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPatch)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidPatch)
	}
	if p.Priority != nil {
		if err := validation.ValidateTaskPriority(string(*p.Priority)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
	}
	if p.Status != nil {
		if err := validation.ValidateTaskStatus(string(*p.Status)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
	}
	return nil
}

// MutationResult is the outcome of an accepted update
type MutationResult struct {
	Task    *models.Task        `json:"task"`
	Entries []models.AuditEntry `json:"audit_entries"`
}

// origin describes who caused a mutation
type origin struct {
	kind      models.AuditType
	meetingID *string
}

var manualOrigin = origin{kind: models.AuditTypeManual}

// Update applies every field of p to the task and appends one audit entry per changed field.
// Any attached proposal is cleared. If the remote echo fails the task is restored and
// *EchoError is returned.
func (b *Board) Update(ctx context.Context, id string, p Patch, reason string) (*MutationResult, error) {
	return b.update(ctx, id, p, reason, manualOrigin)
}

// CommitDates applies the final dates of a drag gesture
func (b *Board) CommitDates(ctx context.Context, id string, start, end time.Time, reason string) error {
	start, end = models.NormalizeDate(start), models.NormalizeDate(end)
	_, err := b.update(ctx, id, Patch{StartDate: &start, EndDate: &end}, reason, manualOrigin)
	return err
}

func (b *Board) update(ctx context.Context, id string, p Patch, reason string, o origin) (*MutationResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applyLocked(ctx, id, p, reason, o)
}

// applyLocked performs an update with b.mu held for writing
func (b *Board) applyLocked(ctx context.Context, id string, p Patch, reason string, o origin) (*MutationResult, error) {
	reason = validation.SanitizeText(reason)

	task, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	start, end := task.StartDate, task.EndDate
	if p.StartDate != nil {
		start = models.NormalizeDate(*p.StartDate)
	}
	if p.EndDate != nil {
		end = models.NormalizeDate(*p.EndDate)
	}
	if (p.StartDate != nil || p.EndDate != nil) && end.Before(models.AddDays(start, 1)) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidDateRange,
			start.Format(models.DateLayout), end.Format(models.DateLayout))
	}

	before := task.Clone()
	now := b.now()
	rec := &recorder{at: now, reason: reason, origin: o}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		rec.diff(FieldName, task.Name, name)
		task.Name = name
	}
	if p.StartDate != nil {
		rec.diffDate(FieldStartDate, task.StartDate, start)
		task.StartDate = start
	}
	if p.EndDate != nil {
		rec.diffDate(FieldEndDate, task.EndDate, end)
		task.EndDate = end
	}
	if p.Progress != nil {
		rec.diff(FieldProgress, task.Progress, *p.Progress)
		task.Progress = *p.Progress
	}
	if p.Assignee != nil {
		assignee := strings.TrimSpace(*p.Assignee)
		rec.diff(FieldAssignee, task.Assignee, assignee)
		task.Assignee = assignee
	}
	if p.Priority != nil {
		rec.diff(FieldPriority, task.Priority, *p.Priority)
		task.Priority = *p.Priority
	}
	if p.Status != nil {
		rec.diff(FieldStatus, task.Status, *p.Status)
		task.Status = *p.Status
	}
	duration := models.DurationDays(task.StartDate, task.EndDate)
	rec.diff(FieldDuration, task.Duration, duration)
	task.Duration = duration

	task.AuditTrail = append(task.AuditTrail, rec.entries...)
	task.ProposedChanges = nil

	if err := b.echo.Publish(ctx, toUpdateRecord(task, p, reason)); err != nil {
		*task = *before
		b.logger.Error("task_update_echo_failed",
			zap.String("task_id", id),
			zap.Error(err),
		)
		return nil, &EchoError{TaskID: id, Err: err}
	}

	b.logger.Info("task_updated",
		zap.String("task_id", id),
		zap.String("origin", string(o.kind)),
		zap.Int("audit_entries", len(rec.entries)),
	)

	return &MutationResult{
		Task:    task.Clone(),
		Entries: append([]models.AuditEntry{}, rec.entries...),
	}, nil
}

// Reorder sets the display order of a main task's children. ids must be a
// permutation of the current children. Each child gets one order audit entry.
func (b *Board) Reorder(parentID string, ids []string) (*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parent, ok := b.index[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, parentID)
	}
	if !parent.IsMain() {
		return nil, fmt.Errorf("%w: %s", ErrNotMainTask, parentID)
	}
	if !samePermutation(parent.Children, ids) {
		return nil, fmt.Errorf("%w: order must list each child of %s exactly once", ErrInvalidPatch, parentID)
	}

	oldPos := make(map[string]int, len(parent.Children))
	for i, id := range parent.Children {
		oldPos[id] = i + 1
	}

	now := b.now()
	for i, id := range ids {
		child := b.index[id]
		child.AuditTrail = append(child.AuditTrail, models.AuditEntry{
			ID:        uuid.New(),
			Timestamp: now,
			Type:      models.AuditTypeManual,
			Field:     FieldOrder,
			OldValue:  fmt.Sprintf("position %d in %s", oldPos[id], parentID),
			NewValue:  fmt.Sprintf("position %d in %s", i+1, parentID),
			Reason:    ReorderReason,
		})
	}
	parent.Children = append([]string(nil), ids...)

	// Refill the arena slots held by this parent's children in the new order
	next := 0
	for i, t := range b.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			b.tasks[i] = b.index[ids[next]]
			next++
		}
	}

	b.logger.Info("tasks_reordered",
		zap.String("parent_id", parentID),
		zap.Int("children", len(ids)),
	)
	return parent.Clone(), nil
}

func samePermutation(current, proposed []string) bool {
	if len(current) != len(proposed) {
		return false
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	for _, id := range proposed {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

// recorder collects audit entries in field order
type recorder struct {
	at      time.Time
	reason  string
	origin  origin
	entries []models.AuditEntry
}

func (r *recorder) diff(field string, oldValue, newValue any) {
	if oldValue == newValue {
		return
	}
	r.entries = append(r.entries, models.AuditEntry{
		ID:        uuid.New(),
		Timestamp: r.at,
		Type:      r.origin.kind,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Reason:    r.reason,
		MeetingID: r.origin.meetingID,
	})
}

// diffDate compares calendar days and records them in wire format
func (r *recorder) diffDate(field string, oldValue, newValue time.Time) {
	if oldValue.Equal(newValue) {
		return
	}
	r.diff(field, oldValue.Format(models.DateLayout), newValue.Format(models.DateLayout))
}
