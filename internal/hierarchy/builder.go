// Package hierarchy turns flat spreadsheet rows into the two-level task tree
// shown on the Gantt chart: main activities (title rows) and their sub-activities.
package hierarchy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoadedReason is recorded on the initial system audit entry of every imported task
const LoadedReason = "Loaded from spreadsheet"

// DiagnosticKind classifies a data-shape anomaly found while building the tree
type DiagnosticKind string

const (
	// DiagnosticOrphanedSubtask means a sub row's parent could not be resolved
	DiagnosticOrphanedSubtask DiagnosticKind = "orphaned_subtask"
	// DiagnosticDefaultedDate means a date was missing or unparseable and "now" was used
	DiagnosticDefaultedDate DiagnosticKind = "defaulted_date"
	// DiagnosticClampedProgress means completion was outside 0-100
	DiagnosticClampedProgress DiagnosticKind = "clamped_progress"
	// DiagnosticInvertedDates means the end date precedes the start date
	DiagnosticInvertedDates DiagnosticKind = "inverted_dates"
)

// Diagnostic reports an anomaly that was defaulted rather than raised
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	TaskID  string         `json:"task_id"`
	Row     int            `json:"row"`
	Message string         `json:"message"`
}

// DuplicateIDError is returned when two rows share an item id
type DuplicateIDError struct {
	IDs []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task ids in spreadsheet: %s", strings.Join(e.IDs, ", "))
}

// Result is the output of a build: mains first, then subs, in encounter order
type Result struct {
	Tasks       []*models.Task `json:"tasks"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// Builder converts flat rows into hierarchical tasks
type Builder struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithClock overrides the clock used for defaulted dates and audit timestamps
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithLogger attaches a logger for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a new hierarchy builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts rows into tasks. Duplicate item ids are rejected with *DuplicateIDError.
func (b *Builder) Build(rows []models.FlatRow) (*Result, error) {
	result := &Result{Tasks: make([]*models.Task, 0, len(rows))}
	if len(rows) == 0 {
		return result, nil
	}

	if dups := duplicateIDs(rows); len(dups) > 0 {
		return nil, &DuplicateIDError{IDs: dups}
	}

	now := b.now()
	var mains, subs []*models.Task
	for i, row := range rows {
		task := b.taskFromRow(i, row, now, &result.Diagnostics)
		if task.IsMain() {
			mains = append(mains, task)
		} else {
			subs = append(subs, task)
		}
	}

	mainByID := make(map[string]*models.Task, len(mains))
	for _, m := range mains {
		mainByID[m.ID] = m
	}

	for _, sub := range subs {
		parentID, ok := ParentIDOf(sub.ID)
		parent := mainByID[parentID]
		if !ok || parent == nil {
			d := Diagnostic{
				Kind:    DiagnosticOrphanedSubtask,
				TaskID:  sub.ID,
				Row:     rowIndex(rows, sub.ID),
				Message: fmt.Sprintf("no main activity %q for sub-activity %q", parentID, sub.ID),
			}
			result.Diagnostics = append(result.Diagnostics, d)
			b.logger.Warn("orphaned_subtask",
				zap.String("task_id", sub.ID),
				zap.String("expected_parent_id", parentID),
			)
			continue
		}
		pid := parent.ID
		sub.ParentID = &pid
		parent.Children = append(parent.Children, sub.ID)
	}

	for _, m := range mains {
		// Mains with no children have nothing to expand
		m.IsExpanded = len(m.Children) > 0
	}

	result.Tasks = append(result.Tasks, mains...)
	result.Tasks = append(result.Tasks, subs...)

	b.logger.Debug("hierarchy_built",
		zap.Int("rows", len(rows)),
		zap.Int("main_tasks", len(mains)),
		zap.Int("sub_tasks", len(subs)),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)

	return result, nil
}

func (b *Builder) taskFromRow(index int, row models.FlatRow, now time.Time, diags *[]Diagnostic) *models.Task {
	id := strings.TrimSpace(row.ItemID)
	if id == "" {
		id = fmt.Sprintf("task-%d", index)
	}

	start, ok := ParseDate(row.StartDate)
	if !ok {
		start = models.NormalizeDate(now)
		*diags = append(*diags, defaultedDate(index, id, "start_date", row.StartDate))
	}
	end, ok := ParseDate(row.EndDate)
	if !ok {
		end = models.NormalizeDate(now)
		*diags = append(*diags, defaultedDate(index, id, "end_date", row.EndDate))
	}
	if end.Before(start) {
		*diags = append(*diags, Diagnostic{
			Kind:    DiagnosticInvertedDates,
			TaskID:  id,
			Row:     index,
			Message: fmt.Sprintf("end date %s precedes start date %s", end.Format(models.DateLayout), start.Format(models.DateLayout)),
		})
		end = start
	}

	progress := row.Completed
	if progress < 0 || progress > 100 {
		*diags = append(*diags, Diagnostic{
			Kind:    DiagnosticClampedProgress,
			TaskID:  id,
			Row:     index,
			Message: fmt.Sprintf("completion %d clamped to 0-100", progress),
		})
		progress = min(max(progress, 0), 100)
	}

	level := models.LevelSub
	if row.IsTitle {
		level = models.LevelMain
	}

	status := MapStatus(row.Status)
	return &models.Task{
		ID:        id,
		Name:      strings.TrimSpace(row.Name),
		StartDate: start,
		EndDate:   end,
		Duration:  models.DurationDays(start, end),
		Progress:  progress,
		Assignee:  strings.TrimSpace(row.Team),
		Priority:  MapPriority(row.ActivityType),
		Status:    status,
		Level:     level,
		AuditTrail: []models.AuditEntry{{
			ID:        uuid.New(),
			Timestamp: now,
			Type:      models.AuditTypeSystem,
			Field:     "status",
			OldValue:  models.TaskStatusNotStarted,
			NewValue:  status,
			Reason:    LoadedReason,
		}},
	}
}

// ParentIDOf returns the dotted-prefix parent id of a sub-activity id ("1.2" -> "1").
// The boolean is false when the id carries no dot.
func ParentIDOf(id string) (string, bool) {
	prefix, _, found := strings.Cut(id, ".")
	if !found || prefix == "" {
		return "", false
	}
	return prefix, true
}

func defaultedDate(index int, id, field string, raw *string) Diagnostic {
	value := "<missing>"
	if raw != nil {
		value = *raw
	}
	return Diagnostic{
		Kind:    DiagnosticDefaultedDate,
		TaskID:  id,
		Row:     index,
		Message: fmt.Sprintf("%s %q defaulted to today", field, value),
	}
}

func duplicateIDs(rows []models.FlatRow) []string {
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.ItemID)
		if id == "" {
			continue
		}
		seen[id]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

func rowIndex(rows []models.FlatRow, id string) int {
	for i, row := range rows {
		if strings.TrimSpace(row.ItemID) == id {
			return i
		}
	}
	return -1
}
