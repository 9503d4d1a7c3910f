// Package drag tracks a pointer gesture against a task bar and commits the
// resulting date change exactly once when the pointer is released.
package drag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"go.uber.org/zap"
)

// Mode is the kind of gesture in progress
type Mode string

const (
	ModeMove        Mode = "move"
	ModeResizeStart Mode = "resize-start"
	ModeResizeEnd   Mode = "resize-end"
)

const (
	// MoveReason is recorded on audit entries produced by a move gesture
	MoveReason = "Task moved via drag and drop"
	// ResizeReason is recorded on audit entries produced by either resize gesture
	ResizeReason = "Task resized via drag and drop"
)

var (
	// ErrDragInProgress is returned when a gesture starts while another is active
	ErrDragInProgress = errors.New("a drag is already in progress")
	// ErrNotDragging is returned for move/release/cancel without an active gesture
	ErrNotDragging = errors.New("no drag in progress")
	// ErrInvalidScale is returned when pixels per day is not positive
	ErrInvalidScale = errors.New("pixels per day must be positive")
)

// ParseMode validates a gesture mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMove, ModeResizeStart, ModeResizeEnd:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid drag mode: %s (must be 'move', 'resize-start', or 'resize-end')", s)
	}
}

// Reason returns the audit reason for a gesture mode
func (m Mode) Reason() string {
	if m == ModeMove {
		return MoveReason
	}
	return ResizeReason
}

// Committer applies the final dates of a gesture
type Committer interface {
	CommitDates(ctx context.Context, taskID string, start, end time.Time, reason string) error
}

// Candidate is the uncommitted result of the gesture so far
type Candidate struct {
	TaskID    string    `json:"task_id"`
	Mode      Mode      `json:"mode"`
	Start     time.Time `json:"start_date"`
	End       time.Time `json:"end_date"`
	Duration  int       `json:"duration"`
	DeltaDays int       `json:"delta_days"`
}

// gesture is the snapshot taken on pointer down
type gesture struct {
	taskID       string
	mode         Mode
	originStart  time.Time
	originEnd    time.Time
	originX      float64
	pixelsPerDay float64
	deltaDays    int
}

// Machine is the drag state machine for one board. A nil gesture means idle.
type Machine struct {
	mu        sync.Mutex
	active    *gesture
	committer Committer
	logger    *zap.Logger
}

// NewMachine creates an idle machine that commits through c
func NewMachine(c Committer, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{committer: c, logger: logger}
}

// Dragging reports whether a gesture is active
func (m *Machine) Dragging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// PointerDown snapshots the task's dates and enters the dragging state.
// The task itself is not modified.
func (m *Machine) PointerDown(task *models.Task, mode Mode, x, pixelsPerDay float64) (Candidate, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return Candidate{}, err
	}
	if pixelsPerDay <= 0 || math.IsNaN(pixelsPerDay) || math.IsInf(pixelsPerDay, 0) {
		return Candidate{}, ErrInvalidScale
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return Candidate{}, ErrDragInProgress
	}
	m.active = &gesture{
		taskID:       task.ID,
		mode:         mode,
		originStart:  task.StartDate,
		originEnd:    task.EndDate,
		originX:      x,
		pixelsPerDay: pixelsPerDay,
	}

	m.logger.Debug("drag_started",
		zap.String("task_id", task.ID),
		zap.String("mode", string(mode)),
	)
	return m.active.candidate(), nil
}

// PointerMove updates the delta from the pointer origin and returns the new candidate
func (m *Machine) PointerMove(x float64) (Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Candidate{}, ErrNotDragging
	}
	m.active.deltaDays = int(math.Round((x - m.active.originX) / m.active.pixelsPerDay))
	return m.active.candidate(), nil
}

// PointerUp commits the candidate from the last processed move and returns to idle.
// The machine is idle afterwards even when the commit fails.
func (m *Machine) PointerUp(ctx context.Context) (Candidate, error) {
	m.mu.Lock()
	g := m.active
	m.active = nil
	m.mu.Unlock()

	if g == nil {
		return Candidate{}, ErrNotDragging
	}

	c := g.candidate()
	if err := m.committer.CommitDates(ctx, c.TaskID, c.Start, c.End, g.mode.Reason()); err != nil {
		m.logger.Warn("drag_commit_failed",
			zap.String("task_id", c.TaskID),
			zap.String("mode", string(c.Mode)),
			zap.Error(err),
		)
		return c, fmt.Errorf("failed to commit drag: %w", err)
	}

	m.logger.Debug("drag_committed",
		zap.String("task_id", c.TaskID),
		zap.String("mode", string(c.Mode)),
		zap.Int("delta_days", c.DeltaDays),
	)
	return c, nil
}

// Cancel abandons the gesture without committing
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNotDragging
	}
	m.logger.Debug("drag_cancelled", zap.String("task_id", m.active.taskID))
	m.active = nil
	return nil
}

func (g *gesture) candidate() Candidate {
	start, end := Apply(g.mode, g.originStart, g.originEnd, g.deltaDays)
	return Candidate{
		TaskID:    g.taskID,
		Mode:      g.mode,
		Start:     start,
		End:       end,
		Duration:  models.DurationDays(start, end),
		DeltaDays: g.deltaDays,
	}
}

// Apply shifts the origin dates by delta days according to mode.
// The result always keeps end at least one day after start, so zero-span tasks widen to one day.
func Apply(mode Mode, start, end time.Time, delta int) (time.Time, time.Time) {
	switch mode {
	case ModeResizeStart:
		newStart := models.AddDays(start, delta)
		if limit := models.AddDays(end, -1); newStart.After(limit) {
			newStart = limit
		}
		return newStart, end
	case ModeResizeEnd:
		newEnd := models.AddDays(end, delta)
		if limit := models.AddDays(start, 1); newEnd.Before(limit) {
			newEnd = limit
		}
		return start, newEnd
	default:
		newStart, newEnd := models.AddDays(start, delta), models.AddDays(end, delta)
		if limit := models.AddDays(newStart, 1); newEnd.Before(limit) {
			newEnd = limit
		}
		return newStart, newEnd
	}
}
