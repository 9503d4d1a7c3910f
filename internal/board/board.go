// Package board owns the task arena of one dashboard session. It is the only
// writer of task audit trails and proposal state.
package board

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrTaskNotFound is returned when an id does not name a task on the board
	ErrTaskNotFound = errors.New("task not found")
	// ErrProposalNotFound is returned when an id does not name a known proposal
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrNotMainTask is returned for operations that only apply to main activities
	ErrNotMainTask = errors.New("task is not a main activity")
)

// Board is an arena of tasks plus the meetings and proposals recorded against them.
// Sub tasks point at their main task through ParentID; Children is kept in sync as a read model.
type Board struct {
	mu          sync.RWMutex
	tasks       []*models.Task
	index       map[string]*models.Task
	meetings    []*models.Meeting
	proposals   map[string]*models.TaskProposal
	diagnostics []hierarchy.Diagnostic

	echo   Echo
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Board
type Option func(*Board)

// WithEcho sets the remote echo used after every successful mutation
func WithEcho(e Echo) Option {
	return func(b *Board) {
		b.echo = e
	}
}

// WithClock overrides the clock used for audit timestamps
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Board) {
		b.logger = logger
	}
}

// New creates an empty board
func New(opts ...Option) *Board {
	b := &Board{
		index:     make(map[string]*models.Task),
		proposals: make(map[string]*models.TaskProposal),
		echo:      NoopEcho{},
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the board's tasks with the output of the hierarchy builder.
// Meetings and proposals recorded against the previous task set are discarded.
func (b *Board) Load(result *hierarchy.Result) error {
	if result == nil {
		return fmt.Errorf("nil hierarchy result")
	}

	index := make(map[string]*models.Task, len(result.Tasks))
	for _, t := range result.Tasks {
		if _, exists := index[t.ID]; exists {
			return &hierarchy.DuplicateIDError{IDs: []string{t.ID}}
		}
		index[t.ID] = t
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = result.Tasks
	b.index = index
	b.meetings = nil
	b.proposals = make(map[string]*models.TaskProposal)
	b.diagnostics = append([]hierarchy.Diagnostic(nil), result.Diagnostics...)

	b.logger.Info("board_loaded",
		zap.Int("tasks", len(b.tasks)),
		zap.Int("diagnostics", len(b.diagnostics)),
	)
	return nil
}

// Tasks returns copies of every task in arena order
func (b *Board) Tasks() []*models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneTasks(b.tasks)
}

// Task returns a copy of one task
func (b *Board) Task(id string) (*models.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t.Clone(), nil
}

// Meetings returns the recorded meetings in arrival order
func (b *Board) Meetings() []*models.Meeting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneMeetings(b.meetings)
}

// Proposal returns a copy of one proposal
func (b *Board) Proposal(id string) (*models.TaskProposal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}
	return p.Clone(), nil
}

// Snapshot is a consistent copy of the whole board
type Snapshot struct {
	Tasks       []*models.Task         `json:"tasks"`
	Meetings    []*models.Meeting      `json:"meetings"`
	Diagnostics []hierarchy.Diagnostic `json:"diagnostics"`
}

// Snapshot copies the board under a single read lock
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Snapshot{
		Tasks:       cloneTasks(b.tasks),
		Meetings:    cloneMeetings(b.meetings),
		Diagnostics: append([]hierarchy.Diagnostic{}, b.diagnostics...),
	}
}

// ToggleExpansion flips IsExpanded on a main task and returns the new value.
// Expansion is view state and is not audited.
func (b *Board) ToggleExpansion(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !t.IsMain() {
		return false, fmt.Errorf("%w: %s", ErrNotMainTask, id)
	}
	t.IsExpanded = !t.IsExpanded
	return t.IsExpanded, nil
}

func cloneTasks(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneMeetings(meetings []*models.Meeting) []*models.Meeting {
	out := make([]*models.Meeting, len(meetings))
	for i, m := range meetings {
		c := *m
		c.TaskProposals = make([]*models.TaskProposal, len(m.TaskProposals))
		for j, p := range m.TaskProposals {
			c.TaskProposals[j] = p.Clone()
		}
		out[i] = &c
	}
	return out
}
