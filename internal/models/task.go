package models

import (
	"time"
)

// TaskStatus represents the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "Not Started"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusDelayed    TaskStatus = "Delayed"
	TaskStatusBlocked    TaskStatus = "Blocked"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// TaskLevel is the depth of a task in the two-level hierarchy
type TaskLevel int

const (
	// LevelMain is a top-level project phase
	LevelMain TaskLevel = 0
	// LevelSub is a sub-activity of exactly one main task
	LevelSub TaskLevel = 1
)

// Task represents a single bar on the Gantt chart
type Task struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	Duration        int           `json:"duration"`
	Progress        int           `json:"progress"`
	Assignee        string        `json:"assignee,omitempty"`
	Priority        TaskPriority  `json:"priority"`
	Status          TaskStatus    `json:"status"`
	Level           TaskLevel     `json:"level"`
	ParentID        *string       `json:"parent_id,omitempty"`
	IsExpanded      bool          `json:"is_expanded"`
	Children        []string      `json:"children,omitempty"` // Read model; ParentID on the child is authoritative
	Dependencies    []string      `json:"dependencies,omitempty"`
	AuditTrail      []AuditEntry  `json:"audit_trail"`
	ProposedChanges *TaskProposal `json:"proposed_changes,omitempty"`
}

// IsMain reports whether the task is a level-0 main activity
func (t *Task) IsMain() bool {
	return t.Level == LevelMain
}

// Clone returns a deep copy of the task so callers can snapshot or hand out state safely
func (t *Task) Clone() *Task {
	c := *t
	if t.ParentID != nil {
		parent := *t.ParentID
		c.ParentID = &parent
	}
	c.Children = append([]string(nil), t.Children...)
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.AuditTrail = append([]AuditEntry(nil), t.AuditTrail...)
	if t.ProposedChanges != nil {
		c.ProposedChanges = t.ProposedChanges.Clone()
	}
	return &c
}

// AllTaskStatuses lists every status in display order
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusNotStarted,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusDelayed,
		TaskStatusBlocked,
	}
}

// AllTaskPriorities lists every priority from highest to lowest
func AllTaskPriorities() []TaskPriority {
	return []TaskPriority{TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow}
}
