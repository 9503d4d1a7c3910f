package models

import (
	"time"
)

// ProposalState is the reconciliation state of a task proposal
type ProposalState string

const (
	ProposalStatePending  ProposalState = "pending"
	ProposalStateApproved ProposalState = "approved"
	ProposalStateSkipped  ProposalState = "skipped"
)

// TaskProposal is an externally generated suggested change to a task
type TaskProposal struct {
	ID               string        `json:"id"`
	TaskID           string        `json:"task_id"`
	ProposedStatus   *TaskStatus   `json:"proposed_status,omitempty"`
	ProposedProgress *int          `json:"proposed_progress,omitempty"`
	ProposedEndDate  *time.Time    `json:"proposed_end_date,omitempty"`
	Reason           string        `json:"reason"`
	Confidence       float64       `json:"confidence"`
	MeetingID        string        `json:"meeting_id"`
	Timestamp        time.Time     `json:"timestamp"`
	State            ProposalState `json:"state"`
}

// HasChanges reports whether the proposal carries at least one field to apply
func (p *TaskProposal) HasChanges() bool {
	return p.ProposedStatus != nil || p.ProposedProgress != nil || p.ProposedEndDate != nil
}

// Clone returns a deep copy of the proposal
func (p *TaskProposal) Clone() *TaskProposal {
	c := *p
	if p.ProposedStatus != nil {
		s := *p.ProposedStatus
		c.ProposedStatus = &s
	}
	if p.ProposedProgress != nil {
		v := *p.ProposedProgress
		c.ProposedProgress = &v
	}
	if p.ProposedEndDate != nil {
		d := *p.ProposedEndDate
		c.ProposedEndDate = &d
	}
	return &c
}
