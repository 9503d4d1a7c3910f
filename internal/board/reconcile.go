package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProposalReasonPrefix prefixes the audit reason of an approved proposal
const ProposalReasonPrefix = "Applied AI proposal: "

// MaxReasonLength matches the reason limit of the spreadsheet update contract
const MaxReasonLength = 2000

// MaxProposalReasonLength bounds a proposal reason so its prefixed audit reason still fits MaxReasonLength
const MaxProposalReasonLength = MaxReasonLength - len(ProposalReasonPrefix)

// DiagnosticUnknownTask means a meeting proposed a change to a task that is not on the board
const DiagnosticUnknownTask hierarchy.DiagnosticKind = "unknown_task"

var (
	// ErrDuplicateProposal is returned when a meeting reuses a proposal id already on the board
	ErrDuplicateProposal = errors.New("duplicate proposal id")
	// ErrEmptyProposal is returned when approving a proposal with no fields to apply
	ErrEmptyProposal = errors.New("proposal carries no changes")
)

// AddMeeting records a meeting and attaches its proposals to their tasks.
// Proposals for unknown tasks are dropped and reported. For each task the first
// proposal in the meeting becomes its ProposedChanges, replacing any earlier one.
func (b *Board) AddMeeting(m *models.Meeting) (*models.Meeting, []hierarchy.Diagnostic, error) {
	if m == nil {
		return nil, nil, fmt.Errorf("nil meeting")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	meeting := *m
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Date.IsZero() {
		meeting.Date = now
	}
	meeting.Title = strings.TrimSpace(meeting.Title)

	var diags []hierarchy.Diagnostic
	seen := make(map[string]bool)
	kept := make([]*models.TaskProposal, 0, len(m.TaskProposals))
	for _, in := range m.TaskProposals {
		if in == nil {
			continue
		}
		p := in.Clone()
		if _, ok := b.index[p.TaskID]; !ok {
			diags = append(diags, hierarchy.Diagnostic{
				Kind:    DiagnosticUnknownTask,
				TaskID:  p.TaskID,
				Row:     -1,
				Message: fmt.Sprintf("meeting %q proposed a change to unknown task %q", meeting.ID, p.TaskID),
			})
			b.logger.Warn("proposal_for_unknown_task",
				zap.String("meeting_id", meeting.ID),
				zap.String("task_id", p.TaskID),
			)
			continue
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, dup := b.proposals[p.ID]; dup || seen[p.ID] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateProposal, p.ID)
		}
		seen[p.ID] = true
		p.MeetingID = meeting.ID
		p.State = models.ProposalStatePending
		p.Confidence = min(max(p.Confidence, 0), 1)
		p.Reason = truncateRunes(strings.TrimSpace(p.Reason), MaxProposalReasonLength)
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}
		if p.ProposedEndDate != nil {
			d := models.NormalizeDate(*p.ProposedEndDate)
			p.ProposedEndDate = &d
		}
		kept = append(kept, p)
	}
	meeting.TaskProposals = kept

	attached := make(map[string]bool)
	for _, p := range kept {
		b.proposals[p.ID] = p
		if attached[p.TaskID] {
			continue
		}
		attached[p.TaskID] = true
		b.index[p.TaskID].ProposedChanges = p.Clone()
	}
	b.meetings = append(b.meetings, &meeting)
	b.diagnostics = append(b.diagnostics, diags...)

	b.logger.Info("meeting_added",
		zap.String("meeting_id", meeting.ID),
		zap.Int("proposals", len(kept)),
		zap.Int("dropped_proposals", len(diags)),
	)

	return cloneMeetings([]*models.Meeting{&meeting})[0], diags, nil
}

// Proposals returns every proposal in the given state, or all of them when state is empty
func (b *Board) Proposals(state models.ProposalState) []*models.TaskProposal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*models.TaskProposal
	for _, m := range b.meetings {
		for _, p := range m.TaskProposals {
			current := b.proposals[p.ID]
			if state == "" || current.State == state {
				out = append(out, current.Clone())
			}
		}
	}
	return out
}

// ApproveProposal applies the proposal's fields through the mutation path and marks it approved.
// Approving an already approved proposal is a no-op that returns a nil result.
func (b *Board) ApproveProposal(ctx context.Context, id string) (*models.TaskProposal, *MutationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.proposals[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}
	if p.State == models.ProposalStateApproved {
		b.logger.Debug("proposal_already_approved", zap.String("proposal_id", id))
		return p.Clone(), nil, nil
	}
	if !p.HasChanges() {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyProposal, id)
	}

	patch := Patch{Status: p.ProposedStatus, Progress: p.ProposedProgress, EndDate: p.ProposedEndDate}
	if err := patch.Validate(); err != nil {
		return nil, nil, err
	}
	meetingID := p.MeetingID
	result, err := b.applyLocked(ctx, p.TaskID, patch, ProposalReasonPrefix+p.Reason,
		origin{kind: models.AuditTypeMeeting, meetingID: &meetingID})
	if err != nil {
		return nil, nil, err
	}
	p.State = models.ProposalStateApproved

	b.logger.Info("proposal_approved",
		zap.String("proposal_id", id),
		zap.String("task_id", p.TaskID),
	)
	return p.Clone(), result, nil
}

// SkipProposal marks the proposal skipped and detaches it from its task.
// Task fields and audit trail are never touched.
func (b *Board) SkipProposal(id string) (*models.TaskProposal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}
	p.State = models.ProposalStateSkipped
	if task, ok := b.index[p.TaskID]; ok && task.ProposedChanges != nil && task.ProposedChanges.ID == id {
		task.ProposedChanges = nil
	}

	b.logger.Info("proposal_skipped",
		zap.String("proposal_id", id),
		zap.String("task_id", p.TaskID),
	)
	return p.Clone(), nil
}

// truncateRunes cuts s to at most limit runes, marking the cut with an ellipsis.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	const ellipsis = "..."
	r := []rune(s)
	return string(r[:limit-len(ellipsis)]) + ellipsis
}
