package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultUpdateReason is recorded when a manual update carries no reason
const DefaultUpdateReason = "Manual update"

// UpdateTaskRequest represents a manual task update. Duration is derived and not accepted.
type UpdateTaskRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=512"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Progress  *int    `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	Assignee  *string `json:"assignee,omitempty" validate:"omitempty,max=256"`
	Priority  *string `json:"priority,omitempty" validate:"omitempty,task_priority"`
	Status    *string `json:"status,omitempty" validate:"omitempty,task_status"`
	Reason    string  `json:"reason" validate:"max=2000"`
}

// ReorderRequest lists a main task's children in their new order
type ReorderRequest struct {
	Order []string `json:"order" validate:"required,min=1,dive,required,max=128"`
}

// ToggleResponse reports a main task's new expansion state
type ToggleResponse struct {
	TaskID     string `json:"task_id"`
	IsExpanded bool   `json:"is_expanded"`
}

// toPatch converts a request into a board patch
func (req UpdateTaskRequest) toPatch() (board.Patch, error) {
	var p board.Patch
	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		p.Name = &name
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return p, err
		}
		p.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return p, err
		}
		p.EndDate = &end
	}
	p.Progress = req.Progress
	if req.Assignee != nil {
		assignee := validation.SanitizeText(*req.Assignee)
		p.Assignee = &assignee
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		p.Priority = &priority
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		p.Status = &status
	}
	return p, nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", board.ErrInvalidPatch, raw)
	}
	return models.NormalizeDate(d), nil
}

// ListTasks lists every task on the board, mains first
func (h *BoardHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(s.Board.Tasks()))
}

// GetTask returns one task with its audit trail
func (h *BoardHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	task, err := s.Board.Task(mux.Vars(r)["tid"])
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a manual update and returns the task with the audit entries it produced
func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	reason := validation.SanitizeText(req.Reason)
	if reason == "" {
		reason = DefaultUpdateReason
	}

	result, err := s.Board.Update(r.Context(), mux.Vars(r)["tid"], patch, reason)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("task_updated",
		zap.String("session_id", s.ID.String()),
		zap.String("task_id", result.Task.ID),
		zap.Int("audit_entries", len(result.Entries)),
	)
	respondJSON(w, http.StatusOK, result)
}

// ToggleTask expands or collapses a main task
func (h *BoardHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	id := mux.Vars(r)["tid"]
	expanded, err := s.Board.ToggleExpansion(id)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResponse{TaskID: id, IsExpanded: expanded})
}

// ReorderTasks sets the display order of a main task's children
func (h *BoardHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parent, err := s.Board.Reorder(mux.Vars(r)["tid"], req.Order)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}
