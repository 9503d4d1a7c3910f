package handlers

import (
	"net/http"

	"github.com/benvon/smart-gantt/internal/drag"
	"github.com/benvon/smart-gantt/internal/timeline"
)

// DragStartRequest begins a move or resize gesture on a task bar.
// When PixelsPerDay is omitted it is derived from View and Zoom.
type DragStartRequest struct {
	TaskID       string  `json:"task_id" validate:"required,max=128"`
	Mode         string  `json:"mode" validate:"required,oneof=move resize-start resize-end"`
	X            float64 `json:"x"`
	PixelsPerDay float64 `json:"pixels_per_day" validate:"omitempty,gt=0"`
	View         string  `json:"view" validate:"omitempty,oneof=day week month quarter"`
	Zoom         int     `json:"zoom" validate:"omitempty,min=1"`
}

// DragMoveRequest reports the pointer position
type DragMoveRequest struct {
	X float64 `json:"x"`
}

func (req DragStartRequest) pixelsPerDay() (float64, error) {
	if req.PixelsPerDay > 0 {
		return req.PixelsPerDay, nil
	}
	mode := timeline.ViewWeek
	if req.View != "" {
		parsed, err := timeline.ParseViewMode(req.View)
		if err != nil {
			return 0, err
		}
		mode = parsed
	}
	zoom := timeline.DefaultZoom
	if req.Zoom != 0 {
		zoom = req.Zoom
	}
	return timeline.PixelsPerDay(mode, timeline.ClampZoom(zoom)), nil
}

// DragStart snapshots the task and enters the dragging state
func (h *BoardHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	var req DragStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, err := drag.ParseMode(req.Mode)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	ppd, err := req.pixelsPerDay()
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	task, err := s.Board.Task(req.TaskID)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	candidate, err := s.Drag.PointerDown(task, mode, req.X, ppd)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, candidate)
}

// DragMove returns the candidate dates for the current pointer position
func (h *BoardHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	var req DragMoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	candidate, err := s.Drag.PointerMove(req.X)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, candidate)
}

// DragEnd commits the gesture and returns the committed dates
func (h *BoardHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	candidate, err := s.Drag.PointerUp(r.Context())
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, candidate)
}

// DragCancel abandons the gesture without committing
func (h *BoardHandler) DragCancel(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	if err := s.Drag.Cancel(); err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
