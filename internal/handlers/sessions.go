package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// BoardHandler serves sessions, tasks, the chart layout and drag gestures
type BoardHandler struct {
	store   *session.Store
	builder *hierarchy.Builder
	now     func() time.Time
	logger  *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(store *session.Store, builder *hierarchy.Builder, logger *zap.Logger) *BoardHandler {
	if builder == nil {
		builder = hierarchy.NewBuilder(hierarchy.WithLogger(logger))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardHandler{
		store:   store,
		builder: builder,
		now:     time.Now,
		logger:  logger,
	}
}

// RegisterRoutes registers board routes on the given router
// The router should already have the /api/v1 prefix
func (h *BoardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{sid}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{sid}", h.DeleteSession).Methods("DELETE")
	r.HandleFunc("/sessions/{sid}/rows", h.ImportRows).Methods("POST")

	r.HandleFunc("/sessions/{sid}/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/sessions/{sid}/tasks/{tid}", h.GetTask).Methods("GET")
	r.HandleFunc("/sessions/{sid}/tasks/{tid}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/sessions/{sid}/tasks/{tid}/toggle", h.ToggleTask).Methods("POST")
	r.HandleFunc("/sessions/{sid}/tasks/{tid}/reorder", h.ReorderTasks).Methods("POST")

	r.HandleFunc("/sessions/{sid}/layout", h.GetLayout).Methods("GET")

	r.HandleFunc("/sessions/{sid}/drag/start", h.DragStart).Methods("POST")
	r.HandleFunc("/sessions/{sid}/drag/move", h.DragMove).Methods("POST")
	r.HandleFunc("/sessions/{sid}/drag/end", h.DragEnd).Methods("POST")
	r.HandleFunc("/sessions/{sid}/drag/cancel", h.DragCancel).Methods("POST")
}

// SessionResponse describes a session and its board
type SessionResponse struct {
	ID        uuid.UUID              `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Dragging  bool                   `json:"dragging"`
	Tasks     []*models.Task         `json:"tasks"`
	Meetings  []*models.Meeting      `json:"meetings"`
	Proposals []*models.TaskProposal `json:"pending_proposals"`
	Issues    []hierarchy.Diagnostic `json:"diagnostics"`
}

// ImportRowsRequest carries pre-parsed spreadsheet rows
type ImportRowsRequest struct {
	Rows []models.FlatRow `json:"rows" validate:"max=10000"`
}

func newSessionResponse(s *session.Session) SessionResponse {
	snap := s.Board.Snapshot()
	return SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Dragging:  s.Drag.Dragging(),
		Tasks:     nonNil(snap.Tasks),
		Meetings:  nonNil(snap.Meetings),
		Proposals: nonNil(s.Board.Proposals(models.ProposalStatePending)),
		Issues:    nonNil(snap.Diagnostics),
	}
}

// nonNil keeps empty collections serialized as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// CreateSession starts a new empty board
func (h *BoardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	respondJSON(w, http.StatusCreated, newSessionResponse(s))
}

// GetSession returns a snapshot of the session's board
func (h *BoardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(s))
}

// DeleteSession drops a session and its board
func (h *BoardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["sid"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return
	}
	if err := h.store.Delete(id); err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportRows replaces the board with tasks built from flat spreadsheet rows
func (h *BoardHandler) ImportRows(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	var req ImportRowsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.loadRows(w, r, s, req.Rows)
}

// loadRows builds and loads rows into the session's board and answers with the result
func (h *BoardHandler) loadRows(w http.ResponseWriter, r *http.Request, s *session.Session, rows []models.FlatRow) {
	result, err := buildBoard(h.builder, s.Board, rows)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("rows_imported",
		zap.String("session_id", s.ID.String()),
		zap.Int("rows", len(rows)),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)

	respondJSON(w, http.StatusOK, hierarchy.Result{
		Tasks:       nonNil(s.Board.Tasks()),
		Diagnostics: nonNil(result.Diagnostics),
	})
}

func buildBoard(builder *hierarchy.Builder, b *board.Board, rows []models.FlatRow) (*hierarchy.Result, error) {
	result, err := builder.Build(rows)
	if err != nil {
		return nil, err
	}
	if err := b.Load(result); err != nil {
		return nil, err
	}
	return result, nil
}
