package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/hierarchy"
	logpkg "github.com/benvon/smart-gantt/internal/logger"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/request"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// audioFields are the accepted multipart field names for recordings, in lookup order
var audioFields = []string{"audio_file", "audio"}

// MeetingProcessor turns a recording or transcript into a meeting with proposals
type MeetingProcessor interface {
	Process(ctx context.Context, in ai.MeetingInput) (*models.Meeting, error)
}

// MeetingHandler records meetings and reconciles their proposals
type MeetingHandler struct {
	store     *session.Store
	processor MeetingProcessor
	logger    *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(store *session.Store, processor MeetingProcessor, logger *zap.Logger) *MeetingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingHandler{store: store, processor: processor, logger: logger}
}

// RegisterRoutes registers meeting and proposal routes on the given router
// The router should already have the /api/v1 prefix
func (h *MeetingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions/{sid}/meetings", h.CreateMeeting).Methods("POST")
	r.HandleFunc("/sessions/{sid}/meetings", h.ListMeetings).Methods("GET")
	r.HandleFunc("/sessions/{sid}/proposals", h.ListProposals).Methods("GET")
	r.HandleFunc("/sessions/{sid}/proposals/{pid}/approve", h.ApproveProposal).Methods("POST")
	r.HandleFunc("/sessions/{sid}/proposals/{pid}/skip", h.SkipProposal).Methods("POST")
}

// CreateMeetingRequest is the JSON form of a meeting upload without audio
type CreateMeetingRequest struct {
	Title      string `json:"title" validate:"max=512"`
	Duration   int    `json:"duration" validate:"min=0"`
	Transcript string `json:"transcript" validate:"required,max=200000"`
}

// CreateMeetingResponse is the stored meeting with the proposals that were dropped
type CreateMeetingResponse struct {
	Meeting     *models.Meeting        `json:"meeting"`
	Diagnostics []hierarchy.Diagnostic `json:"diagnostics"`
}

// ProposalResponse is a proposal after approval or skip
type ProposalResponse struct {
	Proposal *models.TaskProposal  `json:"proposal"`
	Result   *board.MutationResult `json:"result,omitempty"`
}

// isAudioMIME reports whether a declared content type is audio/*
func isAudioMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/")
}

// meetingInput reads a meeting from a multipart form or a JSON body. The returned
// closer releases the upload and is never nil.
func (h *MeetingHandler) meetingInput(w http.ResponseWriter, r *http.Request) (ai.MeetingInput, func(), bool) {
	noop := func() {}

	if !request.IsMultipart(r) {
		var req CreateMeetingRequest
		if !decodeJSON(w, r, &req) {
			return ai.MeetingInput{}, noop, false
		}
		return ai.MeetingInput{
			Title:      validation.SanitizeText(req.Title),
			Duration:   req.Duration,
			Transcript: req.Transcript,
		}, noop, true
	}

	if err := r.ParseMultipartForm(MaxMultipartMemory); err != nil {
		respondMultipartError(w, err)
		return ai.MeetingInput{}, noop, false
	}
	cleanup := func() {
		_ = r.MultipartForm.RemoveAll()
	}

	in := ai.MeetingInput{
		Title:      validation.SanitizeText(r.FormValue("title")),
		Transcript: r.FormValue("transcript"),
	}
	if d := r.FormValue("duration"); d != "" {
		duration, err := strconv.Atoi(d)
		if err != nil || duration < 0 {
			cleanup()
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "duration must be a non-negative number of seconds")
			return ai.MeetingInput{}, noop, false
		}
		in.Duration = duration
	}

	file, header, err := formFile(r, audioFields...)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			cleanup()
			respondMultipartError(w, err)
			return ai.MeetingInput{}, noop, false
		}
		return in, cleanup, true
	}

	contentType := header.Header.Get("Content-Type")
	if !isAudioMIME(contentType) {
		_ = file.Close()
		cleanup()
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid file type. Please upload an audio file.")
		return ai.MeetingInput{}, noop, false
	}

	in.Audio = file
	in.AudioMIME = contentType
	in.AudioRef = logpkg.SanitizeString(header.Filename, 255)
	return in, func() {
		_ = file.Close()
		cleanup()
	}, true
}

// CreateMeeting processes a meeting recording and attaches its proposals to the board
func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	in, release, ok := h.meetingInput(w, r)
	defer release()
	if !ok {
		return
	}
	in.Tasks = s.Board.Tasks()

	ctx := ai.WithSessionID(r.Context(), s.ID.String())
	ctx = ai.WithRequestID(ctx, request.RequestID(r.Context()))

	meeting, err := h.processor.Process(ctx, in)
	if err != nil {
		status, errorType := statusFor(err)
		if status == http.StatusInternalServerError {
			status, errorType = http.StatusBadGateway, "Bad Gateway"
		}
		if status >= http.StatusInternalServerError {
			h.logger.Error("meeting_processing_failed",
				zap.String("session_id", s.ID.String()),
				zap.Int("status_code", status),
				zap.String("error", logpkg.SanitizeError(err)),
			)
		}
		respondJSONError(w, status, errorType, err.Error())
		return
	}

	stored, diags, err := s.Board.AddMeeting(meeting)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateMeetingResponse{
		Meeting:     stored,
		Diagnostics: nonNil(diags),
	})
}

// ListMeetings lists the session's meetings in arrival order
func (h *MeetingHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(s.Board.Meetings()))
}

// ListProposals lists proposals, optionally narrowed by ?state=
func (h *MeetingHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	state := models.ProposalState(r.URL.Query().Get("state"))
	switch state {
	case "", models.ProposalStatePending, models.ProposalStateApproved, models.ProposalStateSkipped:
	default:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "state must be 'pending', 'approved', or 'skipped'")
		return
	}
	respondJSON(w, http.StatusOK, nonNil(s.Board.Proposals(state)))
}

// ApproveProposal applies a proposal to its task
func (h *MeetingHandler) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	proposal, result, err := s.Board.ApproveProposal(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ProposalResponse{Proposal: proposal, Result: result})
}

// SkipProposal dismisses a proposal without touching its task
func (h *MeetingHandler) SkipProposal(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	proposal, err := s.Board.SkipProposal(mux.Vars(r)["pid"])
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ProposalResponse{Proposal: proposal})
}
