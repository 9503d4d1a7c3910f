package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/drag"
	"github.com/benvon/smart-gantt/internal/hierarchy"
	logpkg "github.com/benvon/smart-gantt/internal/logger"
	"github.com/benvon/smart-gantt/internal/queue"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/spreadsheet"
	"github.com/benvon/smart-gantt/internal/theme"
	"github.com/benvon/smart-gantt/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage bounds client-facing error text
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON reads and validates a JSON body into dst, answering the client on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.FirstError(err))
		return false
	}
	return true
}

// lookupSession resolves the {sid} route variable
func lookupSession(w http.ResponseWriter, r *http.Request, store *session.Store) (*session.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["sid"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return nil, false
	}
	s, err := store.Get(id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Session not found")
		return nil, false
	}
	return s, true
}

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) (int, string) {
	var dupErr *hierarchy.DuplicateIDError
	var echoErr *board.EchoError

	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, board.ErrTaskNotFound),
		errors.Is(err, board.ErrProposalNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.As(err, &dupErr),
		errors.Is(err, board.ErrEmptyProposal):
		return http.StatusUnprocessableEntity, "Unprocessable Entity"
	case errors.Is(err, board.ErrDuplicateProposal),
		errors.Is(err, drag.ErrDragInProgress),
		errors.Is(err, drag.ErrNotDragging):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, board.ErrInvalidDateRange),
		errors.Is(err, board.ErrEmptyPatch),
		errors.Is(err, board.ErrInvalidPatch),
		errors.Is(err, board.ErrNotMainTask),
		errors.Is(err, drag.ErrInvalidScale),
		errors.Is(err, theme.ErrUnknownTheme),
		errors.Is(err, spreadsheet.ErrUnsupportedFile),
		errors.Is(err, ai.ErrEmptyTranscript),
		errors.Is(err, queue.ErrNoUpdates):
		return http.StatusBadRequest, "Bad Request"
	case errors.Is(err, spreadsheet.ErrParsingUnavailable),
		errors.Is(err, ai.ErrTranscriptionUnavailable):
		return http.StatusNotImplemented, "Not Implemented"
	case ai.IsRateLimitError(err), ai.IsQuotaError(err):
		return http.StatusServiceUnavailable, "Service Unavailable"
	case errors.As(err, &echoErr):
		return http.StatusBadGateway, "Bad Gateway"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// respondDomainError answers with the status for err. Server-side failures are logged
// and their details withheld.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, errorType := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.Int("status_code", status),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "An unexpected error occurred"
	}
	respondJSONError(w, status, errorType, message)
}
