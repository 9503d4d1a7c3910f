package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	logpkg "github.com/benvon/smart-gantt/internal/logger"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/spreadsheet"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxMultipartMemory is held in memory while parsing uploads; the rest spills to disk
const MaxMultipartMemory = 32 << 20

// spreadsheetFields are the accepted multipart field names, in lookup order
var spreadsheetFields = []string{"excel", "file"}

// BatchPublisher hands validated update records to the spreadsheet writer
type BatchPublisher interface {
	PublishBatch(ctx context.Context, records []models.UpdateRecord) (int, error)
}

// SpreadsheetHandler imports and exports boards and forwards spreadsheet updates
type SpreadsheetHandler struct {
	store     *session.Store
	builder   *hierarchy.Builder
	parser    spreadsheet.Parser
	exporter  spreadsheet.Exporter
	publisher BatchPublisher
	logger    *zap.Logger
}

// NewSpreadsheetHandler creates a new spreadsheet handler. Nil collaborators fall back to
// the unavailable parser and the CSV exporter.
func NewSpreadsheetHandler(store *session.Store, builder *hierarchy.Builder, parser spreadsheet.Parser, exporter spreadsheet.Exporter, publisher BatchPublisher, logger *zap.Logger) *SpreadsheetHandler {
	if builder == nil {
		builder = hierarchy.NewBuilder(hierarchy.WithLogger(logger))
	}
	if parser == nil {
		parser = spreadsheet.UnavailableParser{}
	}
	if exporter == nil {
		exporter = spreadsheet.CSVExporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpreadsheetHandler{
		store:     store,
		builder:   builder,
		parser:    parser,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes registers spreadsheet routes on the given router
// The router should already have the /api/v1 prefix
func (h *SpreadsheetHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sessions/{sid}/spreadsheet", h.Upload).Methods("POST")
	r.HandleFunc("/sessions/{sid}/spreadsheet", h.Export).Methods("GET")
	r.HandleFunc("/spreadsheet/updates", h.ApplyUpdates).Methods("POST")
}

// ApplyUpdatesRequest carries spreadsheet mutations
type ApplyUpdatesRequest struct {
	Updates []models.UpdateRecord `json:"updates" validate:"required,min=1,max=1000"`
}

// ApplyUpdatesResponse reports how many records were queued
type ApplyUpdatesResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// formFile returns the first uploaded file under any of the given field names
func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
	}
	return nil, nil, http.ErrMissingFile
}

// respondMultipartError answers a failed multipart parse
func respondMultipartError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
			fmt.Sprintf("Upload exceeds maximum size of %d bytes", maxBytesErr.Limit))
		return
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid multipart form")
}

// Upload parses an uploaded workbook and replaces the session's board with its tasks
func (h *SpreadsheetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(MaxMultipartMemory); err != nil {
		respondMultipartError(w, err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := formFile(r, spreadsheetFields...)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "No spreadsheet file provided")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if err := spreadsheet.ValidateFilename(header.Filename); err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	rows, err := h.parser.Parse(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Warn("spreadsheet_parse_failed",
			zap.String("session_id", s.ID.String()),
			zap.String("filename", logpkg.SanitizeString(header.Filename, 255)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondDomainError(w, r, h.logger, err)
		return
	}

	result, err := buildBoard(h.builder, s.Board, rows)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("spreadsheet_imported",
		zap.String("session_id", s.ID.String()),
		zap.Int64("size", header.Size),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)
	respondJSON(w, http.StatusOK, hierarchy.Result{
		Tasks:       nonNil(s.Board.Tasks()),
		Diagnostics: nonNil(result.Diagnostics),
	})
}

// Export downloads the board as a spreadsheet
func (h *SpreadsheetHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spreadsheet.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if err := h.exporter.Export(w, s.Board.Tasks()); err != nil {
		// Headers are already sent
		h.logger.Error("spreadsheet_export_failed",
			zap.String("session_id", s.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}

// ApplyUpdates validates spreadsheet mutations and queues the valid ones for the writer
func (h *SpreadsheetHandler) ApplyUpdates(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Spreadsheet updates are not configured")
		return
	}

	var req ApplyUpdatesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	accepted, err := h.publisher.PublishBatch(r.Context(), req.Updates)
	if err != nil {
		status, errorType := statusFor(err)
		if status == http.StatusInternalServerError {
			status, errorType = http.StatusBadGateway, "Bad Gateway"
			h.logger.Error("spreadsheet_updates_failed", zap.String("error", logpkg.SanitizeError(err)))
		}
		respondJSONError(w, status, errorType, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, ApplyUpdatesResponse{
		Accepted: accepted,
		Rejected: len(req.Updates) - accepted,
	})
}
