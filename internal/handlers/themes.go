package handlers

import (
	"net/http"

	"github.com/benvon/smart-gantt/internal/theme"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ThemeHandler serves style tokens
type ThemeHandler struct {
	logger *zap.Logger
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(logger *zap.Logger) *ThemeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThemeHandler{logger: logger}
}

// RegisterRoutes registers theme routes on the given router
// The router should already have the /api/v1 prefix
func (h *ThemeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/themes", h.ListThemes).Methods("GET")
	r.HandleFunc("/themes/{name}", h.GetTheme).Methods("GET")
}

// ListThemes lists the available theme names
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, theme.Names())
}

// GetTheme returns the style tokens of one theme
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	tokens, err := theme.Tokens(mux.Vars(r)["name"])
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tokens)
}
