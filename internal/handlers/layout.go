package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/smart-gantt/internal/theme"
	"github.com/benvon/smart-gantt/internal/timeline"
	"github.com/benvon/smart-gantt/internal/validation"
)

var errInvalidZoom = errors.New("zoom must be an integer percentage")

// LayoutResponse is a laid-out chart with the style tokens to render it
type LayoutResponse struct {
	Chart timeline.Chart    `json:"chart"`
	Theme theme.StyleTokens `json:"theme"`
}

// parseView reads the view configuration from query parameters. Missing values
// fall back to the reset view.
func parseView(r *http.Request) (timeline.View, error) {
	view := timeline.DefaultView()
	q := r.URL.Query()

	if v := q.Get("view"); v != "" {
		mode, err := timeline.ParseViewMode(v)
		if err != nil {
			return view, err
		}
		view.Mode = mode
	}

	if z := q.Get("zoom"); z != "" {
		zoom, err := strconv.Atoi(z)
		if err != nil {
			return view, errInvalidZoom
		}
		view.Zoom = timeline.ClampZoom(zoom)
	}

	if s := q.Get("status"); s != "" && s != timeline.FilterAll {
		if err := validation.ValidateTaskStatus(s); err != nil {
			return view, err
		}
		view.Filter.Status = s
	}

	if p := q.Get("priority"); p != "" && p != timeline.FilterAll {
		if err := validation.ValidateTaskPriority(p); err != nil {
			return view, err
		}
		view.Filter.Priority = p
	}

	return view, nil
}

// GetLayout lays out the board for the requested view and theme
func (h *BoardHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r, h.store)
	if !ok {
		return
	}

	view, err := parseView(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	themeName := r.URL.Query().Get("theme")
	if themeName == "" {
		themeName = string(theme.Default)
	}
	tokens, err := theme.Tokens(themeName)
	if err != nil {
		respondDomainError(w, r, h.logger, err)
		return
	}

	chart := timeline.Layout(s.Board.Tasks(), view, h.now())
	chart.Markers = nonNil(chart.Markers)
	chart.Rows = nonNil(chart.Rows)
	respondJSON(w, http.StatusOK, LayoutResponse{Chart: chart, Theme: tokens})
}
