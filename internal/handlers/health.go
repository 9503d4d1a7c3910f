package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthCheckTimeout bounds each dependency check
const HealthCheckTimeout = 5 * time.Second

// CheckFunc checks one dependency
type CheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks   map[string]CheckFunc
	sessions func() int
}

// NewHealthChecker creates a new health checker. sessions reports the live session count and may be nil.
func NewHealthChecker(sessions func() int) *HealthChecker {
	return &HealthChecker{checks: make(map[string]CheckFunc), sessions: sessions}
}

// AddCheck registers a dependency check reported in extended mode
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Sessions  *int              `json:"sessions,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		if h.sessions != nil {
			n := h.sessions()
			response.Sessions = &n
		}

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		checks := make(map[string]string, len(names))
		for _, name := range names {
			if err := h.runCheck(r.Context(), h.checks[name]); err != nil {
				response.Status = "unhealthy"
				checks[name] = "unhealthy: " + err.Error()
				continue
			}
			checks[name] = "healthy"
		}
		response.Checks = checks

		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runCheck(ctx context.Context, check CheckFunc) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()
	return check(ctx)
}

// VersionInfo describes the running build
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// VersionHandler serves the /version endpoint
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, info)
	}
}
