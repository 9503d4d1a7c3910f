package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benvon/smart-gantt/internal/config"
	"github.com/benvon/smart-gantt/internal/handlers"
	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/middleware"
	"github.com/benvon/smart-gantt/internal/queue"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/spreadsheet"
	"github.com/benvon/smart-gantt/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "smart-gantt-api"

// dependencies are the long-lived collaborators the router serves
type dependencies struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.Store
	jobQueue queue.JobQueue
	redis    *redis.Client
	meetings handlers.MeetingProcessor
	openAPI  *handlers.OpenAPIHandler
	parser   spreadsheet.Parser
}

// newRouter wires middleware and routes
func newRouter(deps dependencies) (*mux.Router, error) {
	cfg, log := deps.cfg, deps.logger

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, deps.redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	r := mux.NewRouter()

	// Registered first runs outermost
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL, log))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, cfg.MaxUploadBytes))
	r.Use(middleware.ContentType("/spreadsheet", "/meetings"))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout,
		middleware.RouteTimeout{Suffix: "/meetings", Timeout: middleware.DefaultAnalysisTimeout},
	))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.Audit(log))
	r.Use(middleware.Logging(log))

	healthChecker := handlers.NewHealthChecker(deps.store.Len)
	if deps.jobQueue != nil {
		healthChecker.AddCheck("queue", deps.jobQueue.HealthCheck)
	}
	if deps.redis != nil {
		healthChecker.AddCheck("redis", func(ctx context.Context) error {
			return deps.redis.Ping(ctx).Err()
		})
	}

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/health", healthChecker.HealthCheck).Methods("GET") // Legacy endpoint
	r.HandleFunc("/version", handlers.VersionHandler(handlers.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})).Methods("GET")

	if deps.openAPI != nil {
		deps.openAPI.RegisterRoutes(r)
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	builder := hierarchy.NewBuilder(hierarchy.WithLogger(log))
	handlers.NewBoardHandler(deps.store, builder, log).RegisterRoutes(apiRouter)
	handlers.NewThemeHandler(log).RegisterRoutes(apiRouter)

	// Uploads, meeting analysis and spreadsheet updates are rate limited
	limited := apiRouter.NewRoute().Subrouter()
	limited.Use(rateLimitMW)

	var publisher handlers.BatchPublisher
	if deps.jobQueue != nil {
		publisher = queue.NewUpdatePublisher(deps.jobQueue, "", log)
	}
	handlers.NewSpreadsheetHandler(deps.store, builder, deps.parser, spreadsheet.CSVExporter{}, publisher, log).RegisterRoutes(limited)
	handlers.NewMeetingHandler(deps.store, deps.meetings, log).RegisterRoutes(limited)

	// Catch-all OPTIONS handler for preflight requests
	// The CORS middleware will handle setting headers before this is called
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
