package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/config"
	"github.com/benvon/smart-gantt/internal/handlers"
	"github.com/benvon/smart-gantt/internal/logger"
	"github.com/benvon/smart-gantt/internal/middleware"
	"github.com/benvon/smart-gantt/internal/queue"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/telemetry"
	"github.com/benvon/smart-gantt/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   = "dev"
	commit    = ""
	buildTime = ""
)

const (
	// memoryQueueCapacity bounds the in-process update queue used without RabbitMQ
	memoryQueueCapacity = 256
	// maxSweepInterval caps how often expired sessions are looked for
	maxSweepInterval = 5 * time.Minute
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	envFile := flag.String("env-file", ".env", "Optional dotenv file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewLogger(debugMode, logger.DefaultFileOptions(cfg.LogFile))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Ignore sync errors on stderr
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled && cfg.OTELEndpoint == "" {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		cfg.OTELEnabled = false
	}
	shutdownTracer, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTELEndpoint,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		cfg.OTELEnabled = false
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	// Redis is optional: without it rate limits are kept per process
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	jobQueue := connectQueue(ctx, cfg, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_job_queue", zap.Error(err))
		}
	}()

	// Without a broker nobody else can consume the queue, so drain it in process
	if memQueue, ok := jobQueue.(*queue.MemoryQueue); ok {
		msgs, errs, err := memQueue.Consume(ctx, cfg.RabbitMQPrefetch)
		if err != nil {
			zapLogger.Fatal("failed_to_start_update_processor", zap.Error(err))
		}
		processor := workers.NewUpdateProcessor(workers.NewLogWriter(zapLogger), memQueue, zapLogger)
		go processor.Run(ctx, msgs, errs)
		zapLogger.Info("started_in_process_update_processor")
	}

	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		sweeper := queue.NewDeadLetterSweeper(dlqPurger, queue.SweepConfig{}, zapLogger)
		go func() {
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dead_letter_sweeper_stopped", zap.Error(err))
			}
		}()
	}

	store := session.NewStore(cfg.SessionTTL, zapLogger)
	store.SetEchoFactory(func(sessionID string) board.Echo {
		return queue.NewUpdatePublisher(jobQueue, sessionID, zapLogger)
	})
	if cfg.SessionTTL > 0 {
		sweeper := session.NewSweeper(store, min(cfg.SessionTTL/4, maxSweepInterval), zapLogger)
		go func() {
			if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("session_sweeper_stopped_with_error", zap.Error(err))
			}
		}()
	}

	analyzer, err := createAnalyzer(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
	}
	meetingService := ai.NewMeetingService(nil, analyzer, zapLogger)

	openAPIHandler, err := handlers.NewOpenAPIHandler(cfg.OpenAPIPath)
	if err != nil {
		zapLogger.Warn("openapi_document_unavailable", zap.Error(err))
	}

	r, err := newRouter(dependencies{
		cfg:      cfg,
		logger:   zapLogger,
		store:    store,
		jobQueue: jobQueue,
		redis:    redisClient,
		meetings: meetingService,
		openAPI:  openAPIHandler,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	// Setup server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      middleware.DefaultAnalysisTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue connects to RabbitMQ when configured, retrying with exponential backoff to
// ride out broker startup, and falls back to the in-process queue otherwise
func connectQueue(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) queue.JobQueue {
	if cfg.RabbitMQURL == "" {
		zapLogger.Info("using_in_process_job_queue")
		return queue.NewMemoryQueue(memoryQueueCapacity)
	}

	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var lastErr error

	for attempt := range maxRetries {
		q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}
		lastErr = err

		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			zapLogger.Fatal("rabbitmq_connection_cancelled", zap.Error(ctx.Err()))
		case <-time.After(delay):
		}
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// createAnalyzer creates the meeting analyzer for the configured provider. A nil analyzer
// stores meetings with their transcript only.
func createAnalyzer(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) (ai.MeetingAnalyzer, error) {
	if !cfg.AIEnabled() {
		zapLogger.Info("ai_analysis_disabled")
		return nil, nil
	}

	registry := ai.NewProviderRegistry()
	registry.Register(config.AIProviderOpenAI, ai.NewOpenAIFactory(zapLogger, debugMode))

	return registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":  cfg.OpenAIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	})
}
