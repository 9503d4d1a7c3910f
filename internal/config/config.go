package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AIProviderOpenAI selects the OpenAI chat-completions analyzer
	AIProviderOpenAI = "openai"
	// AIProviderNone stores meetings with their transcript only
	AIProviderNone = "none"
)

// Config holds application configuration
type Config struct {
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	OpenAIKey        string
	AIProvider       string
	AIModel          string
	AIBaseURL        string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	LogFile          string
	RateLimit        string
	SessionTTL       time.Duration
	MaxUploadBytes   int64
	OpenAPIPath      string
}

// AIEnabled reports whether meeting analysis can call a provider
func (c *Config) AIEnabled() bool {
	return c.AIProvider != AIProviderNone && c.OpenAIKey != ""
}

// Load reads a .env file (or the given files) when present, then the environment.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return loadFrom(os.Getenv)
}

func loadFrom(lookup func(string) string) (*Config, error) {
	e := env{lookup: lookup}
	cfg := &Config{
		ServerPort:       e.get("SERVER_PORT", "8080"),
		BaseURL:          e.get("BASE_URL", "http://localhost:8080"),
		FrontendURL:      e.get("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:        e.get("OPENAI_API_KEY", ""),
		AIProvider:       strings.ToLower(e.get("AI_PROVIDER", AIProviderOpenAI)),
		AIModel:          e.get("AI_MODEL", ""),
		AIBaseURL:        e.get("AI_BASE_URL", ""),
		EnableHSTS:       e.getBool("ENABLE_HSTS", false),
		RedisURL:         e.get("REDIS_URL", ""),
		RabbitMQURL:      e.get("RABBITMQ_URL", ""),
		RabbitMQPrefetch: e.getInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  e.getBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  e.getBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      e.getBool("OTEL_ENABLED", false),
		OTELEndpoint:     e.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogFile:          e.get("LOG_FILE", ""),
		RateLimit:        e.get("RATE_LIMIT", "30-M"),
		SessionTTL:       e.getDuration("SESSION_TTL", 12*time.Hour),
		MaxUploadBytes:   int64(e.getInt("MAX_UPLOAD_BYTES", 50<<20)),
		OpenAPIPath:      e.get("OPENAPI_PATH", "api/openapi/openapi.yaml"),
	}

	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.AIProvider != AIProviderOpenAI && c.AIProvider != AIProviderNone {
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be %q or %q, got %q", AIProviderOpenAI, AIProviderNone, c.AIProvider))
	}
	if c.RabbitMQPrefetch < 1 {
		errs = append(errs, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", c.RabbitMQPrefetch))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must not be negative, got %s", c.SessionTTL))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.OTELEnabled && c.OTELEndpoint == "" {
		errs = append(errs, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set"))
	}
	return errors.Join(errs...)
}

type env struct {
	lookup func(string) string
	err    error
}

func (e *env) get(key, defaultValue string) string {
	if value := strings.TrimSpace(e.lookup(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e *env) getBool(key string, defaultValue bool) bool {
	if value := e.lookup(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e *env) getInt(key string, defaultValue int) int {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		e.fail(fmt.Errorf("%s must be an integer: %w", key, err))
		return defaultValue
	}
	return intValue
}

func (e *env) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(fmt.Errorf("%s must be a duration: %w", key, err))
		return defaultValue
	}
	return d
}

func (e *env) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
