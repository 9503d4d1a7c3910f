package ai

import (
	"context"
	"io"
	"time"
)

// Transcriber converts recorded meeting audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
}

// MeetingAnalyzer reads a transcript against the current task list and suggests changes
type MeetingAnalyzer interface {
	AnalyzeMeeting(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

// TaskSummary is the view of a task given to the analyzer
type TaskSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	EndDate  time.Time `json:"end_date"`
	Assignee string    `json:"assignee,omitempty"`
}

// AnalysisRequest is the input to a meeting analysis
type AnalysisRequest struct {
	Title      string
	Transcript string
	Tasks      []TaskSummary
	Now        time.Time
}

// Suggestion is one proposed task change as returned by the analyzer
type Suggestion struct {
	TaskID           string  `json:"task_id"`
	ProposedStatus   string  `json:"proposed_status,omitempty"`
	ProposedProgress *int    `json:"proposed_progress,omitempty"`
	ProposedEndDate  string  `json:"proposed_end_date,omitempty"`
	Reason           string  `json:"reason"`
	Confidence       float64 `json:"confidence"`
}

// Analysis is the analyzer output
type Analysis struct {
	Summary     string       `json:"summary"`
	Suggestions []Suggestion `json:"task_proposals"`
}

// UnavailableTranscriber rejects all audio. Clients supply their own transcript.
type UnavailableTranscriber struct{}

// Transcribe implements Transcriber
func (UnavailableTranscriber) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", ErrTranscriptionUnavailable
}

// NoopAnalyzer returns an empty analysis so meetings are kept with their transcript only
type NoopAnalyzer struct{}

// AnalyzeMeeting implements MeetingAnalyzer
func (NoopAnalyzer) AnalyzeMeeting(context.Context, AnalysisRequest) (*Analysis, error) {
	return &Analysis{}, nil
}

// ProviderFactory creates a meeting analyzer from provider configuration
type ProviderFactory func(config map[string]string) (MeetingAnalyzer, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (MeetingAnalyzer, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
