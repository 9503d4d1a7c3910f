package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second
	// MaxTranscriptChars bounds the transcript sent to the model
	MaxTranscriptChars = 48000

	tracerName = "github.com/benvon/smart-gantt/internal/services/ai"
)

const analysisSystemPrompt = `You are a project management assistant. You read meeting transcripts and
propose updates to the tasks of a Gantt chart. Only propose a change when the transcript clearly
supports it. Respond with valid JSON only, shaped as:
{"summary": string, "task_proposals": [{"task_id": string, "proposed_status": string,
"proposed_progress": integer, "proposed_end_date": "YYYY-MM-DD", "reason": string, "confidence": number}]}
Omit proposed fields that should not change. proposed_status must be one of: Not Started, In Progress,
Completed, Delayed, Blocked. confidence is between 0 and 1.`

// OpenAIAnalyzer implements MeetingAnalyzer using OpenAI's chat completions API
type OpenAIAnalyzer struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
	tracer    trace.Tracer
}

// NewOpenAIAnalyzer creates a new OpenAI meeting analyzer
func NewOpenAIAnalyzer(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIAnalyzer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIAnalyzer{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
		tracer:    otel.Tracer(tracerName),
	}
}

// NewOpenAIFactory returns a ProviderFactory reading api_key, base_url and model
func NewOpenAIFactory(logger *zap.Logger, debugMode bool) ProviderFactory {
	return func(config map[string]string) (MeetingAnalyzer, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIAnalyzer(apiKey, config["base_url"], config["model"], logger, debugMode), nil
	}
}

// AnalyzeMeeting implements MeetingAnalyzer
func (p *OpenAIAnalyzer) AnalyzeMeeting(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	ctx, span := p.tracer.Start(ctx, "ai.analyze_meeting",
		trace.WithAttributes(
			attribute.String("ai.model", p.model),
			attribute.Int("meeting.transcript_length", len(req.Transcript)),
			attribute.Int("meeting.task_count", len(req.Tasks)),
		),
	)
	defer span.End()

	prompt, err := buildAnalysisPrompt(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prompt")
		return nil, err
	}

	sessionID := ExtractSessionID(ctx)
	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "analyze_meeting"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisSystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	latency := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion")
		p.logger.Warn("llm_api_error",
			zap.String("operation", "analyze_meeting"),
			zap.String("model", p.model),
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to analyze meeting: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to analyze meeting: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "empty response")
		return nil, ErrNoChoicesInResponse
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "analyze_meeting"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	analysis, err := parseAnalysisResponse(content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse")
		return nil, err
	}
	span.SetAttributes(attribute.Int("meeting.proposal_count", len(analysis.Suggestions)))
	return analysis, nil
}

func buildAnalysisPrompt(req AnalysisRequest) (string, error) {
	tasks, err := json.Marshal(req.Tasks)
	if err != nil {
		return "", fmt.Errorf("failed to encode tasks: %w", err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\n", now.UTC().Format("2006-01-02"))
	if req.Title != "" {
		fmt.Fprintf(&b, "Meeting title: %s\n", req.Title)
	}
	b.WriteString("\nCurrent tasks (JSON):\n")
	b.Write(tasks)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(TruncateString(req.Transcript, MaxTranscriptChars))
	b.WriteString("\n\nSummarize the meeting and propose task updates. Use only task ids from the list above.")
	return b.String(), nil
}

// parseAnalysisResponse decodes the model output, tolerating text around the JSON object
func parseAnalysisResponse(content string) (*Analysis, error) {
	var analysis Analysis
	raw := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
	}
	analysis.Summary = strings.TrimSpace(analysis.Summary)
	return &analysis, nil
}
