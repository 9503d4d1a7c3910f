package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/smart-gantt/internal/board"
	"github.com/benvon/smart-gantt/internal/config"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/queue"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/benvon/smart-gantt/internal/session"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:     "8080",
		FrontendURL:    "http://localhost:3000",
		RateLimit:      "100-M",
		SessionTTL:     time.Hour,
		MaxUploadBytes: 1 << 20,
	}
}

type testServer struct {
	handler http.Handler
	queue   *queue.MemoryQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	q := queue.NewMemoryQueue(16)
	t.Cleanup(func() { _ = q.Close() })

	store := session.NewStore(time.Hour, logger)
	store.SetEchoFactory(func(sessionID string) board.Echo {
		return queue.NewUpdatePublisher(q, sessionID, logger)
	})

	r, err := newRouter(dependencies{
		cfg:      testConfig(),
		logger:   logger,
		store:    store,
		jobQueue: q,
		meetings: ai.NewMeetingService(nil, nil, logger),
	})
	if err != nil {
		t.Fatalf("Failed to build router: %v", err)
	}
	return &testServer{handler: r, queue: q}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz?mode=extended", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Checks["queue"] != "healthy" {
		t.Errorf("Expected queue healthy, got '%s'", resp.Checks["queue"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers")
	}
}

func TestRouter_UpdateIsEchoedToQueue(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeEnvelope(t, rec, &created)

	start, end := "2024-03-01", "2024-03-10"
	rows := map[string]any{"rows": []models.FlatRow{
		{Name: "Launch", ItemID: "1", IsTitle: true, StartDate: &start, EndDate: &end},
	}}
	if rec := s.do(t, http.MethodPost, "/api/v1/sessions/"+created.ID+"/rows", rows); rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPatch, "/api/v1/sessions/"+created.ID+"/tasks/1", map[string]any{"progress": 60})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msgs, _, err := s.queue.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to consume: %v", err)
	}
	select {
	case msg := <-msgs:
		job := msg.GetJob()
		if job.SessionID != created.ID {
			t.Errorf("Expected session %s, got %s", created.ID, job.SessionID)
		}
		if len(job.Updates) != 1 || job.Updates[0].ProjectName != "1" {
			t.Errorf("Expected one update for task 1, got %+v", job.Updates)
		}
		if job.Updates[0].NewProgress == nil || *job.Updates[0].NewProgress != 60 {
			t.Errorf("Expected progress 60, got %v", job.Updates[0].NewProgress)
		}
		_ = msg.Ack()
	case <-ctx.Done():
		t.Fatal("Expected an update job on the queue")
	}
}

func TestRouter_MeetingWithoutAnalyzer(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	var created struct {
		ID string `json:"id"`
	}
	decodeEnvelope(t, rec, &created)

	rec = s.do(t, http.MethodPost, "/api/v1/sessions/"+created.ID+"/meetings", map[string]any{
		"title":      "Kickoff",
		"transcript": "We agreed on the scope.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("Expected rate limit headers on meeting routes")
	}
}

func TestRouter_RejectsUnsupportedContentType(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	var created struct {
		ID string `json:"id"`
	}
	decodeEnvelope(t, rec, &created)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+created.ID+"/rows", bytes.NewBufferString("rows"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected status 415, got %d", w.Code)
	}
}

func TestRouter_Preflight(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin 'http://localhost:3000', got '%s'", got)
	}
}
