package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/services/ai"
	"github.com/benvon/smart-gantt/internal/session"
	"github.com/benvon/smart-gantt/internal/spreadsheet"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeProcessor struct {
	mu      sync.Mutex
	inputs  []ai.MeetingInput
	process func(in ai.MeetingInput) (*models.Meeting, error)
}

func (f *fakeProcessor) Process(_ context.Context, in ai.MeetingInput) (*models.Meeting, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	if f.process != nil {
		return f.process(in)
	}
	return &models.Meeting{
		ID:            "meeting-1",
		Title:         in.Title,
		Duration:      in.Duration,
		Transcript:    in.Transcript,
		TaskProposals: []*models.TaskProposal{},
	}, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	records []models.UpdateRecord
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, records []models.UpdateRecord) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	f.records = append(f.records, records...)
	f.mu.Unlock()
	return len(records), nil
}

type fakeParser struct {
	rows []models.FlatRow
}

func (f fakeParser) Parse(_ context.Context, _ string, r io.Reader) ([]models.FlatRow, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return f.rows, nil
}

type testEnv struct {
	router    *mux.Router
	store     *session.Store
	processor *fakeProcessor
	publisher *fakePublisher
}

func newTestEnv(t *testing.T, parser spreadsheet.Parser) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	env := &testEnv{
		store:     session.NewStore(0, logger),
		processor: &fakeProcessor{},
		publisher: &fakePublisher{},
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	NewBoardHandler(env.store, nil, logger).RegisterRoutes(api)
	NewSpreadsheetHandler(env.store, nil, parser, nil, env.publisher, logger).RegisterRoutes(api)
	NewMeetingHandler(env.store, env.processor, logger).RegisterRoutes(api)
	NewThemeHandler(logger).RegisterRoutes(api)
	env.router = router
	return env
}

func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	req := newTestRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the success envelope into dst
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success to be true, got false")
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func (env *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	decodeData(t, rec, &resp)
	return resp.ID.String()
}

// loadedSession creates a session holding two mains and three subs
func (env *testEnv) loadedSession(t *testing.T) string {
	t.Helper()
	sid := env.createSession(t)
	rec := env.do(http.MethodPost, "/api/v1/sessions/"+sid+"/rows", ImportRowsRequest{Rows: sampleRows()})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	return sid
}

func strPtr(s string) *string {
	return &s
}

func sampleRows() []models.FlatRow {
	return []models.FlatRow{
		{Name: "Design", ItemID: "1", ActivityType: "Main Activity", IsTitle: true,
			StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-31"), Team: "Core", Status: "In Progress", Completed: 40},
		{Name: "Build", ItemID: "2", ActivityType: "Main Activity", IsTitle: true,
			StartDate: strPtr("2024-02-01"), EndDate: strPtr("2024-03-31"), Team: "Core", Status: "Not Started"},
		{Name: "Wireframes", ItemID: "1.1", ActivityType: "Sub Activity",
			StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-10"), Team: "UX", Status: "Completed", Completed: 100},
		{Name: "Review", ItemID: "1.2", ActivityType: "Sub Activity",
			StartDate: strPtr("2024-01-11"), EndDate: strPtr("2024-01-20"), Team: "UX", Status: "In Progress", Completed: 50},
		{Name: "Backend", ItemID: "2.1", ActivityType: "Sub Activity",
			StartDate: strPtr("2024-02-01"), EndDate: strPtr("2024-02-15"), Team: "API", Status: "Not Started"},
	}
}
