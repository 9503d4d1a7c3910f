package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
)

func TestBoardHandler_SessionLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	sid := env.createSession(t)

	rec := env.do(http.MethodGet, "/api/v1/sessions/"+sid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var resp SessionResponse
	decodeData(t, rec, &resp)
	if resp.ID.String() != sid {
		t.Errorf("Expected session id %s, got %s", sid, resp.ID)
	}
	if resp.Tasks == nil || len(resp.Tasks) != 0 {
		t.Errorf("Expected empty task list, got %v", resp.Tasks)
	}

	rec = env.do(http.MethodDelete, "/api/v1/sessions/"+sid, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/sessions/"+sid, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", rec.Code)
	}
}

func TestBoardHandler_UnknownSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/sessions/not-a-uuid"},
		{"unknown id", http.MethodGet, "/api/v1/sessions/6f1c2a3e-9a55-4c1b-8d8e-0a1b2c3d4e5f"},
		{"delete unknown", http.MethodDelete, "/api/v1/sessions/6f1c2a3e-9a55-4c1b-8d8e-0a1b2c3d4e5f"},
		{"tasks of unknown", http.MethodGet, "/api/v1/sessions/6f1c2a3e-9a55-4c1b-8d8e-0a1b2c3d4e5f/tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(tt.method, tt.path, nil)
			if rec.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", rec.Code)
			}
		})
	}
}

func TestBoardHandler_ImportRows(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	sid := env.createSession(t)

	rec := env.do(http.MethodPost, "/api/v1/sessions/"+sid+"/rows", ImportRowsRequest{Rows: sampleRows()})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result hierarchy.Result
	decodeData(t, rec, &result)

	if len(result.Tasks) != 5 {
		t.Fatalf("Expected 5 tasks, got %d", len(result.Tasks))
	}
	wantOrder := []string{"1", "2", "1.1", "1.2", "2.1"}
	for i, id := range wantOrder {
		if result.Tasks[i].ID != id {
			t.Errorf("Expected task %d to be %s, got %s", i, id, result.Tasks[i].ID)
		}
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", result.Diagnostics)
	}

	design := result.Tasks[0]
	if design.Duration != 30 {
		t.Errorf("Expected duration 30, got %d", design.Duration)
	}
	if len(design.Children) != 2 {
		t.Errorf("Expected 2 children, got %v", design.Children)
	}
	if len(design.AuditTrail) != 1 || design.AuditTrail[0].Type != models.AuditTypeSystem {
		t.Errorf("Expected one system audit entry, got %v", design.AuditTrail)
	}
}

func TestBoardHandler_ImportRowsAnomalies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rows       []models.FlatRow
		wantStatus int
		wantKind   hierarchy.DiagnosticKind
	}{
		{
			name: "orphan kept and reported",
			rows: []models.FlatRow{
				{Name: "Orphan", ItemID: "9.1", StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-05")},
			},
			wantStatus: http.StatusOK,
			wantKind:   hierarchy.DiagnosticOrphanedSubtask,
		},
		{
			name: "duplicate ids rejected",
			rows: []models.FlatRow{
				{Name: "A", ItemID: "1", IsTitle: true},
				{Name: "B", ItemID: "1", IsTitle: true},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "empty input",
			rows:       []models.FlatRow{},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, nil)
			sid := env.createSession(t)
			rec := env.do(http.MethodPost, "/api/v1/sessions/"+sid+"/rows", ImportRowsRequest{Rows: tt.rows})
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantKind == "" {
				return
			}

			var result hierarchy.Result
			decodeData(t, rec, &result)
			if len(result.Tasks) != len(tt.rows) {
				t.Errorf("Expected %d tasks, got %d", len(tt.rows), len(result.Tasks))
			}
			found := false
			for _, d := range result.Diagnostics {
				if d.Kind == tt.wantKind {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected diagnostic %s, got %v", tt.wantKind, result.Diagnostics)
			}
		})
	}
}

func TestBoardHandler_ImportRowsInvalidBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	sid := env.createSession(t)

	rec := env.do(http.MethodPost, "/api/v1/sessions/"+sid+"/rows", map[string]any{"rows": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || success {
		t.Error("Expected success to be false")
	}
}
