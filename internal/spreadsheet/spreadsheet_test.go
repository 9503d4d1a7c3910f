package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
)

func TestValidateFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"plan.xlsx", false},
		{"PLAN.XLS", false},
		{"  report.xlsx  ", false},
		{"plan.csv", true},
		{"plan.xlsx.exe", true},
		{"xlsx", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFilename(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedFile) {
				t.Errorf("Expected ErrUnsupportedFile, got %v", err)
			}
		})
	}
}

func TestUnavailableParser(t *testing.T) {
	t.Parallel()

	rows, err := UnavailableParser{}.Parse(context.Background(), "plan.xlsx", strings.NewReader("data"))
	if !errors.Is(err, ErrParsingUnavailable) {
		t.Errorf("Expected ErrParsingUnavailable, got %v", err)
	}
	if rows != nil {
		t.Errorf("Expected no rows, got %v", rows)
	}
}

func TestCSVExporter(t *testing.T) {
	t.Parallel()

	parent := "1"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tasks := []*models.Task{
		{ID: "1", Name: "Planning, phase one", StartDate: start, EndDate: end, Duration: 4,
			Status: models.TaskStatusInProgress, Priority: models.TaskPriorityHigh, Level: models.LevelMain, Progress: 50},
		{ID: "1.1", Name: "Scope", StartDate: start, EndDate: end, Duration: 4, Assignee: "Team A",
			Status: models.TaskStatusCompleted, Priority: models.TaskPriorityMedium, Level: models.LevelSub, ParentID: &parent, Progress: 100},
	}

	var buf bytes.Buffer
	if err := (CSVExporter{}).Export(&buf, tasks); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}
	if records[1][1] != "Planning, phase one" {
		t.Errorf("Expected quoted name to round-trip, got %q", records[1][1])
	}
	if records[1][3] != "true" || records[2][3] != "false" {
		t.Errorf("Expected is_title true/false, got %q/%q", records[1][3], records[2][3])
	}
	if records[2][4] != "1" {
		t.Errorf("Expected parent id 1, got %q", records[2][4])
	}
	if records[2][5] != "2024-01-01" || records[2][6] != "2024-01-05" {
		t.Errorf("Expected ISO dates, got %q and %q", records[2][5], records[2][6])
	}
	if records[2][11] != "100" {
		t.Errorf("Expected completed 100, got %q", records[2][11])
	}
}
