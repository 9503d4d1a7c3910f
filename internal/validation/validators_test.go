package validation

import (
	"testing"

	"github.com/benvon/smart-gantt/internal/models"
)

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"Not Started", false},
		{"In Progress", false},
		{"Completed", false},
		{"Delayed", false},
		{"Blocked", false},
		{"completed", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateTaskStatus(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaskStatus(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRecordValidation(t *testing.T) {
	t.Parallel()

	status := "In Progress"
	badStatus := "Done"
	date := "2024-01-05"
	badDate := "05/01/2024"
	progress := 101

	tests := []struct {
		name    string
		record  models.UpdateRecord
		wantErr bool
	}{
		{
			name:   "valid record",
			record: models.UpdateRecord{ProjectName: "1.1", NewStatus: &status, NewEndDate: &date, Reason: "kickoff"},
		},
		{
			name:    "missing project name",
			record:  models.UpdateRecord{NewStatus: &status},
			wantErr: true,
		},
		{
			name:    "unknown status",
			record:  models.UpdateRecord{ProjectName: "1", NewStatus: &badStatus},
			wantErr: true,
		},
		{
			name:    "wrong date layout",
			record:  models.UpdateRecord{ProjectName: "1", NewStartDate: &badDate},
			wantErr: true,
		},
		{
			name:    "progress out of range",
			record:  models.UpdateRecord{ProjectName: "1", NewProgress: &progress},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate.Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	got := SanitizeText("  Kick\x00off\tmeeting \n")
	if got != "Kickoff\tmeeting" {
		t.Errorf("Expected 'Kickoff\\tmeeting', got %q", got)
	}
}
