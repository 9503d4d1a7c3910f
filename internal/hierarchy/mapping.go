package hierarchy

import (
	"strings"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
)

// dateLayouts are tried in order when parsing spreadsheet date cells
var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02-01-2006",
}

// ParseDate parses a raw spreadsheet date into a calendar date.
// The boolean is false when the value is absent or matches no known layout.
func ParseDate(raw *string) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.NormalizeDate(t), true
		}
	}
	return time.Time{}, false
}

// MapStatus maps a free-form spreadsheet status to a TaskStatus by
// case-insensitive substring match. Dutch status words used by the source
// workbooks are recognized alongside English ones.
func MapStatus(raw string) models.TaskStatus {
	s := strings.ToLower(raw)
	switch {
	case containsAny(s, "completed", "akkoord", "gereed"):
		return models.TaskStatusCompleted
	case containsAny(s, "in progress", "gestart"):
		return models.TaskStatusInProgress
	case strings.Contains(s, "blocked"):
		return models.TaskStatusBlocked
	case strings.Contains(s, "delayed"):
		return models.TaskStatusDelayed
	default:
		return models.TaskStatusNotStarted
	}
}

// MapPriority derives a priority from the activity type column
func MapPriority(activityType string) models.TaskPriority {
	s := strings.ToLower(activityType)
	switch {
	case containsAny(s, "main", "critical"):
		return models.TaskPriorityHigh
	case containsAny(s, "sub", "secondary"):
		return models.TaskPriorityMedium
	default:
		return models.TaskPriorityLow
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
