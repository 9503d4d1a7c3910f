package handlers

import (
	"net/http"
	"testing"

	"github.com/benvon/smart-gantt/internal/theme"
)

func TestThemeHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/v1/themes", nil)
	var names []theme.Name
	decodeData(t, rec, &names)
	if len(names) != 5 {
		t.Errorf("Expected 5 themes, got %d", len(names))
	}

	tests := []struct {
		name       string
		wantStatus int
	}{
		{"default", http.StatusOK},
		{"corporate", http.StatusOK},
		{"neon", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := env.do(http.MethodGet, "/api/v1/themes/"+tt.name, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var tokens theme.StyleTokens
			decodeData(t, rec, &tokens)
			if string(tokens.Name) != tt.name {
				t.Errorf("Expected theme '%s', got '%s'", tt.name, tokens.Name)
			}
			if tokens.Container == "" || tokens.Accent == "" {
				t.Error("Expected container and accent tokens")
			}
		})
	}
}
