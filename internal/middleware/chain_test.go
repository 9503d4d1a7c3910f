package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "GET passes", method: "GET", path: "/x", wantStatus: http.StatusOK},
		{name: "JSON accepted", method: "POST", path: "/api/v1/sessions", contentType: "application/json; charset=utf-8", body: "{}", wantStatus: http.StatusOK},
		{name: "bodiless POST", method: "POST", path: "/api/v1/sessions/s/tasks/1/toggle", wantStatus: http.StatusOK},
		{name: "missing with body", method: "PATCH", path: "/api/v1/sessions/s/tasks/1", body: "{}", wantStatus: http.StatusBadRequest},
		{name: "multipart on upload route", method: "POST", path: "/api/v1/sessions/s/spreadsheet", contentType: "multipart/form-data; boundary=x", body: "--x--", wantStatus: http.StatusOK},
		{name: "multipart on meetings", method: "POST", path: "/api/v1/sessions/s/meetings/", contentType: "multipart/form-data; boundary=x", body: "--x--", wantStatus: http.StatusOK},
		{name: "multipart elsewhere", method: "POST", path: "/api/v1/sessions/s/rows", contentType: "multipart/form-data; boundary=x", body: "--x--", wantStatus: http.StatusUnsupportedMediaType},
		{name: "text on upload route", method: "POST", path: "/api/v1/sessions/s/spreadsheet", contentType: "text/plain", body: "a", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := ContentType("/spreadsheet", "/meetings")(okHandler)
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := MaxRequestSize(10, 100)(readAll)

	tests := []struct {
		name        string
		contentType string
		size        int
		wantStatus  int
	}{
		{name: "small JSON", contentType: "application/json", size: 5, wantStatus: http.StatusOK},
		{name: "large JSON", contentType: "application/json", size: 50, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "multipart within upload limit", contentType: "multipart/form-data; boundary=x", size: 50, wantStatus: http.StatusOK},
		{name: "multipart over upload limit", contentType: "multipart/form-data; boundary=x", size: 500, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("a", tt.size)))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	t.Parallel()

	got := AllowedOrigins(" https://gantt.example.com ,, http://localhost:3000,https://gantt.example.com")
	want := []string{"http://localhost:3000", "https://gantt.example.com"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS("https://gantt.example.com", zap.NewNop())(okHandler)

	tests := []struct {
		name      string
		origin    string
		wantAllow string
	}{
		{name: "allowed origin", origin: "https://gantt.example.com", wantAllow: "https://gantt.example.com"},
		{name: "default origin", origin: "http://localhost:3000", wantAllow: "http://localhost:3000"},
		{name: "other origin", origin: "https://evil.example.com", wantAllow: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/v1/themes/default", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Expected allow origin %q, got %q", tt.wantAllow, got)
			}
		})
	}
}

func TestRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil)
	if err != nil {
		t.Fatalf("RateLimit failed: %v", err)
	}
	handler := mw(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("POST", "/api/v1/spreadsheet/updates", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("lots", nil); err == nil {
		t.Error("Expected error for invalid rate, got nil")
	}
}

func TestTimeout_Override(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(100 * time.Millisecond):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})
	handler := Timeout(10*time.Millisecond, RouteTimeout{Suffix: "/meetings", Timeout: time.Second})(slow)

	req := httptest.NewRequest("GET", "/api/v1/sessions/s/tasks", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 on default route, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/sessions/s/meetings", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 on overridden route, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders(true)(okHandler)

	req := httptest.NewRequest("GET", "/api/v1/sessions/abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Expected no-store on session routes, got %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Expected no HSTS over plain HTTP, got %q", got)
	}

	req = httptest.NewRequest("GET", "/api/v1/themes/dark", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Errorf("Expected no Cache-Control on theme routes, got %q", got)
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		wantEvent string
	}{
		{http.StatusTooManyRequests, "rate_limit_violation"},
		{http.StatusRequestEntityTooLarge, "oversized_request"},
		{http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{http.StatusOK, ""},
	}

	for _, tt := range tests {
		core, logs := observer.New(zapcore.WarnLevel)
		handler := Audit(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/v1/sessions", nil))

		entries := logs.All()
		if tt.wantEvent == "" {
			if len(entries) != 0 {
				t.Errorf("Expected no audit entries for %d, got %d", tt.status, len(entries))
			}
			continue
		}
		if len(entries) != 1 || entries[0].Message != tt.wantEvent {
			t.Errorf("Expected %q for %d, got %+v", tt.wantEvent, tt.status, entries)
		}
	}
}
