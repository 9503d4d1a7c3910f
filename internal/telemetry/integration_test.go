package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const inboundTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

// boardRouter mirrors the shape of the board API with handlers that only answer
func boardRouter(tp trace.TracerProvider) *mux.Router {
	r := mux.NewRouter()
	r.Use(Middleware("smart-gantt-api",
		otelmux.WithTracerProvider(tp),
		otelmux.WithPropagators(propagation.TraceContext{}),
	))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sessions/{sid}/layout", ok).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sid}/tasks/{tid}", ok).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{sid}/drag/start", ok).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sid}/proposals/{pid}/approve", ok).Methods(http.MethodPost)
	return r
}

func TestMiddleware_BoardRouteSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		path        string
		traceParent string
		wantSpan    string
	}{
		{
			name:     "layout",
			method:   http.MethodGet,
			path:     "/api/v1/sessions/abc/layout?view=month",
			wantSpan: "/api/v1/sessions/{sid}/layout",
		},
		{
			name:     "task patch",
			method:   http.MethodPatch,
			path:     "/api/v1/sessions/abc/tasks/1.2",
			wantSpan: "/api/v1/sessions/{sid}/tasks/{tid}",
		},
		{
			name:        "drag start continues inbound trace",
			method:      http.MethodPost,
			path:        "/api/v1/sessions/abc/drag/start",
			traceParent: inboundTraceParent,
			wantSpan:    "/api/v1/sessions/{sid}/drag/start",
		},
		{
			name:        "proposal approve continues inbound trace",
			method:      http.MethodPost,
			path:        "/api/v1/sessions/abc/proposals/p-1/approve",
			traceParent: inboundTraceParent,
			wantSpan:    "/api/v1/sessions/{sid}/proposals/{pid}/approve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			router := boardRouter(tp)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("Expected 1 span, got %d", len(spans))
			}
			span := spans[0]
			if span.Name != tt.wantSpan {
				t.Errorf("Expected span named %q, got %q", tt.wantSpan, span.Name)
			}
			if span.SpanKind != trace.SpanKindServer {
				t.Errorf("Expected server span, got %v", span.SpanKind)
			}

			traceID := span.SpanContext.TraceID().String()
			continued := traceID == "4bf92f3577b34da6a3ce929d0e0e4736"
			if continued != (tt.traceParent != "") {
				t.Errorf("Expected inbound trace continued=%t, got trace %s", tt.traceParent != "", traceID)
			}
			if tt.traceParent != "" && span.Parent.SpanID().String() != "00f067aa0ba902b7" {
				t.Errorf("Expected parent span 00f067aa0ba902b7, got %s", span.Parent.SpanID())
			}
		})
	}
}

func TestMiddleware_UnmatchedRouteProducesNoBoardSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	router := boardRouter(tp)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc/unknown", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	for _, s := range exporter.GetSpans() {
		if s.Name == "/api/v1/sessions/{sid}/layout" {
			t.Errorf("Expected no layout span for an unknown route, got %q", s.Name)
		}
	}
}
