package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second
	// DefaultAnalysisTimeout covers meeting analysis, which waits on the LLM
	DefaultAnalysisTimeout = 3 * time.Minute
)

// RouteTimeout overrides the timeout for paths ending in Suffix
type RouteTimeout struct {
	Suffix  string
	Timeout time.Duration
}

// Timeout enforces a deadline on request handlers. The first matching override wins.
func Timeout(timeout time.Duration, overrides ...RouteTimeout) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		standard := http.TimeoutHandler(next, timeout, "Request Timeout")
		handlers := make([]http.Handler, len(overrides))
		for i, o := range overrides {
			handlers[i] = http.TimeoutHandler(next, o.Timeout, "Request Timeout")
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for i, o := range overrides {
				if o.Timeout > 0 && hasSuffix(r.URL.Path, []string{o.Suffix}) {
					handlers[i].ServeHTTP(w, r)
					return
				}
			}
			standard.ServeHTTP(w, r)
		})
	}
}
