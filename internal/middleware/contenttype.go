package middleware

import (
	"net/http"
	"strings"

	"github.com/benvon/smart-gantt/internal/request"
)

// ContentType validates Content-Type headers for requests with bodies.
// JSON is accepted everywhere; multipart form data only on paths ending in one of multipartSuffixes.
// Bodiless requests need no Content-Type.
func ContentType(multipartSuffixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				if r.ContentLength == 0 {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, r, http.StatusBadRequest, "Content-Type header is required")
				return
			}

			if strings.HasPrefix(strings.ToLower(contentType), "application/json") {
				next.ServeHTTP(w, r)
				return
			}

			if request.IsMultipart(r) && hasSuffix(r.URL.Path, multipartSuffixes) {
				next.ServeHTTP(w, r)
				return
			}

			if hasSuffix(r.URL.Path, multipartSuffixes) {
				writeError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json or multipart/form-data")
				return
			}
			writeError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		})
	}
}

func hasSuffix(path string, suffixes []string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
