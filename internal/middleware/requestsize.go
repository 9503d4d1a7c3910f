package middleware

import (
	"net/http"

	"github.com/benvon/smart-gantt/internal/request"
)

const (
	// DefaultMaxRequestSize bounds JSON request bodies (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
	// DefaultMaxUploadSize bounds multipart uploads such as spreadsheets and meeting audio (50MB)
	DefaultMaxUploadSize int64 = 50 << 20
)

// MaxRequestSize limits request bodies; multipart bodies get the larger upload limit
func MaxRequestSize(maxBytes, maxUploadBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if request.IsMultipart(r) {
				limit = maxUploadBytes
			}

			if r.ContentLength > limit {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request body exceeds the size limit")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
