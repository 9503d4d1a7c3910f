package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeaders sets security headers on all responses
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// JSON API: nothing to execute or embed
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			// Session state is live; never cache it
			if strings.HasPrefix(r.URL.Path, "/api/v1/sessions") {
				h.Set("Cache-Control", "no-store")
			}

			// HSTS only over TLS and when enabled, so local development stays on plain HTTP
			if enableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}
