package security

import (
	"net/http"
	"strconv"
	"time"
)

// Headers sets response hardening headers. Purchase and bill responses carry
// customer data, so NoStore marks them uncacheable.
type Headers struct {
	NoStore bool
	// HSTSMaxAge enables Strict-Transport-Security on TLS requests when
	// positive.
	HSTSMaxAge time.Duration
}

// Middleware attaches the headers before next writes the response.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		if h.NoStore {
			headers.Set("Cache-Control", "no-store")
		}
		if h.HSTSMaxAge > 0 && r.TLS != nil {
			headers.Set("Strict-Transport-Security", "max-age="+strconv.FormatInt(int64(h.HSTSMaxAge/time.Second), 10))
		}
		next.ServeHTTP(w, r)
	})
}
