// Package security carries the HTTP hardening middleware for the register
// API: response headers, a request body cap, and CSRF protection for the
// cookie session fallback.
package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Headers attaches API-appropriate security headers to every response.
// The API serves JSON only, so framing and sniffing are denied outright.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request payload size. Register payloads are small; the
// largest legitimate body is a promo definition.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized payloads with 413 before handlers decode.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	maxBytes := b.Max
	if maxBytes <= 0 {
		maxBytes = 64 << 10
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// CSRF guards mutating requests that authenticate via the session cookie.
// Bearer-token requests are exempt: the token itself cannot be sent by a
// cross-site form.
type CSRF struct {
	Header string
	Cookie string
}

// Middleware enforces the double-submit check.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	header := c.Header
	if header == "" {
		header = "X-CSRF-Token"
	}
	cookieName := c.Cookie
	if cookieName == "" {
		cookieName = "kassa_csrf"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		auth := strings.ToLower(strings.TrimSpace(r.Header.Get("Authorization")))
		if strings.HasPrefix(auth, "bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie("kassa_session"); err != nil {
			// no cookie session in play, nothing to protect
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimSpace(r.Header.Get(header))
		cookie, err := r.Cookie(cookieName)
		if token == "" || err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF", "missing or invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
