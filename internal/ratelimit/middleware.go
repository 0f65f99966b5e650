package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Config derives the limit key and thresholds for a route group.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Middleware enforces the limit before delegating. Redis trouble fails
// open: a throttle outage must not stop the tills.
type Middleware struct {
	Limiter SlidingWindow
	Config  Config
	OnError func(error)
}

// Handler wraps next with the rate limit check.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Config.Key == nil || m.Config.Max <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, reset, err := m.Limiter.Allow(r.Context(), m.Config.Key(r), m.Config.Window, m.Config.Max)
		if err != nil {
			if m.OnError != nil {
				m.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(m.Config.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
