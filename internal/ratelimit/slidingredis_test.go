package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(t *testing.T) SlidingWindow {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return SlidingWindow{Client: client}
}

func TestAllowCountsWithinWindow(t *testing.T) {
	limiter := testWindow(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "ip:10.0.0.1", time.Minute, 3)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}
	allowed, remaining, _, err := limiter.Allow(ctx, "ip:10.0.0.1", time.Minute, 3)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}

func TestAllowIsolatesKeys(t *testing.T) {
	limiter := testWindow(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, _, err := limiter.Allow(ctx, "ip:10.0.0.1", time.Minute, 1)
		require.NoError(t, err)
	}
	allowed, _, _, err := limiter.Allow(ctx, "ip:10.0.0.2", time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	limiter := SlidingWindow{}
	allowed, _, _, err := limiter.Allow(context.Background(), "x", time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter := testWindow(t)
	mw := Middleware{
		Limiter: limiter,
		Config: Config{
			Key:    func(*http.Request) string { return "static" },
			Window: time.Minute,
			Max:    1,
		},
	}
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
