// Package health exposes liveness and readiness probes. Readiness checks
// the two hard dependencies of a register session: postgres and redis.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Probes checks backing services.
type Probes struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Timeout time.Duration
}

func (p Probes) timeout() time.Duration {
	if p.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return p.Timeout
}

// PingDB probes postgres.
func (p Probes) PingDB(ctx context.Context) error {
	if p.Pool == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	return p.Pool.Ping(ctx)
}

// PingRedis probes redis.
func (p Probes) PingRedis(ctx context.Context) error {
	if p.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}

// Checker abstracts Probes so handlers are testable without live backends.
type Checker interface {
	PingDB(ctx context.Context) error
	PingRedis(ctx context.Context) error
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	Checker Checker
}

// Live always reports ok while the process is serving.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports per-dependency status and 503 when any probe fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"db": "ok", "redis": "ok"}
	code := http.StatusOK
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unconfigured"})
		return
	}
	if err := h.Checker.PingDB(r.Context()); err != nil {
		status["db"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := h.Checker.PingRedis(r.Context()); err != nil {
		status["redis"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}
