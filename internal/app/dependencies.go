// Package app owns process-level wiring shared by the api and worker
// binaries: connection pools, the task client, and the limiter store.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/openkassa/backend-kassa/internal/config"
	"github.com/openkassa/backend-kassa/internal/obs"
)

// NewDBPool opens the pgx pool with query tracing attached.
func NewDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewRedisClient connects to redis from the configured URL.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewLimiterStore backs the login limiter with redis so attempts are
// counted across api replicas.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "kassa:limiter",
	})
}

// NewLoginLimiter builds the per-IP login attempt limiter.
func NewLoginLimiter(store limiter.Store, perMinute int64) *limiter.Limiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  perMinute,
	})
}

// AsynqRedisOpt converts the redis URL for the asynq client and server.
func AsynqRedisOpt(cfg *config.Config) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}

// RunMigrations applies pending schema migrations, treating an up-to-date
// schema as success.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
