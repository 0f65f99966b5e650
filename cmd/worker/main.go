package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openkassa/backend-kassa/internal/app"
	"github.com/openkassa/backend-kassa/internal/config"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/obs"
	"github.com/openkassa/backend-kassa/internal/tasks"
)

func main() {
	logger := obs.NewLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	store := db.NewStore(pool)
	bus := &events.Bus{Store: store, Log: logger}

	asynqOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}

	server := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: asynqLogger{logger: logger},
	})

	mux := asynq.NewServeMux()
	handler := &tasks.Handler{Q: store, Bus: bus, Log: logger}
	handler.Register(mux)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Msg("worker started")
		errCh <- server.Run(mux)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		server.Shutdown()
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}
}
