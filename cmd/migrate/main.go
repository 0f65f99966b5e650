package main

import (
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/openkassa/backend-kassa/internal/app"
	"github.com/openkassa/backend-kassa/internal/config"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/obs"
)

func main() {
	logger := obs.NewLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	source, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		logger.Fatal().Err(err).Msg("open embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise migrator")
	}
	defer func() { _, _ = m.Close() }()

	if len(os.Args) > 1 && os.Args[1] == "down" {
		if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
			logger.Fatal().Err(err).Msg("roll back migration")
		}
		logger.Info().Msg("rolled back one migration")
		return
	}

	if err := app.RunMigrations(m); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")
}
