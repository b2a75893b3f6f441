// waitfordb polls the database until it accepts connections, for use as
// a startup gate in front of the service. Exits 0 when ready, 1 on
// exhaustion of the configured attempts.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"imagehost/internal/models"
	"imagehost/internal/storage"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := models.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := storage.New(cfg.DatabaseURL(), cfg.DB.ConnectAttempts, cfg.DB.ConnectDelay, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}
	defer db.Close()

	logger.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("waiting for database")

	if err := db.Connect(context.Background()); err != nil {
		logger.Error().Err(err).Msg("database is not ready")
		os.Exit(1)
	}

	logger.Info().Msg("database is ready")
}
