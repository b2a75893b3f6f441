package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"

	"imagehost/internal/logging"
	"imagehost/internal/models"
	"imagehost/internal/server"
	"imagehost/internal/storage"
)

func main() {
	cfg, err := models.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to create upload dir")
	}

	db, err := storage.New(cfg.DatabaseURL(), cfg.DB.ConnectAttempts, cfg.DB.ConnectDelay, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect in the background so static routes come up immediately;
	// store-backed routes answer 503 until the database is reachable.
	go func() {
		if err := db.Connect(ctx); err != nil {
			logger.Error().Err(err).Msg("database unreachable, store-backed routes will answer 503")
		}
	}()

	var producer *kafka.Writer
	if cfg.KafkaBroker != "" {
		producer = kafka.NewWriter(kafka.WriterConfig{
			Brokers: []string{cfg.KafkaBroker},
			Topic:   cfg.KafkaTopic,
		})
		defer producer.Close()
	}

	srv := server.NewServer(cfg, db, producer, logger)

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("upload_dir", cfg.UploadDir).Msg("server starting")
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("server stopped")
}
