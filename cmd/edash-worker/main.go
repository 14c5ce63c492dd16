package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"edash/internal/amqp"
	"edash/internal/config"
	"edash/internal/feeds"
	"edash/internal/log"
	ports "edash/internal/sheets"
	gsheet "edash/internal/sheets/google"
	mem "edash/internal/sheets/memory"
	"edash/internal/storage"
	"edash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting edash-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := feeds.Registry()

	// The worker mirrors feeds into SQLite. Without a spreadsheet it falls
	// back to local seed data, which keeps the full pipeline testable.
	var source ports.FeedReader
	if cfg.GoogleSpreadsheetID != "" {
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		source = cli
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		source = mem.NewFromFiles("data", registry)
		logger.Info("Google Sheets disabled, mirroring local seed data")
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher worker.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync notifications disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	syncWorker := worker.NewSyncWorker(source, repo, publisher, registry, cfg.SyncBatchSize, logger)

	go syncWorker.Run(ctx, cfg.SyncInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give the current sync a moment to finish before exiting.
	select {
	case <-time.After(5 * time.Second):
	case <-sigChan:
		logger.Warn("Forced shutdown")
	}
	logger.Info("Worker shutdown complete")
}
