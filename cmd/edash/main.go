package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"edash/internal/amqp"
	"edash/internal/config"
	"edash/internal/feeds"
	apphttp "edash/internal/http"
	"edash/internal/log"
	ports "edash/internal/sheets"
	gsheet "edash/internal/sheets/google"
	mem "edash/internal/sheets/memory"
	"edash/internal/snapshot"
	"edash/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := feeds.Registry()

	var reader ports.FeedReader
	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		reader = cli
		logger.Info("Initialized Google Sheets backend", "backend", cfg.DataBackend)
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		reader = repo
		logger.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		reader = mem.NewFromFiles("data", registry)
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	}

	store := snapshot.New(reader, registry, logger)
	go store.Run(ctx, cfg.RefreshInterval)

	// With the SQLite mirror, the worker announces each completed sync and
	// the matching snapshot refreshes right away instead of waiting for the
	// next timer tick. Periodic refresh still runs either way.
	if cfg.DataBackend == "sqlite" && cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic refresh only", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			go func() {
				handler := func(msg *amqp.FeedSyncedMessage) error {
					return store.RefreshFeed(ctx, msg.Feed)
				}
				if err := amqpClient.ConsumeFeedSynced(ctx, handler); err != nil && err != context.Canceled {
					logger.Error("Feed sync consumption failed", log.FieldError, err)
				}
			}()
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting edash server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
