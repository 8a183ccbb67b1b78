package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Ferchu2021/Finanzas/internal/amqp"
	"github.com/Ferchu2021/Finanzas/internal/config"
	"github.com/Ferchu2021/Finanzas/internal/log"
	"github.com/Ferchu2021/Finanzas/internal/storage"
	"github.com/Ferchu2021/Finanzas/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentWorker, JSON: true})
	log.SetDefault(logger)

	logger.Info("Starting finanzas-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, log.FieldPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewRefreshWorker(repo, cfg.ProjectionMonths, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rebuild once on startup so the projections table never starts stale.
	if err := w.Rebuild(ctx); err != nil {
		logger.Error("Startup rebuild failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshSchedule, func() {
		if err := w.Rebuild(ctx); err != nil {
			logger.Error("Scheduled rebuild failed", log.FieldError, err)
		}
	}); err != nil {
		logger.Error("Invalid refresh schedule", log.FieldError, err, "schedule", cfg.RefreshSchedule)
		os.Exit(1)
	}
	sched.Start()

	go func() {
		if err := client.ConsumeRefresh(ctx, func(msg *amqp.RefreshMessage) error {
			return w.HandleRefresh(ctx, msg)
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	stopCtx := sched.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
	logger.Info("Worker stopped gracefully")
}
