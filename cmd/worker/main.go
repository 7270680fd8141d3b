package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storeledger/internal/app"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/jobs"
)

// cleanupCron prunes idempotency keys once a day.
const cleanupCron = "0 3 * * *"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if cfg.StorageDriver == app.DriverMemory {
		logger.Error("the worker needs shared storage; STORAGE_DRIVER=memory is per process")
		os.Exit(1)
	}

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer backend.Close()

	metrics := jobmetrics.NewMetrics(nil)
	services := app.NewServices(cfg, backend, app.ServiceDeps{Logger: logger, JobMetrics: metrics})

	scanJob := jobs.NewIntegrityScanJob(services.Checker, logger, metrics)
	handlers := []jobs.TaskHandler{{Type: jobs.TaskIntegrityScan, Handler: scanJob.Handle}}
	cleanup := ""
	if pruner, ok := backend.Idempotency.(jobs.KeyPruner); ok {
		cleanupJob := &jobs.IdempotencyCleanupJob{Keys: pruner, Logger: logger, Metrics: metrics}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle})
		cleanup = cleanupCron
	}
	cron, err := jobs.Schedule(cfg.IntegrityCron, cleanup)
	if err != nil {
		logger.Error("build schedule", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
