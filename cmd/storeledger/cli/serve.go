package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/storeledger/internal/app"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/internal/observability"
	"github.com/odyssey-erp/storeledger/internal/shared"
	"github.com/odyssey-erp/storeledger/jobs"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the schema and serve the local operation surface",
		RunE:  runServe,
	}
	cmd.Flags().Bool("access-log", false, "log every request")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, logger := e.cfg, e.logger

	if err := e.backend.Bootstrap(ctx); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	redisClient := app.ConnectCache(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	services := app.NewServices(cfg, e.backend, app.ServiceDeps{
		Logger:     logger,
		Metrics:    metrics,
		JobMetrics: jobmetrics.NewMetrics(metrics.Registerer()),
		Redis:      redisClient,
	})

	tokens, err := shared.NewTokenChecker(cfg.APITokenHash)
	if err != nil {
		return err
	}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		opts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := jobs.NewClient(opts)
		defer client.Close()
		inspector := asynq.NewInspector(opts)
		defer inspector.Close()
		jobHandler = jobs.NewHandler(inspector, client, logger)
	}

	accessLog, _ := cmd.Flags().GetBool("access-log")
	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Services:    services,
		Metrics:     metrics,
		Tokens:      tokens,
		Idempotency: e.backend.Idempotency,
		JobHandler:  jobHandler,
		AccessLog:   accessLog,
	})

	if app.InTestMode() {
		logger.Info("test mode detected, skipping listener")
		return nil
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("driver", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
