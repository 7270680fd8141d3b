package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
)

// IntegrityScanJob runs the ledger consistency checker.
type IntegrityScanJob struct {
	Checker *integrity.Checker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIntegrityScanJob initialises the integrity scan handler.
func NewIntegrityScanJob(checker *integrity.Checker, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{Checker: checker, Logger: logger, Metrics: metrics}
}

// Handle executes one scan. Anomalies are reported by the checker's reporter.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Checker == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("integrity scan payload: %w", asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskIntegrityScan)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	start := time.Now()
	report, err := j.Checker.Scan(ctx)
	if err != nil {
		logger.Error("integrity scan failed", slog.Any("error", err))
		return err
	}
	counts := report.Counts()
	attrs := []any{slog.Int("anomalies", len(report.Anomalies)), slog.Duration("duration", time.Since(start))}
	for kind, n := range counts {
		attrs = append(attrs, slog.Int(string(kind), n))
	}
	logger.Info("completed integrity scan", attrs...)
	if payload.FailOnAnomaly && !report.Clean() {
		return fmt.Errorf("integrity scan found %d anomalies", len(report.Anomalies))
	}
	return nil
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return j.Logger
}

// KeyPruner deletes processed idempotency keys older than a retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// DefaultKeyRetention applies when a cleanup payload carries no retention.
const DefaultKeyRetention = 7 * 24 * time.Hour

// IdempotencyCleanupJob prunes the Idempotency-Key table.
type IdempotencyCleanupJob struct {
	Keys    KeyPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup payload: %w", asynq.SkipRetry)
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultKeyRetention
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()
	if err := j.Keys.Cleanup(ctx, payload.Retention); err != nil {
		return fmt.Errorf("idempotency cleanup: %w", err)
	}
	if j.Logger != nil {
		j.Logger.Info("pruned idempotency keys", slog.Duration("retention", payload.Retention))
	}
	return nil
}
