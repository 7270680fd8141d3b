package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
)

type stubStore struct {
	missing []string
	err     error
}

func (s stubStore) MissingMirrors(context.Context) ([]string, error) { return s.missing, s.err }
func (s stubStore) MismatchedMirrors(context.Context) ([]integrity.Anomaly, error) {
	return nil, nil
}
func (s stubStore) GrandTotalDrift(context.Context) ([]integrity.Anomaly, error) { return nil, nil }
func (s stubStore) PoolAboveSequence(context.Context) ([]integrity.Anomaly, error) {
	return nil, nil
}

func scanTask(t *testing.T, payload IntegrityScanPayload) *asynq.Task {
	t.Helper()
	task, err := NewIntegrityScanTask(payload)
	require.NoError(t, err)
	return task
}

func TestIntegrityScanJobReportsAndTracks(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	collector := &integrity.Collector{}
	job := NewIntegrityScanJob(integrity.NewChecker(stubStore{missing: []string{"INV-4"}}, collector), nil, metrics)

	require.NoError(t, job.Handle(context.Background(), scanTask(t, IntegrityScanPayload{Trigger: "test"})))

	found := collector.Anomalies()
	require.Len(t, found, 1)
	assert.Equal(t, integrity.KindMirrorMissing, found[0].Kind)

	count, err := testutil.GatherAndCount(registry, "storeledger_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegrityScanJobFailOnAnomaly(t *testing.T) {
	job := NewIntegrityScanJob(integrity.NewChecker(stubStore{missing: []string{"INV-4"}}, &integrity.Collector{}), nil, nil)
	err := job.Handle(context.Background(), scanTask(t, IntegrityScanPayload{FailOnAnomaly: true}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 anomalies")
}

func TestIntegrityScanJobStoreError(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	boom := errors.New("db down")
	job := NewIntegrityScanJob(integrity.NewChecker(stubStore{err: boom}, nil), nil, metrics)

	err := job.Handle(context.Background(), scanTask(t, IntegrityScanPayload{}))
	require.ErrorIs(t, err, boom)

	count, err := testutil.GatherAndCount(registry, "storeledger_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegrityScanJobBadPayloadSkipsRetry(t *testing.T) {
	job := NewIntegrityScanJob(integrity.NewChecker(stubStore{}, nil), nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIntegrityScan, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type prunerFunc func(context.Context, time.Duration) error

func (f prunerFunc) Cleanup(ctx context.Context, d time.Duration) error { return f(ctx, d) }

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	var got time.Duration
	job := &IdempotencyCleanupJob{Keys: prunerFunc(func(_ context.Context, d time.Duration) error {
		got = d
		return nil
	})}
	task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, DefaultKeyRetention, got)
}

func TestScheduleSkipsEmptySpecs(t *testing.T) {
	regs, err := Schedule("30 2 * * *", "")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, TaskIntegrityScan, regs[0].Task.Type())
}
