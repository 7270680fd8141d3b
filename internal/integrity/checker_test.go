package integrity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type stubStore struct {
	missing    []string
	mismatched []Anomaly
	drift      []Anomaly
	pool       []Anomaly
	err        error
}

func (s stubStore) MissingMirrors(context.Context) ([]string, error) { return s.missing, s.err }
func (s stubStore) MismatchedMirrors(context.Context) ([]Anomaly, error) {
	return s.mismatched, nil
}
func (s stubStore) GrandTotalDrift(context.Context) ([]Anomaly, error)   { return s.drift, nil }
func (s stubStore) PoolAboveSequence(context.Context) ([]Anomaly, error) { return s.pool, nil }

func TestScanCollectsAndReports(t *testing.T) {
	store := stubStore{
		missing:    []string{"INV-4"},
		mismatched: []Anomaly{{Kind: KindMirrorMismatch, Subject: "INV-2"}},
		pool:       []Anomaly{{Kind: KindPoolAboveSequence, Subject: "INV:9"}},
	}
	collector := &Collector{}
	checker := NewChecker(store, collector)
	checker.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	report, err := checker.Scan(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Len(t, report.Anomalies, 3)
	assert.Equal(t, 1, report.Counts()[KindMirrorMissing])
	assert.Equal(t, "INV-4", report.Anomalies[0].Subject)
	assert.Equal(t, report.Anomalies, collector.Anomalies())
	assert.Equal(t, 2024, report.ScannedAt.Year())
}

func TestScanCleanDatabase(t *testing.T) {
	report, err := NewChecker(stubStore{}, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.NotNil(t, report.Anomalies)
}

func TestScanPropagatesStoreErrors(t *testing.T) {
	collector := &Collector{}
	_, err := NewChecker(stubStore{err: errors.New("conn reset")}, collector).Scan(context.Background())
	require.Error(t, err)
	assert.Empty(t, collector.Anomalies())
}

func TestLogReporterCountsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	reporter := NewReporter(nil, metrics)

	reporter.Report(context.Background(), Anomaly{Kind: KindGrandTotal, Subject: "INV-1"})
	reporter.Report(context.Background(), Anomaly{Kind: KindGrandTotal, Subject: "INV-2"})

	count, err := testutil.GatherAndCount(reg, "storeledger_consistency_anomalies_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnomalyErrWrapsConsistency(t *testing.T) {
	err := Anomaly{Kind: KindMirrorMissing, Subject: "INV-1"}.Err()
	assert.ErrorIs(t, err, shared.ErrConsistency)
	assert.Contains(t, err.Error(), "INV-1")
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	Multi{a, nil, b}.Report(context.Background(), Anomaly{Kind: KindMirrorMissing})
	assert.Len(t, a.Anomalies(), 1)
	assert.Len(t, b.Anomalies(), 1)
}

// barrierStore blocks every probe until all four have started.
type barrierStore struct {
	started sync.WaitGroup
}

func newBarrierStore() *barrierStore {
	b := &barrierStore{}
	b.started.Add(4)
	return b
}

func (b *barrierStore) wait(ctx context.Context) error {
	b.started.Done()
	done := make(chan struct{})
	go func() {
		b.started.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("probes ran one after another")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *barrierStore) MissingMirrors(ctx context.Context) ([]string, error) {
	return []string{"INV-1"}, b.wait(ctx)
}
func (b *barrierStore) MismatchedMirrors(ctx context.Context) ([]Anomaly, error) {
	return []Anomaly{{Kind: KindMirrorMismatch, Subject: "INV-2"}}, b.wait(ctx)
}
func (b *barrierStore) GrandTotalDrift(ctx context.Context) ([]Anomaly, error) {
	return []Anomaly{{Kind: KindGrandTotal, Subject: "INV-3"}}, b.wait(ctx)
}
func (b *barrierStore) PoolAboveSequence(ctx context.Context) ([]Anomaly, error) {
	return []Anomaly{{Kind: KindPoolAboveSequence, Subject: "INV:9"}}, b.wait(ctx)
}

func TestScanRunsProbesConcurrentlyInStableOrder(t *testing.T) {
	report, err := NewChecker(newBarrierStore(), nil).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 4)
	assert.Equal(t, []Kind{KindMirrorMissing, KindMirrorMismatch, KindGrandTotal, KindPoolAboveSequence},
		[]Kind{report.Anomalies[0].Kind, report.Anomalies[1].Kind, report.Anomalies[2].Kind, report.Anomalies[3].Kind})
}
