// Package integrity reports and scans for ledger consistency anomalies: invoices whose
// maal mirror is missing or stale, denormalized totals that drifted from their lines, and
// reusable document numbers that sit above the issued sequence.
package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Kind classifies an anomaly.
type Kind string

const (
	KindMirrorMissing     Kind = "maal_mirror_missing"
	KindMirrorMismatch    Kind = "maal_mirror_mismatch"
	KindGrandTotal        Kind = "grand_total_mismatch"
	KindPoolAboveSequence Kind = "reusable_pool_above_sequence"
)

// Anomaly is a detected inconsistency. Execution may continue after one is reported.
type Anomaly struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// Err wraps the anomaly as shared.ErrConsistency for callers that must abort.
func (a Anomaly) Err() error {
	return fmt.Errorf("%w: %s %s: %s", shared.ErrConsistency, a.Kind, a.Subject, a.Detail)
}

// Reporter receives anomalies.
type Reporter interface {
	Report(ctx context.Context, a Anomaly)
}

// LogReporter logs anomalies at WARN and counts them.
type LogReporter struct {
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewReporter builds a LogReporter. Both arguments may be nil.
func NewReporter(logger *slog.Logger, metrics *jobmetrics.Metrics) *LogReporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogReporter{logger: logger, metrics: metrics}
}

func (r *LogReporter) Report(ctx context.Context, a Anomaly) {
	r.logger.WarnContext(ctx, "consistency anomaly",
		slog.String("anomaly", string(a.Kind)),
		slog.String("subject", a.Subject),
		slog.String("detail", a.Detail),
	)
	r.metrics.AddAnomalies(string(a.Kind), 1)
}

// Collector keeps reported anomalies in memory.
type Collector struct {
	mu    sync.Mutex
	items []Anomaly
}

func (c *Collector) Report(_ context.Context, a Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, a)
}

// Anomalies returns a copy of everything reported so far.
func (c *Collector) Anomalies() []Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Anomaly(nil), c.items...)
}

// Multi fans a report out to several reporters.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, a Anomaly) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, a)
		}
	}
}

// OrDiscard returns r, or a reporter that drops everything when r is nil.
func OrDiscard(r Reporter) Reporter {
	if r == nil {
		return Multi(nil)
	}
	return r
}
