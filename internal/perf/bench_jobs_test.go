package perf

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/invoicing"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/memstore"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/jobs"
)

func TestIntegrityScanThroughputAndReporting(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	reporter := integrity.NewReporter(nil, metrics)

	db := memstore.New()
	alloc := &sequence.Allocator{Reporter: reporter}
	invoices := invoicing.NewService(db.Invoices(), alloc, &ledger.Mirror{Reporter: reporter}, nil, nil)
	if _, err := parties.NewService(db.Parties()).Create(ctx, parties.KindCustomer, parties.CreateRequest{ID: "C-1", Name: "Bench"}); err != nil {
		t.Fatal(err)
	}
	for range 200 {
		_, err := invoices.Create(ctx, invoicing.Request{
			CustomerID: "C-1",
			Date:       "2024-05-01",
			Items: []invoicing.LineInput{
				{ProductCode: "A", Quantity: decimal.NewFromInt(2), SellingPrice: decimal.RequireFromString("4.5")},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	// Drift one mirror so the scan has something to report.
	err := db.Ledger().WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		_, err := tx.UpdateMaalByInvoice(ctx, ledger.MaalEntry{
			PartyKind: parties.KindCustomer, PartyID: "C-1", InvoiceNo: "INV-7", Date: "2024-05-01", Amount: decimal.NewFromInt(1),
		})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	job := jobs.NewIntegrityScanJob(integrity.NewChecker(db.Integrity(), reporter), nil, metrics)
	task, err := jobs.NewIntegrityScanTask(jobs.IntegrityScanPayload{Trigger: "perf"})
	if err != nil {
		t.Fatal(err)
	}
	for range 20 {
		if err := job.Handle(ctx, task); err != nil {
			t.Fatalf("scan: %v", err)
		}
	}
	if err := job.Handle(ctx, asynq.NewTask(jobs.TaskIntegrityScan, []byte("not json"))); err == nil {
		t.Fatal("expected malformed payload to fail")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if runs := metricValue(t, families, "storeledger_jobs_total", map[string]string{"job": jobs.TaskIntegrityScan, "status": "success"}); runs != 20 {
		t.Fatalf("expected 20 successful scans, got %f", runs)
	}
	if found := metricValue(t, families, "storeledger_consistency_anomalies_total", map[string]string{"kind": string(integrity.KindMirrorMismatch)}); found != 20 {
		t.Fatalf("expected one mismatch per scan, got %f", found)
	}
	if mean := histogramMean(t, families, "storeledger_job_duration_seconds", map[string]string{"job": jobs.TaskIntegrityScan}); mean > 0.5 {
		t.Fatalf("integrity scan duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) && fam.GetType() == dto.MetricType_COUNTER {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}
