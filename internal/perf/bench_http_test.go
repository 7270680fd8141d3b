package perf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/odyssey-erp/storeledger/internal/app"
	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/memstore"
)

func newRouter(tb testing.TB) http.Handler {
	tb.Helper()
	cfg := &app.Config{StorageDriver: app.DriverMemory, RateLimitPerMinute: 1_000_000}
	backend := app.MemoryBackend(memstore.New())
	services := app.NewServices(cfg, backend, app.ServiceDeps{Reporter: &integrity.Collector{}})
	h := app.NewRouter(app.RouterParams{Config: cfg, Services: services})
	post(tb, h, "/customers", map[string]string{"id": "C-1", "name": "Bench"})
	return h
}

func post(tb testing.TB, h http.Handler, path string, body any) {
	tb.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		tb.Fatal(err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf)))
	if rec.Code != http.StatusCreated {
		tb.Fatalf("POST %s: %d %s", path, rec.Code, rec.Body.String())
	}
}

func invoiceBody(lines int) map[string]any {
	items := make([]map[string]any, lines)
	for i := range items {
		items[i] = map[string]any{"product_code": fmt.Sprintf("P-%d", i%7), "quantity": "2", "selling_price": "12.5"}
	}
	return map[string]any{"customer_id": "C-1", "invoice_date": "2024-05-01", "freight": "3", "items": items}
}

func BenchmarkCreateInvoice(b *testing.B) {
	h := newRouter(b)
	body := invoiceBody(10)
	b.ResetTimer()
	for range b.N {
		post(b, h, "/invoices", body)
	}
}

func TestInvoiceWriteLatencyTargets(t *testing.T) {
	if testing.Short() {
		t.Skip("latency sampling")
	}
	h := newRouter(t)
	scenarios := []struct {
		name      string
		lines     int
		threshold time.Duration
	}{
		{name: "small", lines: 3, threshold: 50 * time.Millisecond},
		{name: "large", lines: 100, threshold: 200 * time.Millisecond},
	}
	for _, scenario := range scenarios {
		body := invoiceBody(scenario.lines)
		samples := make([]time.Duration, 0, 40)
		for range 40 {
			start := time.Now()
			post(t, h, "/invoices", body)
			samples = append(samples, time.Since(start))
		}
		if p95 := percentile95(samples); p95 > scenario.threshold {
			t.Fatalf("%s invoice latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
