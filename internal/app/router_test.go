package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/memstore"
	"github.com/odyssey-erp/storeledger/internal/observability"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type envelope struct {
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

func testConfig() *Config {
	return &Config{StorageDriver: DriverMemory, RateLimitPerMinute: 10_000, LogLevel: "info"}
}

func newTestRouter(t *testing.T, tokens *shared.TokenChecker) http.Handler {
	t.Helper()
	cfg := testConfig()
	backend := MemoryBackend(memstore.New())
	metrics := observability.NewMetrics()
	services := NewServices(cfg, backend, ServiceDeps{Metrics: metrics, Reporter: &integrity.Collector{}})
	return NewRouter(RouterParams{
		Config:      cfg,
		Services:    services,
		Metrics:     metrics,
		Tokens:      tokens,
		Idempotency: backend.Idempotency,
	})
}

func call(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)

	code, env := call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1", "name": "Asha Traders"}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.True(t, env.Success)

	code, env = call(t, h, http.MethodGet, "/invoices/next-id", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"invoice_id":"INV-1"}`, string(env.Data))

	code, env = call(t, h, http.MethodPost, "/invoices", map[string]any{
		"customer_id":  "C-1",
		"invoice_date": "2024-04-01",
		"packing":      "2",
		"items": []map[string]any{
			{"product_code": "A", "quantity": "2", "selling_price": "10"},
			{"product_code": "B", "quantity": "1", "selling_price": "5"},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created struct {
		InvoiceID       string   `json:"invoice_id"`
		CreatedProducts []string `json:"created_products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "INV-1", created.InvoiceID)
	assert.ElementsMatch(t, []string{"A", "B"}, created.CreatedProducts)

	code, env = call(t, h, http.MethodPost, "/transactions", map[string]any{
		"party_kind": "customer", "party_id": "C-1", "date": "2024-04-02", "txn_type": "cash", "amount": "7",
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = call(t, h, http.MethodGet, "/parties/customer/C-1/balance", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var balance struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &balance))
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(20)), balance.Balance.String())

	code, env = call(t, h, http.MethodGet, "/integrity", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var scan struct {
		Clean bool `json:"clean"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &scan))
	assert.True(t, scan.Clean)

	code, _ = call(t, h, http.MethodDelete, "/invoices/INV-1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = call(t, h, http.MethodGet, "/parties/customer/C-1/history", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMissingRecordIsAResultNotAFailure(t *testing.T) {
	h := newTestRouter(t, nil)
	code, env := call(t, h, http.MethodGet, "/invoices/INV-99", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "not_found", env.Status)
}

func TestValidationFailureNamesFields(t *testing.T) {
	h := newTestRouter(t, nil)
	code, env := call(t, h, http.MethodPost, "/invoices", map[string]any{"customer_id": "C-1", "invoice_date": "01/04/2024"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid", env.Status)
	assert.Contains(t, env.Fields, "invoice_date")
}

func TestIdempotencyKeyRejectsReplay(t *testing.T) {
	h := newTestRouter(t, nil)
	key := map[string]string{IdempotencyHeader: "k-1"}

	code, _ := call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1", "name": "One"}, key)
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-2", "name": "Two"}, key)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Status)

	code, _ = call(t, h, http.MethodGet, "/customers/C-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFailedRequestReleasesIdempotencyKey(t *testing.T) {
	h := newTestRouter(t, nil)
	key := map[string]string{IdempotencyHeader: "k-2"}

	code, _ := call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1"}, key)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1", "name": "One"}, key)
	assert.Equal(t, http.StatusCreated, code)
}

func TestTokenGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := shared.NewTokenChecker(string(hash))
	require.NoError(t, err)
	h := newTestRouter(t, tokens)

	code, env := call(t, h, http.MethodGet, "/customers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", env.Status)

	code, _ = call(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, h, http.MethodGet, "/customers", nil, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpointCountsIssuedDocuments(t *testing.T) {
	h := newTestRouter(t, nil)
	_, _ = call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1", "name": "One"}, nil)
	code, env := call(t, h, http.MethodPost, "/customer-orders", map[string]any{
		"party_id": "C-1", "order_date": "2024-01-01",
		"items": []map[string]any{{"product_code": "A", "quantity": "1"}},
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storeledger_documents_issued_total{doc_type="customer_order"} 1`)
}

func TestMirroredMaalUpdateIsConflict(t *testing.T) {
	h := newTestRouter(t, nil)

	code, env := call(t, h, http.MethodPost, "/customers", map[string]string{"id": "C-1", "name": "Asha Traders"}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, env = call(t, h, http.MethodPost, "/invoices", map[string]any{
		"customer_id": "C-1", "invoice_date": "2024-04-01",
		"items": []map[string]any{{"product_code": "A", "quantity": "1", "selling_price": "10"}},
	}, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = call(t, h, http.MethodGet, "/maal?party_kind=customer&party_id=C-1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var entries []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)

	code, env = call(t, h, http.MethodPut, fmt.Sprintf("/maal/%d", entries[0].ID), map[string]any{"date": "2024-04-01", "amount": "1"}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "conflict", env.Status)
}
