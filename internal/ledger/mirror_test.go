package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type fakeMirrorStore struct {
	maal    map[string]MaalEntry
	headers map[string]bool
	lines   map[string]int
}

func newFakeMirrorStore() *fakeMirrorStore {
	return &fakeMirrorStore{maal: map[string]MaalEntry{}, headers: map[string]bool{}, lines: map[string]int{}}
}

func (f *fakeMirrorStore) InsertMaal(_ context.Context, m MaalEntry) (int64, error) {
	if _, ok := f.maal[m.InvoiceNo]; ok {
		return 0, &shared.ConstraintError{Constraint: "maal_invoice_no_key"}
	}
	f.maal[m.InvoiceNo] = m
	return int64(len(f.maal)), nil
}

func (f *fakeMirrorStore) UpdateMaalByInvoice(_ context.Context, m MaalEntry) (int64, error) {
	if _, ok := f.maal[m.InvoiceNo]; !ok {
		return 0, nil
	}
	f.maal[m.InvoiceNo] = m
	return 1, nil
}

func (f *fakeMirrorStore) DeleteMaalByInvoice(_ context.Context, no string) (int64, error) {
	if _, ok := f.maal[no]; !ok {
		return 0, nil
	}
	delete(f.maal, no)
	return 1, nil
}

func (f *fakeMirrorStore) DeleteInvoiceLines(_ context.Context, id string) (int64, error) {
	n := f.lines[id]
	delete(f.lines, id)
	return int64(n), nil
}

func (f *fakeMirrorStore) DeleteInvoiceHeader(_ context.Context, id string) (int64, error) {
	if !f.headers[id] {
		return 0, nil
	}
	delete(f.headers, id)
	return 1, nil
}

func snapshot(total int64) InvoiceSnapshot {
	return InvoiceSnapshot{ID: "INV-1", CustomerID: "C-1", Date: "2026-10-01", GrandTotal: decimal.NewFromInt(total), Remark: "first"}
}

func TestMirrorCopiesHeaderFields(t *testing.T) {
	ctx := context.Background()
	store := newFakeMirrorStore()
	m := &Mirror{}

	require.NoError(t, m.RecordInvoiceCreated(ctx, store, snapshot(27)))
	row := store.maal["INV-1"]
	assert.True(t, row.Amount.Equal(decimal.NewFromInt(27)))
	assert.Equal(t, "2026-10-01", row.Date)
	assert.Equal(t, "first", row.Remark)
	assert.Equal(t, "C-1", row.PartyID)

	upd := snapshot(32)
	upd.Remark = "edited"
	require.NoError(t, m.RecordInvoiceUpdated(ctx, store, upd))
	row = store.maal["INV-1"]
	assert.True(t, row.Amount.Equal(decimal.NewFromInt(32)))
	assert.Equal(t, "edited", row.Remark)
}

func TestMirrorUpdateWithoutRowReportsAndHeals(t *testing.T) {
	ctx := context.Background()
	store := newFakeMirrorStore()
	collector := &integrity.Collector{}
	m := &Mirror{Reporter: collector}

	require.NoError(t, m.RecordInvoiceUpdated(ctx, store, snapshot(10)))

	anomalies := collector.Anomalies()
	require.Len(t, anomalies, 1)
	assert.Equal(t, integrity.KindMirrorMissing, anomalies[0].Kind)
	assert.Equal(t, "INV-1", anomalies[0].Subject)
	assert.Contains(t, store.maal, "INV-1")
}

func TestMirrorDeleteRemovesEverything(t *testing.T) {
	ctx := context.Background()
	store := newFakeMirrorStore()
	m := &Mirror{}
	require.NoError(t, m.RecordInvoiceCreated(ctx, store, snapshot(5)))
	store.headers["INV-1"] = true
	store.lines["INV-1"] = 2

	require.NoError(t, m.RecordInvoiceDeleted(ctx, store, "INV-1"))
	assert.Empty(t, store.maal)
	assert.Empty(t, store.headers)
	assert.Empty(t, store.lines)
}

func TestMirrorDeleteMissingInvoiceIsNotFound(t *testing.T) {
	err := (&Mirror{}).RecordInvoiceDeleted(context.Background(), newFakeMirrorStore(), "INV-404")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBalanceLaw(t *testing.T) {
	b := NewBalance(snapshot(0).Party(), decimal.NewFromInt(100), decimal.NewFromInt(40))
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(60)))
}
