package schema

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/sequence"
)

type fakeState struct {
	migrations map[string]time.Time
	invoices   []string
	sequences  map[sequence.DocType]int64
}

func (s fakeState) clone() fakeState {
	out := fakeState{
		migrations: make(map[string]time.Time, len(s.migrations)),
		invoices:   append([]string(nil), s.invoices...),
		sequences:  make(map[sequence.DocType]int64, len(s.sequences)),
	}
	for k, v := range s.migrations {
		out.migrations[k] = v
	}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	return out
}

type fakeStore struct {
	state   fakeState
	applies int
}

func newFakeStore(invoices ...string) *fakeStore {
	return &fakeStore{state: fakeState{
		migrations: map[string]time.Time{},
		invoices:   invoices,
		sequences:  map[sequence.DocType]int64{},
	}}
}

func (f *fakeStore) Apply(_ context.Context, stmts []string, seed []sequence.DocType) error {
	f.applies++
	for _, doc := range seed {
		if _, ok := f.state.sequences[doc]; !ok {
			f.state.sequences[doc] = 0
		}
	}
	return nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	work := &fakeTx{state: f.state.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	f.state = work.state
	return nil
}

func (f *fakeStore) Applied(context.Context) ([]Record, error) {
	var out []Record
	for name, at := range f.state.migrations {
		out = append(out, Record{Name: name, ExecutedAt: at})
	}
	return out, nil
}

type fakeTx struct {
	state fakeState
}

func (t *fakeTx) ClaimMigration(_ context.Context, name string) (bool, error) {
	if _, ok := t.state.migrations[name]; ok {
		return false, nil
	}
	t.state.migrations[name] = time.Now()
	return true, nil
}

func (t *fakeTx) InvoiceNumbers(context.Context) ([]string, error) {
	return t.state.invoices, nil
}

func (t *fakeTx) RaiseSequence(_ context.Context, doc sequence.DocType, n int64) error {
	if n > t.state.sequences[doc] {
		t.state.sequences[doc] = n
	}
	return nil
}

func TestGuardedMigrationRunsOnce(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	calls := 0
	action := func(context.Context, Tx) error { calls++; return nil }

	applied, err := m.RunGuardedMigration(context.Background(), "x", action)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = m.RunGuardedMigration(context.Background(), "x", action)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, calls)
}

func TestGuardedMigrationFailureLeavesNoRecord(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)

	_, err := m.RunGuardedMigration(context.Background(), "broken", func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.RaiseSequence(ctx, sequence.DocInvoice, 99))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, store.state.migrations)
	assert.Zero(t, store.state.sequences[sequence.DocInvoice])

	applied, err := m.RunGuardedMigration(context.Background(), "broken", func(context.Context, Tx) error { return nil })
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestGuardedMigrationRequiresName(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	_, err := m.RunGuardedMigration(context.Background(), "", func(context.Context, Tx) error { return nil })
	require.Error(t, err)
}

func TestBootstrapReconcilesLegacyNumbers(t *testing.T) {
	store := newFakeStore("INV-3", "INV0012", "inv-7", "SO-40", "misc")
	m := NewManager(store, nil)

	require.NoError(t, m.Bootstrap(context.Background()))
	assert.Equal(t, int64(12), store.state.sequences[sequence.DocInvoice])
	assert.Equal(t, int64(0), store.state.sequences[sequence.DocSupplierOrder])

	// a second start changes nothing even if new legacy rows appear
	store.state.invoices = append(store.state.invoices, "INV-500")
	require.NoError(t, m.Bootstrap(context.Background()))
	assert.Equal(t, int64(12), store.state.sequences[sequence.DocInvoice])
	assert.Equal(t, 2, store.applies)

	records, err := m.Applied(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "reconcile_invoice_sequence_v1", records[0].Name)
}

func TestReconcileNeverLowersSequence(t *testing.T) {
	store := newFakeStore("INV-2")
	store.state.sequences[sequence.DocInvoice] = 10
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return ReconcileInvoiceSequence(ctx, tx)
	}))
	assert.Equal(t, int64(10), store.state.sequences[sequence.DocInvoice])
}

func TestMaxLegacyNumber(t *testing.T) {
	assert.Equal(t, int64(0), MaxLegacyNumber(nil))
	assert.Equal(t, int64(41), MaxLegacyNumber([]string{"INV41", "INV-9", "INV-"}))
}

func TestStatementsAreIdempotent(t *testing.T) {
	for _, stmt := range statements {
		upper := strings.ToUpper(stmt)
		assert.True(t, strings.Contains(upper, "IF NOT EXISTS"), stmt)
		assert.NotContains(t, upper, "DROP ")
	}
}
