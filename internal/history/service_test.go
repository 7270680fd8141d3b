package history

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type countingStore struct {
	rows     []Row
	payments []Payment
	maal     decimal.Decimal
	jama     decimal.Decimal
	calls    atomic.Int32
}

func (s *countingStore) PartyHistory(context.Context, parties.Ref) ([]Row, error) {
	s.calls.Add(1)
	return append([]Row(nil), s.rows...), nil
}

func (s *countingStore) PartyPayments(context.Context, parties.Ref) ([]Payment, error) {
	return append([]Payment(nil), s.payments...), nil
}

func (s *countingStore) PartyTotals(context.Context, parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	return s.maal, s.jama, nil
}

var c2 = parties.Ref{Kind: parties.KindCustomer, ID: "C-2"}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestHistoryServedFromCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	store := &countingStore{rows: []Row{{Source: SourceMaal, InvoiceNo: "INV-1", Date: "2026-10-01", Amount: decimal.NewFromInt(100)}}}
	svc := NewService(store, NewCache(client, time.Minute), nil)

	first, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Amount.Equal(decimal.NewFromInt(100)))

	_, err = svc.PartyHistory(ctx, c2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, store.calls.Load())

	store.rows = append(store.rows, Row{Source: SourceInvoice, InvoiceNo: "INV-2", Date: "2026-10-02"})
	svc.Invalidate(ctx, c2)

	after, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)
	assert.Len(t, after, 2)
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestRedisOutageFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := &countingStore{rows: []Row{{Source: SourceMaal, InvoiceNo: "INV-1"}}}
	svc := NewService(store, NewCache(client, time.Minute), nil)

	_, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)

	mr.Close()
	store.rows = nil
	svc.Invalidate(ctx, c2)

	rows, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDirtyPartyBypassesCacheAfterFailedBump(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := &countingStore{rows: []Row{{Source: SourceMaal, InvoiceNo: "INV-1"}}}
	cache := NewCache(client, time.Minute)
	svc := NewService(store, cache, nil)

	_, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)

	mr.SetError("LOADING")
	svc.Invalidate(ctx, c2)
	mr.SetError("")

	store.rows = nil
	rows, err := svc.PartyHistory(ctx, c2)
	require.NoError(t, err)
	assert.Empty(t, rows, "stale cached rows must not be served")

	svc.Invalidate(ctx, c2)
	assert.False(t, cache.isDirty(c2))
}

func TestStatementCombinesViews(t *testing.T) {
	store := &countingStore{
		rows:     []Row{{Source: SourceMaal, InvoiceNo: "INV-1"}},
		payments: []Payment{{ID: 1, Amount: decimal.NewFromInt(40)}},
		maal:     decimal.NewFromInt(100),
		jama:     decimal.NewFromInt(40),
	}
	svc := NewService(store, nil, nil)

	st, err := svc.Statement(context.Background(), c2)
	require.NoError(t, err)
	assert.Len(t, st.History, 1)
	assert.Len(t, st.Payments, 1)
	assert.True(t, st.Balance.Balance.Equal(decimal.NewFromInt(60)))
}

func TestUnknownKindIsValidationError(t *testing.T) {
	svc := NewService(&countingStore{}, nil, nil)
	_, err := svc.PartyHistory(context.Background(), parties.Ref{Kind: "vendor", ID: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
