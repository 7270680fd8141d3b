package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/history"
	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/invoicing"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/orders"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
)

func read[T any](ctx context.Context, d *DB, fn func(*Tx) (T, error)) (T, error) {
	var out T
	err := d.view(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func write[T any](ctx context.Context, d *DB, fn func(*Tx) (T, error)) (T, error) {
	var out T
	err := d.update(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

// Sequences runs fn in a write transaction with the sequence store.
func (d *DB) Sequences(ctx context.Context, fn func(context.Context, sequence.Store) error) error {
	return d.update(ctx, func(tx *Tx) error { return fn(ctx, tx) })
}

// SetSequence overwrites the last issued number of doc.
func (d *DB) SetSequence(doc sequence.DocType, n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.sequences[doc] = n
}

func (d *DB) Parties() parties.Repository { return partyRepo{d} }

type partyRepo struct{ d *DB }

func (r partyRepo) List(ctx context.Context, kind parties.Kind, req parties.ListRequest) ([]parties.Party, error) {
	return read(ctx, r.d, func(tx *Tx) ([]parties.Party, error) { return tx.ListParties(ctx, kind, req) })
}

func (r partyRepo) Get(ctx context.Context, ref parties.Ref) (*parties.Party, error) {
	return read(ctx, r.d, func(tx *Tx) (*parties.Party, error) { return tx.GetParty(ctx, ref) })
}

func (r partyRepo) Create(ctx context.Context, p parties.Party) (*parties.Party, error) {
	return write(ctx, r.d, func(tx *Tx) (*parties.Party, error) { return tx.CreateParty(ctx, p) })
}

func (r partyRepo) Update(ctx context.Context, p parties.Party) (*parties.Party, error) {
	return write(ctx, r.d, func(tx *Tx) (*parties.Party, error) { return tx.UpdateParty(ctx, p) })
}

func (r partyRepo) Delete(ctx context.Context, ref parties.Ref) error {
	return r.d.update(ctx, func(tx *Tx) error { return tx.DeleteParty(ctx, ref) })
}

func (d *DB) Catalog() catalog.Repository { return catalogRepo{d} }

type catalogRepo struct{ d *DB }

func (r catalogRepo) InsertProductStub(ctx context.Context, code string) (bool, error) {
	return write(ctx, r.d, func(tx *Tx) (bool, error) { return tx.InsertProductStub(ctx, code) })
}

func (r catalogRepo) GetProduct(ctx context.Context, code string) (*catalog.Product, error) {
	return read(ctx, r.d, func(tx *Tx) (*catalog.Product, error) { return tx.GetProduct(ctx, code) })
}

func (r catalogRepo) ListProducts(ctx context.Context, req catalog.ListRequest) ([]catalog.Product, error) {
	return read(ctx, r.d, func(tx *Tx) ([]catalog.Product, error) { return tx.ListProducts(ctx, req) })
}

func (r catalogRepo) InsertProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	return write(ctx, r.d, func(tx *Tx) (*catalog.Product, error) { return tx.InsertProduct(ctx, p) })
}

func (r catalogRepo) UpdateProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	return write(ctx, r.d, func(tx *Tx) (*catalog.Product, error) { return tx.UpdateProduct(ctx, p) })
}

func (r catalogRepo) SetProductDeleted(ctx context.Context, code string, deleted bool) error {
	return r.d.update(ctx, func(tx *Tx) error { return tx.SetProductDeleted(ctx, code, deleted) })
}

func (d *DB) Ledger() ledger.Repository { return ledgerRepo{d} }

type ledgerRepo struct{ d *DB }

func (r ledgerRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return r.d.update(ctx, func(tx *Tx) error { return fn(ctx, tx) })
}

func (r ledgerRepo) ListMaal(ctx context.Context, party parties.Ref) ([]ledger.MaalEntry, error) {
	return read(ctx, r.d, func(tx *Tx) ([]ledger.MaalEntry, error) { return tx.ListMaal(ctx, party) })
}

func (r ledgerRepo) GetMaal(ctx context.Context, id int64) (*ledger.MaalEntry, error) {
	return read(ctx, r.d, func(tx *Tx) (*ledger.MaalEntry, error) { return tx.GetMaal(ctx, id) })
}

func (r ledgerRepo) ListJama(ctx context.Context, party parties.Ref) ([]ledger.JamaEntry, error) {
	return read(ctx, r.d, func(tx *Tx) ([]ledger.JamaEntry, error) { return tx.ListJama(ctx, party) })
}

func (r ledgerRepo) GetJama(ctx context.Context, id int64) (*ledger.JamaEntry, error) {
	return read(ctx, r.d, func(tx *Tx) (*ledger.JamaEntry, error) { return tx.GetJama(ctx, id) })
}

func (r ledgerRepo) PartyTotals(ctx context.Context, party parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	return r.d.History().PartyTotals(ctx, party)
}

func (d *DB) Invoices() invoicing.Repository { return invoiceRepo{d} }

type invoiceRepo struct{ d *DB }

func (r invoiceRepo) WithTx(ctx context.Context, fn func(context.Context, invoicing.TxRepository) error) error {
	return r.d.update(ctx, func(tx *Tx) error { return fn(ctx, tx) })
}

func (r invoiceRepo) GetInvoice(ctx context.Context, id string) (*invoicing.Invoice, error) {
	return read(ctx, r.d, func(tx *Tx) (*invoicing.Invoice, error) { return tx.GetInvoice(ctx, id) })
}

func (r invoiceRepo) ListInvoices(ctx context.Context, req invoicing.ListRequest) ([]invoicing.Invoice, error) {
	return read(ctx, r.d, func(tx *Tx) ([]invoicing.Invoice, error) { return tx.ListInvoices(ctx, req) })
}

func (d *DB) Orders() orders.Repository { return orderRepo{d} }

type orderRepo struct{ d *DB }

func (r orderRepo) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	return r.d.update(ctx, func(tx *Tx) error { return fn(ctx, tx) })
}

func (r orderRepo) GetOrder(ctx context.Context, kind parties.Kind, id string) (*orders.Order, error) {
	return read(ctx, r.d, func(tx *Tx) (*orders.Order, error) { return tx.GetOrder(ctx, kind, id) })
}

func (r orderRepo) ListOrders(ctx context.Context, kind parties.Kind, req orders.ListRequest) ([]orders.Order, error) {
	return read(ctx, r.d, func(tx *Tx) ([]orders.Order, error) { return tx.ListOrders(ctx, kind, req) })
}

func (d *DB) History() history.Store { return historyStore{d} }

type historyStore struct{ d *DB }

func (s historyStore) PartyHistory(ctx context.Context, party parties.Ref) ([]history.Row, error) {
	return read(ctx, s.d, func(tx *Tx) ([]history.Row, error) { return tx.PartyHistory(ctx, party) })
}

func (s historyStore) PartyPayments(ctx context.Context, party parties.Ref) ([]history.Payment, error) {
	return read(ctx, s.d, func(tx *Tx) ([]history.Payment, error) { return tx.PartyPayments(ctx, party) })
}

func (s historyStore) PartyTotals(ctx context.Context, party parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	var maal, jama decimal.Decimal
	err := s.d.view(ctx, func(tx *Tx) error {
		var err error
		maal, jama, err = tx.PartyTotals(ctx, party)
		return err
	})
	return maal, jama, err
}

func (d *DB) Integrity() integrity.Store { return integrityStore{d} }

type integrityStore struct{ d *DB }

func (s integrityStore) MissingMirrors(ctx context.Context) ([]string, error) {
	return read(ctx, s.d, func(tx *Tx) ([]string, error) { return tx.MissingMirrors(ctx) })
}

func (s integrityStore) MismatchedMirrors(ctx context.Context) ([]integrity.Anomaly, error) {
	return read(ctx, s.d, func(tx *Tx) ([]integrity.Anomaly, error) { return tx.MismatchedMirrors(ctx) })
}

func (s integrityStore) GrandTotalDrift(ctx context.Context) ([]integrity.Anomaly, error) {
	return read(ctx, s.d, func(tx *Tx) ([]integrity.Anomaly, error) { return tx.GrandTotalDrift(ctx) })
}

func (s integrityStore) PoolAboveSequence(ctx context.Context) ([]integrity.Anomaly, error) {
	return read(ctx, s.d, func(tx *Tx) ([]integrity.Anomaly, error) { return tx.PoolAboveSequence(ctx) })
}

var (
	_ ledger.TxRepository    = (*Tx)(nil)
	_ invoicing.TxRepository = (*Tx)(nil)
	_ orders.TxRepository    = (*Tx)(nil)
	_ history.Store          = (*Tx)(nil)
	_ integrity.Store        = (*Tx)(nil)
)
