// Package memstore is an in-process implementation of every repository in the ledger.
// Each write transaction works on a private copy of the state and swaps it in on commit,
// so a failed operation leaves no trace. Transactions are serialized by one mutex.
//
// It backs the memory storage driver and the end-to-end tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/invoicing"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/orders"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
)

// ErrInjected is returned by operations armed with FailOn.
var ErrInjected = errors.New("memstore: injected failure")

type orderKey struct {
	kind parties.Kind
	id   string
}

type state struct {
	sequences    map[sequence.DocType]int64
	pool         map[sequence.DocType]map[int64]struct{}
	products     map[string]catalog.Product
	parties      map[parties.Ref]parties.Party
	invoices     map[string]invoicing.Invoice
	invoiceLines map[string][]invoicing.Line
	maal         map[int64]ledger.MaalEntry
	jama         map[int64]ledger.JamaEntry
	orders       map[orderKey]orders.Order
	orderLines   map[orderKey][]orders.Line
	nextMaal     int64
	nextJama     int64
}

func newState() *state {
	s := &state{
		sequences:    map[sequence.DocType]int64{},
		pool:         map[sequence.DocType]map[int64]struct{}{},
		products:     map[string]catalog.Product{},
		parties:      map[parties.Ref]parties.Party{},
		invoices:     map[string]invoicing.Invoice{},
		invoiceLines: map[string][]invoicing.Line{},
		maal:         map[int64]ledger.MaalEntry{},
		jama:         map[int64]ledger.JamaEntry{},
		orders:       map[orderKey]orders.Order{},
		orderLines:   map[orderKey][]orders.Line{},
	}
	for _, doc := range sequence.DocTypes() {
		s.sequences[doc] = 0
	}
	return s
}

// clone copies every table. Row values hold no shared mutable memory except line
// slices, which are copied per key.
func (s *state) clone() *state {
	out := &state{
		sequences:    maps.Clone(s.sequences),
		pool:         make(map[sequence.DocType]map[int64]struct{}, len(s.pool)),
		products:     maps.Clone(s.products),
		parties:      maps.Clone(s.parties),
		invoices:     maps.Clone(s.invoices),
		invoiceLines: make(map[string][]invoicing.Line, len(s.invoiceLines)),
		maal:         maps.Clone(s.maal),
		jama:         maps.Clone(s.jama),
		orders:       maps.Clone(s.orders),
		orderLines:   make(map[orderKey][]orders.Line, len(s.orderLines)),
		nextMaal:     s.nextMaal,
		nextJama:     s.nextJama,
	}
	for doc, set := range s.pool {
		out.pool[doc] = maps.Clone(set)
	}
	for id, lines := range s.invoiceLines {
		out.invoiceLines[id] = append([]invoicing.Line(nil), lines...)
	}
	for key, lines := range s.orderLines {
		out.orderLines[key] = append([]orders.Line(nil), lines...)
	}
	return out
}

type fault struct {
	after int
	err   error
}

// DB is the shared in-memory database.
type DB struct {
	mu     sync.Mutex
	st     *state
	last   time.Time
	faults map[string]*fault

	keysOnce sync.Once
	keys     *Keys
}

func New() *DB {
	return &DB{st: newState(), faults: map[string]*fault{}}
}

// FailOn arms op to fail with err on its nth call from now (n starts at 1). A nil err
// means ErrInjected. The fault disarms after firing.
func (d *DB) FailOn(op string, n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[op] = &fault{after: n, err: err}
}

// Tx is one transaction. It implements the transaction scoped repositories of every
// package and the read-side stores.
type Tx struct {
	db *DB
	st *state
}

// update runs fn on a private copy and commits it when fn succeeds.
func (d *DB) update(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	tx := &Tx{db: d, st: d.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	d.st = tx.st
	return nil
}

// view runs fn against the committed state.
func (d *DB) view(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(&Tx{db: d, st: d.st})
}

// now returns a strictly increasing timestamp so that created_at ordering is total.
// Callers hold d.mu.
func (d *DB) now() time.Time {
	t := time.Now().UTC()
	if !t.After(d.last) {
		t = d.last.Add(time.Microsecond)
	}
	d.last = t
	return t
}

// trip consumes one call of op and returns the armed error when it is due.
func (t *Tx) trip(op string) error {
	f, ok := t.db.faults[op]
	if !ok {
		return nil
	}
	f.after--
	if f.after > 0 {
		return nil
	}
	delete(t.db.faults, op)
	return fmt.Errorf("%s: %w", op, f.err)
}

// Stats counts rows per table.
type Stats struct {
	Products     int
	Parties      int
	Invoices     int
	InvoiceLines int
	Maal         int
	Jama         int
	Orders       int
	OrderLines   int
}

func (d *DB) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Stats{
		Products: len(d.st.products),
		Parties:  len(d.st.parties),
		Invoices: len(d.st.invoices),
		Maal:     len(d.st.maal),
		Jama:     len(d.st.jama),
		Orders:   len(d.st.orders),
	}
	for _, lines := range d.st.invoiceLines {
		s.InvoiceLines += len(lines)
	}
	for _, lines := range d.st.orderLines {
		s.OrderLines += len(lines)
	}
	return s
}
