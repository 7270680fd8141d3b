package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/sequence"
)

// Tx is what a guarded migration may touch.
type Tx interface {
	ClaimMigration(ctx context.Context, name string) (bool, error)
	InvoiceNumbers(ctx context.Context) ([]string, error)
	RaiseSequence(ctx context.Context, doc sequence.DocType, n int64) error
}

// Record is one row of the migration ledger.
type Record struct {
	Name       string    `json:"name"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Store applies DDL and runs migrations transactionally.
type Store interface {
	Apply(ctx context.Context, statements []string, seed []sequence.DocType) error
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	Applied(ctx context.Context) ([]Record, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns the PostgreSQL Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Apply(ctx context.Context, statements []string, seed []sequence.DocType) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		for _, doc := range seed {
			if _, err := tx.Exec(ctx, `INSERT INTO sequences (doc_type, last_number) VALUES ($1, 0) ON CONFLICT (doc_type) DO NOTHING`, string(doc)); err != nil {
				return fmt.Errorf("seed sequence %s: %w", doc, err)
			}
		}
		return nil
	})
}

func (s *pgStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithWriteTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{q: tx})
	})
}

func (s *pgStore) Applied(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, executed_at FROM schema_migrations ORDER BY executed_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.ExecutedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type pgTx struct {
	q db.DBTX
}

// ClaimMigration inserts the ledger row first. A concurrent starter blocks on the primary
// key until this transaction ends and then sees the row.
func (t *pgTx) ClaimMigration(ctx context.Context, name string) (bool, error) {
	tag, err := t.q.Exec(ctx, `INSERT INTO schema_migrations (name, executed_at) VALUES ($1, NOW()) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) InvoiceNumbers(ctx context.Context) ([]string, error) {
	rows, err := t.q.Query(ctx, `SELECT id FROM invoices UNION SELECT maal_invoice_no FROM maal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *pgTx) RaiseSequence(ctx context.Context, doc sequence.DocType, n int64) error {
	return sequence.NewStore(t.q).RaiseSequence(ctx, doc, n)
}
