package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// TxRepository is everything an invoice write touches, bound to one transaction.
type TxRepository interface {
	sequence.Store
	catalog.StubStore
	ledger.MirrorStore
	PartyExists(ctx context.Context, party parties.Ref) (bool, error)
	LockInvoice(ctx context.Context, id string) (*Invoice, error)
	InsertInvoice(ctx context.Context, inv Invoice) error
	UpdateInvoiceHeader(ctx context.Context, inv Invoice) (int64, error)
	InsertInvoiceLine(ctx context.Context, invoiceID string, line Line) error
}

// Repository persists invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListRequest) ([]Invoice, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			Store:       sequence.NewStore(tx),
			StubStore:   catalog.NewStubStore(tx),
			MirrorStore: ledger.NewMirrorStore(tx),
			q:           tx,
		})
	})
}

type txRepository struct {
	sequence.Store
	catalog.StubStore
	ledger.MirrorStore
	q db.DBTX
}

func (t *txRepository) PartyExists(ctx context.Context, party parties.Ref) (bool, error) {
	return parties.Exists(ctx, t.q, party)
}

func (t *txRepository) LockInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := scanHeader(t.q.QueryRow(ctx, `SELECT `+headerColumns+` FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id
WHERE i.id = $1 FOR UPDATE OF i`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	return inv, err
}

func (t *txRepository) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.q.Exec(ctx, `INSERT INTO invoices (id, customer_id, invoice_date, remark, packing, freight, riksha, grand_total)
VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)`,
		inv.ID, inv.CustomerID, inv.Date, inv.Remark, inv.Packing, inv.Freight, inv.Riksha, inv.GrandTotal)
	return shared.FromPg(err)
}

func (t *txRepository) UpdateInvoiceHeader(ctx context.Context, inv Invoice) (int64, error) {
	tag, err := t.q.Exec(ctx, `UPDATE invoices
SET customer_id = $2, invoice_date = $3::date, remark = $4, packing = $5, freight = $6, riksha = $7, grand_total = $8, updated_at = NOW()
WHERE id = $1`, inv.ID, inv.CustomerID, inv.Date, inv.Remark, inv.Packing, inv.Freight, inv.Riksha, inv.GrandTotal)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) InsertInvoiceLine(ctx context.Context, invoiceID string, line Line) error {
	_, err := t.q.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, line_no, product_code, quantity, selling_price) VALUES ($1, $2, $3, $4, $5)`,
		invoiceID, line.LineNo, line.ProductCode, line.Quantity, line.SellingPrice)
	return shared.FromPg(err)
}

const headerColumns = `i.id, i.customer_id, COALESCE(c.name, ''), i.invoice_date::text, i.remark, i.packing, i.freight, i.riksha, i.grand_total, i.created_at, i.updated_at`

func scanHeader(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.Date, &inv.Remark,
		&inv.Packing, &inv.Freight, &inv.Riksha, &inv.GrandTotal, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := scanHeader(r.db.QueryRow(ctx, `SELECT `+headerColumns+` FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT l.line_no, l.product_code, COALESCE(p.name, l.product_code), l.quantity, l.selling_price
FROM invoice_lines l LEFT JOIN products p ON p.code = l.product_code
WHERE l.invoice_id = $1 ORDER BY l.line_no`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.LineNo, &l.ProductCode, &l.ProductName, &l.Quantity, &l.SellingPrice); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func (r *repository) ListInvoices(ctx context.Context, req ListRequest) ([]Invoice, error) {
	query := `SELECT ` + headerColumns + ` FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id WHERE 1=1`
	var args []any
	if req.CustomerID != "" {
		args = append(args, req.CustomerID)
		query += ` AND i.customer_id = $` + strconv.Itoa(len(args))
	}
	if req.From != "" {
		args = append(args, req.From)
		query += ` AND i.invoice_date >= $` + strconv.Itoa(len(args)) + `::date`
	}
	if req.To != "" {
		args = append(args, req.To)
		query += ` AND i.invoice_date <= $` + strconv.Itoa(len(args)) + `::date`
	}
	query += ` ORDER BY i.invoice_date DESC, i.created_at DESC`
	if req.Limit > 0 {
		args = append(args, req.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if req.Offset > 0 {
		args = append(args, req.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
