package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type TxRepository interface {
	sequence.Store
	catalog.StubStore
	PartyExists(ctx context.Context, party parties.Ref) (bool, error)
	LockOrder(ctx context.Context, kind parties.Kind, id string) (*Order, error)
	InsertOrder(ctx context.Context, o Order) error
	UpdateOrderHeader(ctx context.Context, o Order) (int64, error)
	SetOrderStatus(ctx context.Context, kind parties.Kind, id string, status Status) (int64, error)
	InsertOrderLine(ctx context.Context, kind parties.Kind, orderID string, line Line) error
	DeleteOrderLines(ctx context.Context, kind parties.Kind, orderID string) (int64, error)
	DeleteOrderHeader(ctx context.Context, kind parties.Kind, orderID string) (int64, error)
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, kind parties.Kind, id string) (*Order, error)
	ListOrders(ctx context.Context, kind parties.Kind, req ListRequest) ([]Order, error)
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
			Store:     sequence.NewStore(tx),
			StubStore: catalog.NewStubStore(tx),
			q:         tx,
		})
	})
}

type txRepository struct {
	sequence.Store
	catalog.StubStore
	q db.DBTX
}

func headerSelect(kind parties.Kind) string {
	t := tables(kind)
	table := kind.Table()
	return `SELECT o.id, o.` + t.partyCol + `, COALESCE(p.name, ''), o.order_date::text, o.remark, o.status, o.created_at, o.updated_at
FROM ` + t.header + ` o LEFT JOIN ` + table + ` p ON p.id = o.` + t.partyCol
}

func scanOrder(kind parties.Kind, row pgx.Row) (*Order, error) {
	o := Order{Kind: kind}
	var status string
	if err := row.Scan(&o.ID, &o.PartyID, &o.PartyName, &o.Date, &o.Remark, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func (t *txRepository) PartyExists(ctx context.Context, party parties.Ref) (bool, error) {
	return parties.Exists(ctx, t.q, party)
}

func (t *txRepository) LockOrder(ctx context.Context, kind parties.Kind, id string) (*Order, error) {
	o, err := scanOrder(kind, t.q.QueryRow(ctx, headerSelect(kind)+` WHERE o.id = $1 FOR UPDATE OF o`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
	}
	return o, err
}

func (t *txRepository) InsertOrder(ctx context.Context, o Order) error {
	tb := tables(o.Kind)
	_, err := t.q.Exec(ctx, `INSERT INTO `+tb.header+` (id, `+tb.partyCol+`, order_date, remark, status) VALUES ($1, $2, $3::date, $4, $5)`,
		o.ID, o.PartyID, o.Date, o.Remark, string(o.Status))
	return shared.FromPg(err)
}

func (t *txRepository) UpdateOrderHeader(ctx context.Context, o Order) (int64, error) {
	tb := tables(o.Kind)
	tag, err := t.q.Exec(ctx, `UPDATE `+tb.header+` SET `+tb.partyCol+` = $2, order_date = $3::date, remark = $4, status = $5, updated_at = NOW() WHERE id = $1`,
		o.ID, o.PartyID, o.Date, o.Remark, string(o.Status))
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) SetOrderStatus(ctx context.Context, kind parties.Kind, id string, status Status) (int64, error) {
	tag, err := t.q.Exec(ctx, `UPDATE `+tables(kind).header+` SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) InsertOrderLine(ctx context.Context, kind parties.Kind, orderID string, line Line) error {
	_, err := t.q.Exec(ctx, `INSERT INTO `+tables(kind).lines+` (order_id, line_no, product_code, quantity) VALUES ($1, $2, $3, $4)`,
		orderID, line.LineNo, line.ProductCode, line.Quantity)
	return shared.FromPg(err)
}

func (t *txRepository) DeleteOrderLines(ctx context.Context, kind parties.Kind, orderID string) (int64, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM `+tables(kind).lines+` WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txRepository) DeleteOrderHeader(ctx context.Context, kind parties.Kind, orderID string) (int64, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM `+tables(kind).header+` WHERE id = $1`, orderID)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (r *repository) GetOrder(ctx context.Context, kind parties.Kind, id string) (*Order, error) {
	o, err := scanOrder(kind, r.db.QueryRow(ctx, headerSelect(kind)+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT l.line_no, l.product_code, COALESCE(p.name, l.product_code), l.quantity
FROM `+tables(kind).lines+` l LEFT JOIN products p ON p.code = l.product_code
WHERE l.order_id = $1 ORDER BY l.line_no`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.LineNo, &l.ProductCode, &l.ProductName, &l.Quantity); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *repository) ListOrders(ctx context.Context, kind parties.Kind, req ListRequest) ([]Order, error) {
	query := headerSelect(kind) + ` WHERE 1=1`
	var args []any
	if req.PartyID != "" {
		args = append(args, req.PartyID)
		query += ` AND o.` + tables(kind).partyCol + ` = $` + strconv.Itoa(len(args))
	}
	if req.Status != "" {
		args = append(args, string(req.Status))
		query += ` AND o.status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY o.order_date DESC, o.created_at DESC`
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
	var out []Order
	for rows.Next() {
		o, err := scanOrder(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
