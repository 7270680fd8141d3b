package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// StubStore is the slice of the catalog the aggregate writers need inside their transaction.
type StubStore interface {
	InsertProductStub(ctx context.Context, code string) (bool, error)
	GetProduct(ctx context.Context, code string) (*Product, error)
}

// Repository persists the price list.
type Repository interface {
	StubStore
	ListProducts(ctx context.Context, req ListRequest) ([]Product, error)
	InsertProduct(ctx context.Context, p Product) (*Product, error)
	UpdateProduct(ctx context.Context, p Product) (*Product, error)
	SetProductDeleted(ctx context.Context, code string, deleted bool) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

// NewStubStore binds the stub operations to q, normally the aggregate's transaction.
func NewStubStore(q db.DBTX) StubStore {
	return &repository{db: q}
}

const productColumns = `code, name, size, packing_type, cost_price, selling_price, deleted, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.Code, &p.Name, &p.Size, &p.PackingType, &p.CostPrice, &p.SellingPrice, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) InsertProductStub(ctx context.Context, code string) (bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO products (code, name) VALUES ($1, $1) ON CONFLICT (code) DO NOTHING`, code)
	if err != nil {
		return false, shared.FromPg(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) GetProduct(ctx context.Context, code string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", code, shared.ErrNotFound)
	}
	return p, err
}

func (r *repository) ListProducts(ctx context.Context, req ListRequest) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ($1 OR NOT deleted)`
	args := []any{req.IncludeDeleted}
	if req.Search != "" {
		query += ` AND (code ILIKE $2 OR name ILIKE $2)`
		args = append(args, "%"+req.Search+"%")
	}
	query += ` ORDER BY name, size, code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) InsertProduct(ctx context.Context, p Product) (*Product, error) {
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO products (code, name, size, packing_type, cost_price, selling_price, deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)`, p.Code, p.Name, p.Size, p.PackingType, p.CostPrice, p.SellingPrice, now)
	if err != nil {
		return nil, shared.FromPg(err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return &p, nil
}

func (r *repository) UpdateProduct(ctx context.Context, p Product) (*Product, error) {
	out, err := scanProduct(r.db.QueryRow(ctx, `UPDATE products
SET name = $2, size = $3, packing_type = $4, cost_price = $5, selling_price = $6, updated_at = NOW()
WHERE code = $1
RETURNING `+productColumns, p.Code, p.Name, p.Size, p.PackingType, p.CostPrice, p.SellingPrice))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", p.Code, shared.ErrNotFound)
	}
	if err != nil {
		return nil, shared.FromPg(err)
	}
	return out, nil
}

func (r *repository) SetProductDeleted(ctx context.Context, code string, deleted bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET deleted = $2, updated_at = NOW() WHERE code = $1`, code, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", code, shared.ErrNotFound)
	}
	return nil
}
