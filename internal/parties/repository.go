package parties

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Repository persists customers and suppliers.
type Repository interface {
	List(ctx context.Context, kind Kind, req ListRequest) ([]Party, error)
	Get(ctx context.Context, ref Ref) (*Party, error)
	Create(ctx context.Context, p Party) (*Party, error)
	Update(ctx context.Context, p Party) (*Party, error)
	Delete(ctx context.Context, ref Ref) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

// Exists reports whether the party row is present. It is shared with the ledger and
// aggregate writers, which must reject entries for unknown parties inside their transaction.
func Exists(ctx context.Context, q db.DBTX, ref Ref) (bool, error) {
	if !ref.Kind.Valid() {
		return false, fmt.Errorf("parties: unknown kind %q", ref.Kind)
	}
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+ref.Kind.Table()+` WHERE id = $1)`, ref.ID).Scan(&ok)
	return ok, err
}

func (r *repository) List(ctx context.Context, kind Kind, req ListRequest) ([]Party, error) {
	query := `SELECT id, name, address, mobile, created_at, updated_at FROM ` + kind.Table() + ` WHERE 1=1`
	args := []any{}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR mobile ILIKE $` + n + ` OR id ILIKE $` + n + `)`
	}
	query += ` ORDER BY name, id`
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

	var out []Party
	for rows.Next() {
		p := Party{Kind: kind}
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Mobile, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, ref Ref) (*Party, error) {
	p := Party{Kind: ref.Kind}
	err := r.db.QueryRow(ctx, `SELECT id, name, address, mobile, created_at, updated_at FROM `+ref.Kind.Table()+` WHERE id = $1`, ref.ID).
		Scan(&p.ID, &p.Name, &p.Address, &p.Mobile, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p Party) (*Party, error) {
	now := time.Now()
	_, err := r.db.Exec(ctx, `INSERT INTO `+p.Kind.Table()+` (id, name, address, mobile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		p.ID, p.Name, p.Address, p.Mobile, now)
	if err != nil {
		return nil, shared.FromPg(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p Party) (*Party, error) {
	err := r.db.QueryRow(ctx, `UPDATE `+p.Kind.Table()+` SET name = $2, address = $3, mobile = $4, updated_at = NOW() WHERE id = $1 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Address, p.Mobile).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", p.Kind, p.ID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, shared.FromPg(err)
	}
	return &p, nil
}

// Delete removes a party. Ledger rows reference parties without a foreign key, so the
// check for them happens here and surfaces as a constraint error like the engine's own.
func (r *repository) Delete(ctx context.Context, ref Ref) error {
	var referenced bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM maal WHERE party_kind = $1 AND party_id = $2)
	OR EXISTS (SELECT 1 FROM jama WHERE party_kind = $1 AND party_id = $2)`, string(ref.Kind), ref.ID).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return &shared.ConstraintError{Constraint: "ledger_party_ref", Message: "party has ledger entries"}
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM `+ref.Kind.Table()+` WHERE id = $1`, ref.ID)
	if err != nil {
		return shared.FromPg(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, shared.ErrNotFound)
	}
	return nil
}
