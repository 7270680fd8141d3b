package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Reader serves the ledger reads.
type Reader interface {
	ListMaal(ctx context.Context, party parties.Ref) ([]MaalEntry, error)
	GetMaal(ctx context.Context, id int64) (*MaalEntry, error)
	ListJama(ctx context.Context, party parties.Ref) ([]JamaEntry, error)
	GetJama(ctx context.Context, id int64) (*JamaEntry, error)
	PartyTotals(ctx context.Context, party parties.Ref) (maal, jama decimal.Decimal, err error)
}

// TxRepository is the write side available inside WithTx.
type TxRepository interface {
	MirrorStore
	sequence.Store
	PartyExists(ctx context.Context, party parties.Ref) (bool, error)
	GetMaal(ctx context.Context, id int64) (*MaalEntry, error)
	MaalNumberTaken(ctx context.Context, invoiceNo string) (bool, error)
	UpdateMaal(ctx context.Context, m MaalEntry) (int64, error)
	DeleteMaal(ctx context.Context, id int64) (int64, error)
	InsertJama(ctx context.Context, j JamaEntry) (int64, error)
	GetJama(ctx context.Context, id int64) (*JamaEntry, error)
	UpdateJama(ctx context.Context, j JamaEntry) (int64, error)
	DeleteJama(ctx context.Context, id int64) (int64, error)
}

// Repository combines reads with transactional writes.
type Repository interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithWriteTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			Store: sequence.NewStore(tx),
			store: &store{q: tx},
		})
	})
}

type txRepository struct {
	sequence.Store
	*store
}

// store holds the statements shared by the pool and transaction paths.
type store struct {
	q db.DBTX
}

// NewMirrorStore binds the mirror statements to q.
func NewMirrorStore(q db.DBTX) MirrorStore {
	return &store{q: q}
}

const maalColumns = `m.id, m.party_kind, m.party_id, m.maal_invoice_no, m.entry_date::text, m.amount, m.remark,
EXISTS (SELECT 1 FROM invoices i WHERE i.id = m.maal_invoice_no), m.created_at`

func scanMaal(row pgx.Row) (*MaalEntry, error) {
	var m MaalEntry
	var kind string
	if err := row.Scan(&m.ID, &kind, &m.PartyID, &m.InvoiceNo, &m.Date, &m.Amount, &m.Remark, &m.Linked, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.PartyKind = parties.Kind(kind)
	return &m, nil
}

const jamaColumns = `id, party_kind, party_id, entry_date::text, txn_type, amount, remark, created_at`

func scanJama(row pgx.Row) (*JamaEntry, error) {
	var j JamaEntry
	var kind, txn string
	if err := row.Scan(&j.ID, &kind, &j.PartyID, &j.Date, &txn, &j.Amount, &j.Remark, &j.CreatedAt); err != nil {
		return nil, err
	}
	j.PartyKind = parties.Kind(kind)
	j.TxnType = TxnType(txn)
	return &j, nil
}

func (r *repository) ListMaal(ctx context.Context, party parties.Ref) ([]MaalEntry, error) {
	return (&store{q: r.db}).listMaal(ctx, party)
}

func (r *repository) GetMaal(ctx context.Context, id int64) (*MaalEntry, error) {
	return (&store{q: r.db}).GetMaal(ctx, id)
}

func (r *repository) ListJama(ctx context.Context, party parties.Ref) ([]JamaEntry, error) {
	return (&store{q: r.db}).listJama(ctx, party)
}

func (r *repository) GetJama(ctx context.Context, id int64) (*JamaEntry, error) {
	return (&store{q: r.db}).GetJama(ctx, id)
}

func (r *repository) PartyTotals(ctx context.Context, party parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	var maal, jama decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM maal WHERE party_kind = $1 AND party_id = $2), 0),
	COALESCE((SELECT SUM(amount) FROM jama WHERE party_kind = $1 AND party_id = $2), 0)`,
		string(party.Kind), party.ID).Scan(&maal, &jama)
	return maal, jama, err
}

func (s *store) listMaal(ctx context.Context, party parties.Ref) ([]MaalEntry, error) {
	rows, err := s.q.Query(ctx, `SELECT `+maalColumns+` FROM maal m WHERE m.party_kind = $1 AND m.party_id = $2 ORDER BY m.entry_date DESC, m.id DESC`,
		string(party.Kind), party.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MaalEntry
	for rows.Next() {
		m, err := scanMaal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *store) listJama(ctx context.Context, party parties.Ref) ([]JamaEntry, error) {
	rows, err := s.q.Query(ctx, `SELECT `+jamaColumns+` FROM jama WHERE party_kind = $1 AND party_id = $2 ORDER BY entry_date DESC, id DESC`,
		string(party.Kind), party.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JamaEntry
	for rows.Next() {
		j, err := scanJama(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (s *store) PartyExists(ctx context.Context, party parties.Ref) (bool, error) {
	return parties.Exists(ctx, s.q, party)
}

func (s *store) GetMaal(ctx context.Context, id int64) (*MaalEntry, error) {
	m, err := scanMaal(s.q.QueryRow(ctx, `SELECT `+maalColumns+` FROM maal m WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("maal %d: %w", id, shared.ErrNotFound)
	}
	return m, err
}

func (s *store) MaalNumberTaken(ctx context.Context, invoiceNo string) (bool, error) {
	var taken bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM maal WHERE maal_invoice_no = $1)
	OR EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, invoiceNo).Scan(&taken)
	return taken, err
}

func (s *store) InsertMaal(ctx context.Context, m MaalEntry) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `INSERT INTO maal (party_kind, party_id, maal_invoice_no, entry_date, amount, remark)
VALUES ($1, $2, $3, $4::date, $5, $6) RETURNING id`,
		string(m.PartyKind), m.PartyID, m.InvoiceNo, m.Date, m.Amount, m.Remark).Scan(&id)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return id, nil
}

func (s *store) UpdateMaalByInvoice(ctx context.Context, m MaalEntry) (int64, error) {
	tag, err := s.q.Exec(ctx, `UPDATE maal SET party_kind = $2, party_id = $3, entry_date = $4::date, amount = $5, remark = $6, updated_at = NOW()
WHERE maal_invoice_no = $1`, m.InvoiceNo, string(m.PartyKind), m.PartyID, m.Date, m.Amount, m.Remark)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (s *store) UpdateMaal(ctx context.Context, m MaalEntry) (int64, error) {
	tag, err := s.q.Exec(ctx, `UPDATE maal SET entry_date = $2::date, amount = $3, remark = $4, updated_at = NOW() WHERE id = $1`,
		m.ID, m.Date, m.Amount, m.Remark)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (s *store) DeleteMaalByInvoice(ctx context.Context, invoiceNo string) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM maal WHERE maal_invoice_no = $1`, invoiceNo)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *store) DeleteMaal(ctx context.Context, id int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM maal WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *store) DeleteInvoiceLines(ctx context.Context, invoiceID string) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *store) DeleteInvoiceHeader(ctx context.Context, invoiceID string) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (s *store) InsertJama(ctx context.Context, j JamaEntry) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `INSERT INTO jama (party_kind, party_id, entry_date, txn_type, amount, remark)
VALUES ($1, $2, $3::date, $4, $5, $6) RETURNING id`,
		string(j.PartyKind), j.PartyID, j.Date, string(j.TxnType), j.Amount, j.Remark).Scan(&id)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return id, nil
}

func (s *store) GetJama(ctx context.Context, id int64) (*JamaEntry, error) {
	j, err := scanJama(s.q.QueryRow(ctx, `SELECT `+jamaColumns+` FROM jama WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("jama %d: %w", id, shared.ErrNotFound)
	}
	return j, err
}

func (s *store) UpdateJama(ctx context.Context, j JamaEntry) (int64, error) {
	tag, err := s.q.Exec(ctx, `UPDATE jama SET party_kind = $2, party_id = $3, entry_date = $4::date, txn_type = $5, amount = $6, remark = $7
WHERE id = $1`, j.ID, string(j.PartyKind), j.PartyID, j.Date, string(j.TxnType), j.Amount, j.Remark)
	if err != nil {
		return 0, shared.FromPg(err)
	}
	return tag.RowsAffected(), nil
}

func (s *store) DeleteJama(ctx context.Context, id int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM jama WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
