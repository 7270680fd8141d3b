package history

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/db"
)

// Store runs the read-time projections.
type Store interface {
	PartyHistory(ctx context.Context, party parties.Ref) ([]Row, error)
	PartyPayments(ctx context.Context, party parties.Ref) ([]Payment, error)
	PartyTotals(ctx context.Context, party parties.Ref) (maal, jama decimal.Decimal, err error)
}

type pgStore struct {
	db db.DBTX
}

func NewStore(q db.DBTX) Store {
	return &pgStore{db: q}
}

// PartyHistory unions the party's invoices with maal rows that have no invoice. Mirrored
// maal rows are excluded so an invoice is never listed twice.
func (s *pgStore) PartyHistory(ctx context.Context, party parties.Ref) ([]Row, error) {
	rows, err := s.db.Query(ctx, `SELECT 'invoice' AS source, i.id AS invoice_no, i.invoice_date::text AS entry_date, i.grand_total, i.remark, i.created_at
FROM invoices i
WHERE $1 = 'customer' AND i.customer_id = $2
UNION ALL
SELECT 'maal', m.maal_invoice_no, m.entry_date::text, m.amount, m.remark, m.created_at
FROM maal m
WHERE m.party_kind = $1 AND m.party_id = $2
  AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.id = m.maal_invoice_no)
ORDER BY entry_date DESC, created_at DESC, invoice_no DESC`, string(party.Kind), party.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Row{}
	for rows.Next() {
		var r Row
		var source string
		if err := rows.Scan(&source, &r.InvoiceNo, &r.Date, &r.Amount, &r.Remark, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Source = Source(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PartyPayments lists jama rows newest first, ties broken by row id.
func (s *pgStore) PartyPayments(ctx context.Context, party parties.Ref) ([]Payment, error) {
	rows, err := s.db.Query(ctx, `SELECT id, entry_date::text, txn_type, amount, remark FROM jama
WHERE party_kind = $1 AND party_id = $2
ORDER BY entry_date DESC, id DESC`, string(party.Kind), party.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		var p Payment
		var txn string
		if err := rows.Scan(&p.ID, &p.Date, &txn, &p.Amount, &p.Remark); err != nil {
			return nil, err
		}
		p.TxnType = ledger.TxnType(txn)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *pgStore) PartyTotals(ctx context.Context, party parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	var maal, jama decimal.Decimal
	err := s.db.QueryRow(ctx, `SELECT
	COALESCE((SELECT SUM(amount) FROM maal WHERE party_kind = $1 AND party_id = $2), 0),
	COALESCE((SELECT SUM(amount) FROM jama WHERE party_kind = $1 AND party_id = $2), 0)`,
		string(party.Kind), party.ID).Scan(&maal, &jama)
	return maal, jama, err
}
