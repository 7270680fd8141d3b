package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

func (t *Tx) linked(m ledger.MaalEntry) ledger.MaalEntry {
	_, m.Linked = t.st.invoices[m.InvoiceNo]
	return m
}

func (t *Tx) maalByInvoice(invoiceNo string) (ledger.MaalEntry, bool) {
	for _, m := range t.st.maal {
		if m.InvoiceNo == invoiceNo {
			return m, true
		}
	}
	return ledger.MaalEntry{}, false
}

func (t *Tx) InsertMaal(_ context.Context, m ledger.MaalEntry) (int64, error) {
	if err := t.trip("InsertMaal"); err != nil {
		return 0, err
	}
	if _, ok := t.maalByInvoice(m.InvoiceNo); ok {
		return 0, &shared.ConstraintError{Constraint: "maal_maal_invoice_no_key", Message: "duplicate maal invoice number " + m.InvoiceNo}
	}
	t.st.nextMaal++
	m.ID = t.st.nextMaal
	m.Linked = false
	m.CreatedAt = t.db.now()
	t.st.maal[m.ID] = m
	return m.ID, nil
}

func (t *Tx) UpdateMaalByInvoice(_ context.Context, m ledger.MaalEntry) (int64, error) {
	cur, ok := t.maalByInvoice(m.InvoiceNo)
	if !ok {
		return 0, nil
	}
	cur.PartyKind, cur.PartyID = m.PartyKind, m.PartyID
	cur.Date, cur.Amount, cur.Remark = m.Date, m.Amount, m.Remark
	t.st.maal[cur.ID] = cur
	return 1, nil
}

func (t *Tx) DeleteMaalByInvoice(_ context.Context, invoiceNo string) (int64, error) {
	cur, ok := t.maalByInvoice(invoiceNo)
	if !ok {
		return 0, nil
	}
	delete(t.st.maal, cur.ID)
	return 1, nil
}

func (t *Tx) DeleteInvoiceLines(_ context.Context, invoiceID string) (int64, error) {
	n := int64(len(t.st.invoiceLines[invoiceID]))
	delete(t.st.invoiceLines, invoiceID)
	return n, nil
}

func (t *Tx) DeleteInvoiceHeader(_ context.Context, invoiceID string) (int64, error) {
	if _, ok := t.st.invoices[invoiceID]; !ok {
		return 0, nil
	}
	if len(t.st.invoiceLines[invoiceID]) > 0 {
		return 0, &shared.ConstraintError{Constraint: "invoice_lines_invoice_id_fkey", Message: "invoice still has lines"}
	}
	delete(t.st.invoices, invoiceID)
	return 1, nil
}

func (t *Tx) GetMaal(_ context.Context, id int64) (*ledger.MaalEntry, error) {
	m, ok := t.st.maal[id]
	if !ok {
		return nil, fmt.Errorf("maal %d: %w", id, shared.ErrNotFound)
	}
	m = t.linked(m)
	return &m, nil
}

func (t *Tx) MaalNumberTaken(_ context.Context, invoiceNo string) (bool, error) {
	if _, ok := t.st.invoices[invoiceNo]; ok {
		return true, nil
	}
	_, ok := t.maalByInvoice(invoiceNo)
	return ok, nil
}

func (t *Tx) UpdateMaal(_ context.Context, m ledger.MaalEntry) (int64, error) {
	cur, ok := t.st.maal[m.ID]
	if !ok {
		return 0, nil
	}
	cur.Date, cur.Amount, cur.Remark = m.Date, m.Amount, m.Remark
	t.st.maal[m.ID] = cur
	return 1, nil
}

func (t *Tx) DeleteMaal(_ context.Context, id int64) (int64, error) {
	if _, ok := t.st.maal[id]; !ok {
		return 0, nil
	}
	delete(t.st.maal, id)
	return 1, nil
}

func (t *Tx) InsertJama(_ context.Context, j ledger.JamaEntry) (int64, error) {
	if err := t.trip("InsertJama"); err != nil {
		return 0, err
	}
	if !j.Amount.IsPositive() {
		return 0, &shared.ConstraintError{Constraint: "jama_amount_check", Message: "amount must be positive"}
	}
	t.st.nextJama++
	j.ID = t.st.nextJama
	j.CreatedAt = t.db.now()
	t.st.jama[j.ID] = j
	return j.ID, nil
}

func (t *Tx) GetJama(_ context.Context, id int64) (*ledger.JamaEntry, error) {
	j, ok := t.st.jama[id]
	if !ok {
		return nil, fmt.Errorf("jama %d: %w", id, shared.ErrNotFound)
	}
	return &j, nil
}

func (t *Tx) UpdateJama(_ context.Context, j ledger.JamaEntry) (int64, error) {
	cur, ok := t.st.jama[j.ID]
	if !ok {
		return 0, nil
	}
	j.CreatedAt = cur.CreatedAt
	t.st.jama[j.ID] = j
	return 1, nil
}

func (t *Tx) DeleteJama(_ context.Context, id int64) (int64, error) {
	if _, ok := t.st.jama[id]; !ok {
		return 0, nil
	}
	delete(t.st.jama, id)
	return 1, nil
}

func (t *Tx) ListMaal(_ context.Context, party parties.Ref) ([]ledger.MaalEntry, error) {
	var out []ledger.MaalEntry
	for _, m := range t.st.maal {
		if m.Party() == party {
			out = append(out, t.linked(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *Tx) ListJama(_ context.Context, party parties.Ref) ([]ledger.JamaEntry, error) {
	var out []ledger.JamaEntry
	for _, j := range t.st.jama {
		if j.Party() == party {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *Tx) PartyTotals(_ context.Context, party parties.Ref) (decimal.Decimal, decimal.Decimal, error) {
	maal, jama := decimal.Zero, decimal.Zero
	for _, m := range t.st.maal {
		if m.Party() == party {
			maal = maal.Add(m.Amount)
		}
	}
	for _, j := range t.st.jama {
		if j.Party() == party {
			jama = jama.Add(j.Amount)
		}
	}
	return maal, jama, nil
}
