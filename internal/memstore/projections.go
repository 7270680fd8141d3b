package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/history"
	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/parties"
)

func (t *Tx) PartyHistory(_ context.Context, party parties.Ref) ([]history.Row, error) {
	out := []history.Row{}
	if party.Kind == parties.KindCustomer {
		for _, inv := range t.st.invoices {
			if inv.CustomerID == party.ID {
				out = append(out, history.Row{
					Source:    history.SourceInvoice,
					InvoiceNo: inv.ID,
					Date:      inv.Date,
					Amount:    inv.GrandTotal,
					Remark:    inv.Remark,
					CreatedAt: inv.CreatedAt,
				})
			}
		}
	}
	for _, m := range t.st.maal {
		if m.Party() != party {
			continue
		}
		if _, mirrored := t.st.invoices[m.InvoiceNo]; mirrored {
			continue
		}
		out = append(out, history.Row{
			Source:    history.SourceMaal,
			InvoiceNo: m.InvoiceNo,
			Date:      m.Date,
			Amount:    m.Amount,
			Remark:    m.Remark,
			CreatedAt: m.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.InvoiceNo > b.InvoiceNo
	})
	return out, nil
}

func (t *Tx) PartyPayments(ctx context.Context, party parties.Ref) ([]history.Payment, error) {
	entries, err := t.ListJama(ctx, party)
	if err != nil {
		return nil, err
	}
	out := make([]history.Payment, 0, len(entries))
	for _, j := range entries {
		out = append(out, history.Payment{ID: j.ID, Date: j.Date, TxnType: j.TxnType, Amount: j.Amount, Remark: j.Remark})
	}
	return out, nil
}

func (t *Tx) MissingMirrors(context.Context) ([]string, error) {
	var out []string
	for id := range t.st.invoices {
		if _, ok := t.maalByInvoice(id); !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *Tx) MismatchedMirrors(context.Context) ([]integrity.Anomaly, error) {
	var out []integrity.Anomaly
	for _, id := range t.sortedInvoiceIDs() {
		inv := t.st.invoices[id]
		m, ok := t.maalByInvoice(id)
		if !ok {
			continue
		}
		if m.PartyKind != parties.KindCustomer || m.PartyID != inv.CustomerID || m.Date != inv.Date ||
			!m.Amount.Equal(inv.GrandTotal) || m.Remark != inv.Remark {
			out = append(out, integrity.Anomaly{
				Kind:    integrity.KindMirrorMismatch,
				Subject: id,
				Detail: fmt.Sprintf("invoice %s/%s/%s/%s, maal %s/%s/%s/%s",
					inv.CustomerID, inv.Date, inv.GrandTotal, inv.Remark,
					m.Party(), m.Date, m.Amount, m.Remark),
			})
		}
	}
	return out, nil
}

func (t *Tx) GrandTotalDrift(context.Context) ([]integrity.Anomaly, error) {
	var out []integrity.Anomaly
	for _, id := range t.sortedInvoiceIDs() {
		inv := t.st.invoices[id]
		computed := decimal.Zero
		for _, l := range t.st.invoiceLines[id] {
			computed = computed.Add(l.Amount())
		}
		computed = computed.Add(inv.Packing).Add(inv.Freight).Add(inv.Riksha)
		if !computed.Equal(inv.GrandTotal) {
			out = append(out, integrity.Anomaly{
				Kind:    integrity.KindGrandTotal,
				Subject: id,
				Detail:  "stored " + inv.GrandTotal.String() + ", computed " + computed.String(),
			})
		}
	}
	return out, nil
}

func (t *Tx) PoolAboveSequence(ctx context.Context) ([]integrity.Anomaly, error) {
	var out []integrity.Anomaly
	for doc := range t.st.pool {
		last := t.st.sequences[doc]
		above, _ := t.ReusableNumbersAbove(ctx, doc, last)
		for _, n := range above {
			out = append(out, integrity.Anomaly{
				Kind:    integrity.KindPoolAboveSequence,
				Subject: string(doc) + ":" + strconv.FormatInt(n, 10),
				Detail:  "sequence is at " + strconv.FormatInt(last, 10),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func (t *Tx) sortedInvoiceIDs() []string {
	ids := make([]string, 0, len(t.st.invoices))
	for id := range t.st.invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
