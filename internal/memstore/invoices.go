package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/odyssey-erp/storeledger/internal/invoicing"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

func (t *Tx) header(inv invoicing.Invoice) invoicing.Invoice {
	inv.CustomerName = t.partyName(parties.Ref{Kind: parties.KindCustomer, ID: inv.CustomerID})
	inv.Lines = nil
	return inv
}

func (t *Tx) LockInvoice(_ context.Context, id string) (*invoicing.Invoice, error) {
	inv, ok := t.st.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	inv = t.header(inv)
	return &inv, nil
}

func (t *Tx) InsertInvoice(_ context.Context, inv invoicing.Invoice) error {
	if err := t.trip("InsertInvoice"); err != nil {
		return err
	}
	if _, ok := t.st.invoices[inv.ID]; ok {
		return &shared.ConstraintError{Constraint: "invoices_pkey", Message: "duplicate invoice " + inv.ID}
	}
	if _, ok := t.st.parties[parties.Ref{Kind: parties.KindCustomer, ID: inv.CustomerID}]; !ok {
		return &shared.ConstraintError{Constraint: "invoices_customer_id_fkey", Message: "unknown customer " + inv.CustomerID}
	}
	now := t.db.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	inv.Lines = nil
	inv.CustomerName = ""
	t.st.invoices[inv.ID] = inv
	return nil
}

func (t *Tx) UpdateInvoiceHeader(_ context.Context, inv invoicing.Invoice) (int64, error) {
	cur, ok := t.st.invoices[inv.ID]
	if !ok {
		return 0, nil
	}
	if _, ok := t.st.parties[parties.Ref{Kind: parties.KindCustomer, ID: inv.CustomerID}]; !ok {
		return 0, &shared.ConstraintError{Constraint: "invoices_customer_id_fkey", Message: "unknown customer " + inv.CustomerID}
	}
	cur.CustomerID, cur.Date, cur.Remark = inv.CustomerID, inv.Date, inv.Remark
	cur.Packing, cur.Freight, cur.Riksha, cur.GrandTotal = inv.Packing, inv.Freight, inv.Riksha, inv.GrandTotal
	cur.UpdatedAt = t.db.now()
	t.st.invoices[inv.ID] = cur
	return 1, nil
}

func (t *Tx) InsertInvoiceLine(_ context.Context, invoiceID string, line invoicing.Line) error {
	if err := t.trip("InsertInvoiceLine"); err != nil {
		return err
	}
	if _, ok := t.st.invoices[invoiceID]; !ok {
		return &shared.ConstraintError{Constraint: "invoice_lines_invoice_id_fkey", Message: "unknown invoice " + invoiceID}
	}
	if _, ok := t.st.products[line.ProductCode]; !ok {
		return &shared.ConstraintError{Constraint: "invoice_lines_product_code_fkey", Message: "unknown product " + line.ProductCode}
	}
	if !line.Quantity.IsPositive() {
		return &shared.ConstraintError{Constraint: "invoice_lines_quantity_check", Message: "quantity must be positive"}
	}
	for _, l := range t.st.invoiceLines[invoiceID] {
		if l.LineNo == line.LineNo {
			return &shared.ConstraintError{Constraint: "invoice_lines_invoice_id_line_no_key", Message: "duplicate line number"}
		}
	}
	line.ProductName = ""
	t.st.invoiceLines[invoiceID] = append(t.st.invoiceLines[invoiceID], line)
	return nil
}

func (t *Tx) GetInvoice(_ context.Context, id string) (*invoicing.Invoice, error) {
	inv, ok := t.st.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	inv = t.header(inv)
	for _, l := range t.st.invoiceLines[id] {
		l.ProductName = t.productName(l.ProductCode)
		inv.Lines = append(inv.Lines, l)
	}
	sort.Slice(inv.Lines, func(i, j int) bool { return inv.Lines[i].LineNo < inv.Lines[j].LineNo })
	return &inv, nil
}

func (t *Tx) ListInvoices(_ context.Context, req invoicing.ListRequest) ([]invoicing.Invoice, error) {
	var out []invoicing.Invoice
	for _, inv := range t.st.invoices {
		if req.CustomerID != "" && inv.CustomerID != req.CustomerID {
			continue
		}
		if req.From != "" && inv.Date < req.From {
			continue
		}
		if req.To != "" && inv.Date > req.To {
			continue
		}
		out = append(out, t.header(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, req.Limit, req.Offset), nil
}
