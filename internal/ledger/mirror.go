package ledger

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// MirrorStore is the transaction scoped persistence behind Mirror. The invoice delete
// statements live here so that the header, its lines and its maal row can only be removed
// together.
type MirrorStore interface {
	InsertMaal(ctx context.Context, m MaalEntry) (int64, error)
	UpdateMaalByInvoice(ctx context.Context, m MaalEntry) (int64, error)
	DeleteMaalByInvoice(ctx context.Context, invoiceNo string) (int64, error)
	DeleteInvoiceLines(ctx context.Context, invoiceID string) (int64, error)
	DeleteInvoiceHeader(ctx context.Context, invoiceID string) (int64, error)
}

// Mirror keeps every invoice paired with exactly one maal row carrying the same
// party, date, grand total and remark.
type Mirror struct {
	Reporter integrity.Reporter
}

// RecordInvoiceCreated inserts the maal row for a new invoice.
func (m *Mirror) RecordInvoiceCreated(ctx context.Context, store MirrorStore, inv InvoiceSnapshot) error {
	if _, err := store.InsertMaal(ctx, mirrorOf(inv)); err != nil {
		return fmt.Errorf("ledger: insert maal for %s: %w", inv.ID, shared.FromPg(err))
	}
	return nil
}

// RecordInvoiceUpdated propagates an updated header to its maal row. A missing row is
// reported as an anomaly and recreated.
func (m *Mirror) RecordInvoiceUpdated(ctx context.Context, store MirrorStore, inv InvoiceSnapshot) error {
	n, err := store.UpdateMaalByInvoice(ctx, mirrorOf(inv))
	if err != nil {
		return fmt.Errorf("ledger: update maal for %s: %w", inv.ID, err)
	}
	if n > 0 {
		return nil
	}
	integrity.OrDiscard(m.Reporter).Report(ctx, integrity.Anomaly{
		Kind:    integrity.KindMirrorMissing,
		Subject: inv.ID,
		Detail:  "invoice updated without a maal row; mirror recreated",
	})
	return m.RecordInvoiceCreated(ctx, store, inv)
}

// RecordInvoiceDeleted removes the lines, the maal row and the header of an invoice.
// A missing header is reported as shared.ErrNotFound.
func (m *Mirror) RecordInvoiceDeleted(ctx context.Context, store MirrorStore, invoiceID string) error {
	if _, err := store.DeleteInvoiceLines(ctx, invoiceID); err != nil {
		return fmt.Errorf("ledger: delete lines of %s: %w", invoiceID, err)
	}
	maalRows, err := store.DeleteMaalByInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("ledger: delete maal of %s: %w", invoiceID, err)
	}
	headers, err := store.DeleteInvoiceHeader(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("ledger: delete invoice %s: %w", invoiceID, shared.FromPg(err))
	}
	if headers == 0 {
		return fmt.Errorf("invoice %s: %w", invoiceID, shared.ErrNotFound)
	}
	if maalRows == 0 {
		integrity.OrDiscard(m.Reporter).Report(ctx, integrity.Anomaly{
			Kind:    integrity.KindMirrorMissing,
			Subject: invoiceID,
			Detail:  "invoice deleted without a maal row",
		})
	}
	return nil
}

func mirrorOf(inv InvoiceSnapshot) MaalEntry {
	return MaalEntry{
		PartyKind: inv.Party().Kind,
		PartyID:   inv.CustomerID,
		InvoiceNo: inv.ID,
		Date:      inv.Date,
		Amount:    inv.GrandTotal,
		Remark:    inv.Remark,
		Linked:    true,
	}
}
