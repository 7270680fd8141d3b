package schema

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/storeledger/internal/sequence"
)

// MaxLegacyNumber returns the highest invoice number found in ids, accepting both the
// INV-<n> and INV<n> spellings. Identifiers in neither form are ignored.
func MaxLegacyNumber(ids []string) int64 {
	var max int64
	for _, id := range ids {
		if n, ok := sequence.ParseLegacyNumber(sequence.DocInvoice, id); ok && n > max {
			max = n
		}
	}
	return max
}

// ReconcileInvoiceSequence raises the invoice sequence to the highest number already used
// by invoices or maal entries. The sequence is never lowered.
func ReconcileInvoiceSequence(ctx context.Context, tx Tx) error {
	ids, err := tx.InvoiceNumbers(ctx)
	if err != nil {
		return fmt.Errorf("read invoice numbers: %w", err)
	}
	if err := tx.RaiseSequence(ctx, sequence.DocInvoice, MaxLegacyNumber(ids)); err != nil {
		return fmt.Errorf("raise invoice sequence: %w", err)
	}
	return nil
}
