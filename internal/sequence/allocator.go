// Package sequence issues human readable document identifiers.
//
// A number is claimed by incrementing the persisted last_number for the series inside the
// caller's transaction, so the claim and the document insert commit or roll back together
// and concurrent writers queue on the sequence row. Numbers freed by deletion are only
// handed out again when the reuse pool is enabled.
package sequence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/odyssey-erp/storeledger/internal/integrity"
)

// Observer is notified for every claimed number.
type Observer interface {
	DocumentIssued(docType string)
}

// Allocator claims document numbers.
type Allocator struct {
	// ReuseFreed makes Next prefer numbers released by deletions.
	ReuseFreed bool
	Reporter   integrity.Reporter
	Observer   Observer
}

// Next claims the next identifier of the series.
func (a *Allocator) Next(ctx context.Context, store Store, doc DocType) (string, error) {
	if !doc.Valid() {
		return "", fmt.Errorf("sequence: unknown document type %q", doc)
	}
	if a.ReuseFreed {
		n, ok, err := store.PopReusableNumber(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("sequence: pop reusable %s: %w", doc, err)
		}
		if ok {
			last, err := store.CurrentSequence(ctx, doc)
			if err != nil {
				return "", fmt.Errorf("sequence: read %s: %w", doc, err)
			}
			if n <= last {
				a.issued(doc)
				return Format(doc, n), nil
			}
			a.report(ctx, doc, n, last)
		}
	}
	n, err := store.IncrementSequence(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("sequence: claim %s: %w", doc, err)
	}
	a.issued(doc)
	return Format(doc, n), nil
}

// Preview returns the identifier Next would return without claiming it.
func (a *Allocator) Preview(ctx context.Context, store Store, doc DocType) (string, error) {
	if !doc.Valid() {
		return "", fmt.Errorf("sequence: unknown document type %q", doc)
	}
	last, err := store.CurrentSequence(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("sequence: read %s: %w", doc, err)
	}
	if a.ReuseFreed {
		freed, err := store.ReusableNumbersAbove(ctx, doc, 0)
		if err != nil {
			return "", fmt.Errorf("sequence: read reusable %s: %w", doc, err)
		}
		if len(freed) > 0 && freed[0] <= last {
			return Format(doc, freed[0]), nil
		}
	}
	return Format(doc, last+1), nil
}

// Reserve takes an externally supplied identifier out of circulation for its series so
// that Next never claims it. Identifiers outside the series of doc are left alone.
func (a *Allocator) Reserve(ctx context.Context, store Store, doc DocType, id string) error {
	got, n, err := Parse(id)
	if err != nil || got != doc {
		return nil
	}
	if err := store.RaiseSequence(ctx, doc, n); err != nil {
		return fmt.Errorf("sequence: reserve %s: %w", id, err)
	}
	if err := store.RemoveReusableNumber(ctx, doc, n); err != nil {
		return fmt.Errorf("sequence: reserve %s: %w", id, err)
	}
	return nil
}

// Release returns a deleted document's number to the pool when reuse is enabled and
// reports pool entries that are not below the issued sequence.
func (a *Allocator) Release(ctx context.Context, store Store, id string) error {
	if !a.ReuseFreed {
		return nil
	}
	doc, n, err := Parse(id)
	if err != nil {
		// Legacy or caller supplied numbers never came from the sequence.
		return nil
	}
	last, err := store.CurrentSequence(ctx, doc)
	if err != nil {
		return fmt.Errorf("sequence: read %s: %w", doc, err)
	}
	if n > last {
		a.report(ctx, doc, n, last)
	} else if err := store.PushReusableNumber(ctx, doc, n); err != nil {
		return fmt.Errorf("sequence: release %s: %w", id, err)
	}
	above, err := store.ReusableNumbersAbove(ctx, doc, last)
	if err != nil {
		return fmt.Errorf("sequence: read reusable %s: %w", doc, err)
	}
	for _, v := range above {
		a.report(ctx, doc, v, last)
	}
	return nil
}

func (a *Allocator) issued(doc DocType) {
	if a.Observer != nil {
		a.Observer.DocumentIssued(string(doc))
	}
}

func (a *Allocator) report(ctx context.Context, doc DocType, n, last int64) {
	integrity.OrDiscard(a.Reporter).Report(ctx, integrity.Anomaly{
		Kind:    integrity.KindPoolAboveSequence,
		Subject: Format(doc, n),
		Detail:  "reusable number exceeds last issued " + strconv.FormatInt(last, 10),
	})
}
