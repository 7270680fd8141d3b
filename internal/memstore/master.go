package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

func (t *Tx) IncrementSequence(_ context.Context, doc sequence.DocType) (int64, error) {
	if err := t.trip("IncrementSequence"); err != nil {
		return 0, err
	}
	t.st.sequences[doc]++
	return t.st.sequences[doc], nil
}

func (t *Tx) CurrentSequence(_ context.Context, doc sequence.DocType) (int64, error) {
	return t.st.sequences[doc], nil
}

func (t *Tx) PopReusableNumber(_ context.Context, doc sequence.DocType) (int64, bool, error) {
	set := t.st.pool[doc]
	if len(set) == 0 {
		return 0, false, nil
	}
	n := slices.Min(slices.Collect(maps.Keys(set)))
	delete(set, n)
	return n, true, nil
}

func (t *Tx) PushReusableNumber(_ context.Context, doc sequence.DocType, n int64) error {
	if n <= 0 {
		return &shared.ConstraintError{Constraint: "reusable_numbers_number_check", Message: "number must be positive"}
	}
	if t.st.pool[doc] == nil {
		t.st.pool[doc] = map[int64]struct{}{}
	}
	t.st.pool[doc][n] = struct{}{}
	return nil
}

func (t *Tx) ReusableNumbersAbove(_ context.Context, doc sequence.DocType, n int64) ([]int64, error) {
	var out []int64
	for k := range t.st.pool[doc] {
		if k > n {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (t *Tx) RaiseSequence(_ context.Context, doc sequence.DocType, n int64) error {
	if err := t.trip("RaiseSequence"); err != nil {
		return err
	}
	if n > t.st.sequences[doc] {
		t.st.sequences[doc] = n
	}
	return nil
}

func (t *Tx) RemoveReusableNumber(_ context.Context, doc sequence.DocType, n int64) error {
	delete(t.st.pool[doc], n)
	return nil
}

func (t *Tx) InsertProductStub(_ context.Context, code string) (bool, error) {
	if err := t.trip("InsertProductStub"); err != nil {
		return false, err
	}
	if _, ok := t.st.products[code]; ok {
		return false, nil
	}
	now := t.db.now()
	t.st.products[code] = catalog.Product{Code: code, Name: code, CreatedAt: now, UpdatedAt: now}
	return true, nil
}

func (t *Tx) GetProduct(_ context.Context, code string) (*catalog.Product, error) {
	p, ok := t.st.products[code]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", code, shared.ErrNotFound)
	}
	return &p, nil
}

func (t *Tx) ListProducts(_ context.Context, req catalog.ListRequest) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range t.st.products {
		if p.Deleted && !req.IncludeDeleted {
			continue
		}
		if req.Search != "" && !containsFold(req.Search, p.Code, p.Name) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Size != b.Size {
			return a.Size < b.Size
		}
		return a.Code < b.Code
	})
	return out, nil
}

func (t *Tx) InsertProduct(_ context.Context, p catalog.Product) (*catalog.Product, error) {
	if _, ok := t.st.products[p.Code]; ok {
		return nil, &shared.ConstraintError{Constraint: "products_pkey", Message: "duplicate product code " + p.Code}
	}
	now := t.db.now()
	p.Deleted = false
	p.CreatedAt, p.UpdatedAt = now, now
	t.st.products[p.Code] = p
	return &p, nil
}

func (t *Tx) UpdateProduct(_ context.Context, p catalog.Product) (*catalog.Product, error) {
	cur, ok := t.st.products[p.Code]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", p.Code, shared.ErrNotFound)
	}
	cur.Name, cur.Size, cur.PackingType = p.Name, p.Size, p.PackingType
	cur.CostPrice, cur.SellingPrice = p.CostPrice, p.SellingPrice
	cur.UpdatedAt = t.db.now()
	t.st.products[p.Code] = cur
	return &cur, nil
}

func (t *Tx) SetProductDeleted(_ context.Context, code string, deleted bool) error {
	cur, ok := t.st.products[code]
	if !ok {
		return fmt.Errorf("product %s: %w", code, shared.ErrNotFound)
	}
	cur.Deleted = deleted
	cur.UpdatedAt = t.db.now()
	t.st.products[code] = cur
	return nil
}

func (t *Tx) PartyExists(_ context.Context, ref parties.Ref) (bool, error) {
	_, ok := t.st.parties[ref]
	return ok, nil
}

func (t *Tx) ListParties(_ context.Context, kind parties.Kind, req parties.ListRequest) ([]parties.Party, error) {
	var out []parties.Party
	for ref, p := range t.st.parties {
		if ref.Kind != kind {
			continue
		}
		if req.Search != "" && !containsFold(req.Search, p.Name, p.Mobile, p.ID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, req.Limit, req.Offset), nil
}

func (t *Tx) GetParty(_ context.Context, ref parties.Ref) (*parties.Party, error) {
	p, ok := t.st.parties[ref]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, shared.ErrNotFound)
	}
	return &p, nil
}

func (t *Tx) CreateParty(_ context.Context, p parties.Party) (*parties.Party, error) {
	if _, ok := t.st.parties[p.Ref()]; ok {
		return nil, &shared.ConstraintError{Constraint: p.Kind.Table() + "_pkey", Message: "duplicate id " + p.ID}
	}
	now := t.db.now()
	p.CreatedAt, p.UpdatedAt = now, now
	t.st.parties[p.Ref()] = p
	return &p, nil
}

func (t *Tx) UpdateParty(_ context.Context, p parties.Party) (*parties.Party, error) {
	cur, ok := t.st.parties[p.Ref()]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", p.Kind, p.ID, shared.ErrNotFound)
	}
	cur.Name, cur.Address, cur.Mobile = p.Name, p.Address, p.Mobile
	cur.UpdatedAt = t.db.now()
	t.st.parties[p.Ref()] = cur
	return &cur, nil
}

func (t *Tx) DeleteParty(_ context.Context, ref parties.Ref) error {
	for _, m := range t.st.maal {
		if m.Party() == ref {
			return &shared.ConstraintError{Constraint: "ledger_party_ref", Message: "party has ledger entries"}
		}
	}
	for _, j := range t.st.jama {
		if j.Party() == ref {
			return &shared.ConstraintError{Constraint: "ledger_party_ref", Message: "party has ledger entries"}
		}
	}
	if _, ok := t.st.parties[ref]; !ok {
		return fmt.Errorf("%s %s: %w", ref.Kind, ref.ID, shared.ErrNotFound)
	}
	for _, inv := range t.st.invoices {
		if ref.Kind == parties.KindCustomer && inv.CustomerID == ref.ID {
			return &shared.ConstraintError{Constraint: "invoices_customer_id_fkey", Message: "customer has invoices"}
		}
	}
	for key, o := range t.st.orders {
		if key.kind == ref.Kind && o.PartyID == ref.ID {
			return &shared.ConstraintError{Constraint: "orders_party_fkey", Message: "party has orders"}
		}
	}
	delete(t.st.parties, ref)
	return nil
}

func (t *Tx) partyName(ref parties.Ref) string {
	return t.st.parties[ref].Name
}

func (t *Tx) productName(code string) string {
	if p, ok := t.st.products[code]; ok {
		return p.Name
	}
	return code
}

func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
