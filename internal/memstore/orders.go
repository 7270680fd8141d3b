package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/odyssey-erp/storeledger/internal/orders"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

func (t *Tx) orderHeader(o orders.Order) orders.Order {
	o.PartyName = t.partyName(o.Party())
	o.Lines = nil
	return o
}

func (t *Tx) LockOrder(_ context.Context, kind parties.Kind, id string) (*orders.Order, error) {
	o, ok := t.st.orders[orderKey{kind, id}]
	if !ok {
		return nil, fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
	}
	o = t.orderHeader(o)
	return &o, nil
}

func (t *Tx) InsertOrder(_ context.Context, o orders.Order) error {
	if err := t.trip("InsertOrder"); err != nil {
		return err
	}
	key := orderKey{o.Kind, o.ID}
	if _, ok := t.st.orders[key]; ok {
		return &shared.ConstraintError{Constraint: o.Kind.Table() + "_orders_pkey", Message: "duplicate order " + o.ID}
	}
	if _, ok := t.st.parties[o.Party()]; !ok {
		return &shared.ConstraintError{Constraint: "orders_party_fkey", Message: "unknown party " + o.PartyID}
	}
	now := t.db.now()
	o.CreatedAt, o.UpdatedAt = now, now
	o.Lines, o.PartyName = nil, ""
	t.st.orders[key] = o
	return nil
}

func (t *Tx) UpdateOrderHeader(_ context.Context, o orders.Order) (int64, error) {
	key := orderKey{o.Kind, o.ID}
	cur, ok := t.st.orders[key]
	if !ok {
		return 0, nil
	}
	cur.PartyID, cur.Date, cur.Remark, cur.Status = o.PartyID, o.Date, o.Remark, o.Status
	cur.UpdatedAt = t.db.now()
	t.st.orders[key] = cur
	return 1, nil
}

func (t *Tx) SetOrderStatus(_ context.Context, kind parties.Kind, id string, status orders.Status) (int64, error) {
	key := orderKey{kind, id}
	cur, ok := t.st.orders[key]
	if !ok {
		return 0, nil
	}
	cur.Status = status
	cur.UpdatedAt = t.db.now()
	t.st.orders[key] = cur
	return 1, nil
}

func (t *Tx) InsertOrderLine(_ context.Context, kind parties.Kind, orderID string, line orders.Line) error {
	if err := t.trip("InsertOrderLine"); err != nil {
		return err
	}
	key := orderKey{kind, orderID}
	if _, ok := t.st.orders[key]; !ok {
		return &shared.ConstraintError{Constraint: "order_lines_order_id_fkey", Message: "unknown order " + orderID}
	}
	if _, ok := t.st.products[line.ProductCode]; !ok {
		return &shared.ConstraintError{Constraint: "order_lines_product_code_fkey", Message: "unknown product " + line.ProductCode}
	}
	if !line.Quantity.IsPositive() {
		return &shared.ConstraintError{Constraint: "order_lines_quantity_check", Message: "quantity must be positive"}
	}
	line.ProductName = ""
	t.st.orderLines[key] = append(t.st.orderLines[key], line)
	return nil
}

func (t *Tx) DeleteOrderLines(_ context.Context, kind parties.Kind, orderID string) (int64, error) {
	key := orderKey{kind, orderID}
	n := int64(len(t.st.orderLines[key]))
	delete(t.st.orderLines, key)
	return n, nil
}

func (t *Tx) DeleteOrderHeader(_ context.Context, kind parties.Kind, orderID string) (int64, error) {
	key := orderKey{kind, orderID}
	if _, ok := t.st.orders[key]; !ok {
		return 0, nil
	}
	if len(t.st.orderLines[key]) > 0 {
		return 0, &shared.ConstraintError{Constraint: "order_lines_order_id_fkey", Message: "order still has lines"}
	}
	delete(t.st.orders, key)
	return 1, nil
}

func (t *Tx) GetOrder(_ context.Context, kind parties.Kind, id string) (*orders.Order, error) {
	key := orderKey{kind, id}
	o, ok := t.st.orders[key]
	if !ok {
		return nil, fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
	}
	o = t.orderHeader(o)
	for _, l := range t.st.orderLines[key] {
		l.ProductName = t.productName(l.ProductCode)
		o.Lines = append(o.Lines, l)
	}
	sort.Slice(o.Lines, func(i, j int) bool { return o.Lines[i].LineNo < o.Lines[j].LineNo })
	return &o, nil
}

func (t *Tx) ListOrders(_ context.Context, kind parties.Kind, req orders.ListRequest) ([]orders.Order, error) {
	var out []orders.Order
	for key, o := range t.st.orders {
		if key.kind != kind {
			continue
		}
		if req.PartyID != "" && o.PartyID != req.PartyID {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		out = append(out, t.orderHeader(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, req.Limit, req.Offset), nil
}
