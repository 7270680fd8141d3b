package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Status is a display label from a closed set per order kind. No transitions are enforced.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusDispatched Status = "DISPATCHED"
	StatusDelivered  Status = "DELIVERED"
	StatusOrdered    Status = "ORDERED"
	StatusReceived   Status = "RECEIVED"
	StatusCancelled  Status = "CANCELLED"
)

var statuses = map[parties.Kind][]Status{
	parties.KindCustomer: {StatusPending, StatusConfirmed, StatusDispatched, StatusDelivered, StatusCancelled},
	parties.KindSupplier: {StatusPending, StatusOrdered, StatusReceived, StatusCancelled},
}

// Statuses lists the labels allowed for kind.
func Statuses(kind parties.Kind) []Status {
	return append([]Status(nil), statuses[kind]...)
}

// ParseStatus normalises s for kind. An empty label means PENDING.
func ParseStatus(kind parties.Kind, s string) (Status, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StatusPending, nil
	}
	for _, st := range statuses[kind] {
		if string(st) == s {
			return st, nil
		}
	}
	return "", shared.NewValidationError("status", fmt.Sprintf("%q is not a %s order status", s, kind))
}

// DocType returns the numbering series of the order kind.
func DocType(kind parties.Kind) sequence.DocType {
	if kind == parties.KindSupplier {
		return sequence.DocSupplierOrder
	}
	return sequence.DocCustomerOrder
}

type tableSet struct {
	header   string
	lines    string
	partyCol string
}

func tables(kind parties.Kind) tableSet {
	if kind == parties.KindSupplier {
		return tableSet{header: "supplier_orders", lines: "supplier_order_lines", partyCol: "supplier_id"}
	}
	return tableSet{header: "customer_orders", lines: "customer_order_lines", partyCol: "customer_id"}
}

// Order is a customer or supplier order with its lines.
type Order struct {
	ID        string       `json:"order_id"`
	Kind      parties.Kind `json:"kind"`
	PartyID   string       `json:"party_id"`
	PartyName string       `json:"party_name,omitempty"`
	Date      string       `json:"order_date"`
	Remark    string       `json:"remark"`
	Status    Status       `json:"status"`
	Lines     []Line       `json:"items,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Party returns the ordering or supplying party.
func (o Order) Party() parties.Ref {
	return parties.Ref{Kind: o.Kind, ID: o.PartyID}
}

// Line carries no price.
type Line struct {
	LineNo      int             `json:"line_no"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type LineInput struct {
	ProductCode string          `json:"product_code" validate:"required,max=120"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// Request is the create and update payload.
type Request struct {
	PartyID string      `json:"party_id" validate:"required,max=64"`
	Date    string      `json:"order_date" validate:"required,datetime=2006-01-02"`
	Remark  string      `json:"remark" validate:"max=500"`
	Status  string      `json:"status"`
	Items   []LineInput `json:"items" validate:"required,min=1,dive"`
}

type ListRequest struct {
	PartyID string
	Status  Status
	Limit   int
	Offset  int
}

// Result is returned by create and update.
type Result struct {
	OrderID         string   `json:"order_id"`
	Order           *Order   `json:"order"`
	CreatedProducts []string `json:"created_products,omitempty"`
}
