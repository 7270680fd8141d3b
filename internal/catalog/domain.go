package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one price list entry. Lines keep their own price snapshot, so editing a
// product never changes existing invoices.
type Product struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Size         string          `json:"size"`
	PackingType  string          `json:"packing_type"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Deleted      bool            `json:"deleted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateRequest is the products.create payload. Code defaults to a slug of name and size.
type CreateRequest struct {
	Code         string          `json:"code" validate:"omitempty,max=120"`
	Name         string          `json:"name" validate:"required,max=200"`
	Size         string          `json:"size" validate:"max=60"`
	PackingType  string          `json:"packing_type" validate:"max=60"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

// UpdateRequest is the products.update payload.
type UpdateRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Size         string          `json:"size" validate:"max=60"`
	PackingType  string          `json:"packing_type" validate:"max=60"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

// ListRequest filters the price list.
type ListRequest struct {
	IncludeDeleted bool
	Search         string
}

// EnsureResult reports whether EnsureProduct had to create a stub.
type EnsureResult struct {
	Product Product `json:"product"`
	Created bool    `json:"created"`
}
