package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/ledger"
)

// Invoice is the header plus its lines.
type Invoice struct {
	ID           string          `json:"invoice_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Date         string          `json:"invoice_date"`
	Remark       string          `json:"remark"`
	Packing      decimal.Decimal `json:"packing"`
	Freight      decimal.Decimal `json:"freight"`
	Riksha       decimal.Decimal `json:"riksha"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Lines        []Line          `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Snapshot returns the fields mirrored into the maal ledger.
func (i Invoice) Snapshot() ledger.InvoiceSnapshot {
	return ledger.InvoiceSnapshot{
		ID:         i.ID,
		CustomerID: i.CustomerID,
		Date:       i.Date,
		GrandTotal: i.GrandTotal,
		Remark:     i.Remark,
	}
}

// Line is one invoice item. SellingPrice is the price at invoice time.
type Line struct {
	LineNo       int             `json:"line_no"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Amount is quantity times price, unrounded.
func (l Line) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.SellingPrice)
}

// LineInput is one requested item.
type LineInput struct {
	ProductCode  string          `json:"product_code" validate:"required,max=120"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

// Request is the payload for invoices.create and invoices.update.
type Request struct {
	CustomerID string          `json:"customer_id" validate:"required,max=64"`
	Date       string          `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	Remark     string          `json:"remark" validate:"max=500"`
	Packing    decimal.Decimal `json:"packing" validate:"gte=0"`
	Freight    decimal.Decimal `json:"freight" validate:"gte=0"`
	Riksha     decimal.Decimal `json:"riksha" validate:"gte=0"`
	Items      []LineInput     `json:"items" validate:"required,min=1,dive"`
}

// ListRequest filters invoice listings.
type ListRequest struct {
	CustomerID string
	From       string
	To         string
	Limit      int
	Offset     int
}

// Result is returned by create and update.
type Result struct {
	InvoiceID       string   `json:"invoice_id"`
	Invoice         *Invoice `json:"invoice"`
	CreatedProducts []string `json:"created_products,omitempty"`
}

// GrandTotal is Σ(quantity × price) + packing + freight + riksha, without rounding.
func GrandTotal(lines []Line, packing, freight, riksha decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount())
	}
	return total.Add(packing).Add(freight).Add(riksha)
}
