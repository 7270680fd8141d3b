package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/parties"
)

// TxnType tags how a jama payment was made.
type TxnType string

const (
	TxnCash   TxnType = "cash"
	TxnBank   TxnType = "bank"
	TxnCheque TxnType = "cheque"
	TxnOnline TxnType = "online"
	TxnOther  TxnType = "other"
)

// MaalEntry is the debit side row. Linked is true when an invoice with the same number
// exists; otherwise the entry is maal-only.
type MaalEntry struct {
	ID        int64           `json:"id"`
	PartyKind parties.Kind    `json:"party_kind"`
	PartyID   string          `json:"party_id"`
	InvoiceNo string          `json:"maal_invoice_no"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Remark    string          `json:"remark"`
	Linked    bool            `json:"linked"`
	CreatedAt time.Time       `json:"created_at"`
}

// Party returns the entry's party reference.
func (m MaalEntry) Party() parties.Ref {
	return parties.Ref{Kind: m.PartyKind, ID: m.PartyID}
}

// JamaEntry is a payment row.
type JamaEntry struct {
	ID        int64           `json:"id"`
	PartyKind parties.Kind    `json:"party_kind"`
	PartyID   string          `json:"party_id"`
	Date      string          `json:"date"`
	TxnType   TxnType         `json:"txn_type"`
	Amount    decimal.Decimal `json:"amount"`
	Remark    string          `json:"remark"`
	CreatedAt time.Time       `json:"created_at"`
}

func (j JamaEntry) Party() parties.Ref {
	return parties.Ref{Kind: j.PartyKind, ID: j.PartyID}
}

// InvoiceSnapshot carries the header fields the maal mirror copies.
type InvoiceSnapshot struct {
	ID         string
	CustomerID string
	Date       string
	GrandTotal decimal.Decimal
	Remark     string
}

// Party returns the customer the invoice is billed to.
func (s InvoiceSnapshot) Party() parties.Ref {
	return parties.Ref{Kind: parties.KindCustomer, ID: s.CustomerID}
}

// Balance is Σmaal − Σjama for one party, computed on read.
type Balance struct {
	Party   parties.Ref     `json:"party"`
	Maal    decimal.Decimal `json:"maal"`
	Jama    decimal.Decimal `json:"jama"`
	Balance decimal.Decimal `json:"balance"`
}

// NewBalance derives the balance from the two sums.
func NewBalance(party parties.Ref, maal, jama decimal.Decimal) Balance {
	return Balance{Party: party, Maal: maal, Jama: jama, Balance: maal.Sub(jama)}
}

// CreateMaalRequest records a maal-only entry. An empty invoice number is allocated from
// the invoice sequence.
type CreateMaalRequest struct {
	PartyKind parties.Kind    `json:"party_kind" validate:"required,oneof=customer supplier"`
	PartyID   string          `json:"party_id" validate:"required,max=64"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	InvoiceNo string          `json:"maal_invoice_no" validate:"omitempty,max=64"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Remark    string          `json:"remark" validate:"max=500"`
}

// UpdateMaalRequest edits a maal-only entry.
type UpdateMaalRequest struct {
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Remark string          `json:"remark" validate:"max=500"`
}

// JamaRequest is used for both create and update.
type JamaRequest struct {
	PartyKind parties.Kind    `json:"party_kind" validate:"required,oneof=customer supplier"`
	PartyID   string          `json:"party_id" validate:"required,max=64"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	TxnType   TxnType         `json:"txn_type" validate:"required,oneof=cash bank cheque online other"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Remark    string          `json:"remark" validate:"max=500"`
}
