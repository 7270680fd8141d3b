package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
)

// Source tells where a history row came from.
type Source string

const (
	SourceInvoice Source = "invoice"
	SourceMaal    Source = "maal"
)

// Row is one invoice-like entry in a party's history.
type Row struct {
	Source    Source          `json:"source"`
	InvoiceNo string          `json:"invoice_no"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Remark    string          `json:"remark"`
	CreatedAt time.Time       `json:"created_at"`
}

// Payment is one jama row in a party's payment history.
type Payment struct {
	ID      int64           `json:"id"`
	Date    string          `json:"date"`
	TxnType ledger.TxnType  `json:"txn_type"`
	Amount  decimal.Decimal `json:"amount"`
	Remark  string          `json:"remark"`
}

// Statement bundles the three party views.
type Statement struct {
	Party    parties.Ref    `json:"party"`
	History  []Row          `json:"history"`
	Payments []Payment      `json:"payments"`
	Balance  ledger.Balance `json:"balance"`
}
