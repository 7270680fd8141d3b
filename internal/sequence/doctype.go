package sequence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// DocType names a numbered document series.
type DocType string

const (
	DocInvoice       DocType = "invoice"
	DocCustomerOrder DocType = "customer_order"
	DocSupplierOrder DocType = "supplier_order"
)

var prefixes = map[DocType]string{
	DocInvoice:       "INV",
	DocCustomerOrder: "CO",
	DocSupplierOrder: "SO",
}

// DocTypes lists every known series in a stable order.
func DocTypes() []DocType {
	return []DocType{DocInvoice, DocCustomerOrder, DocSupplierOrder}
}

// Prefix returns the fixed identifier prefix of the series.
func (d DocType) Prefix() string {
	return prefixes[d]
}

// Valid reports whether d is a known series.
func (d DocType) Valid() bool {
	_, ok := prefixes[d]
	return ok
}

// ParseDocType accepts the series name with dashes or underscores.
func ParseDocType(s string) (DocType, error) {
	d := DocType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !d.Valid() {
		return "", shared.NewValidationError("doc_type", fmt.Sprintf("unknown document type %q", s))
	}
	return d, nil
}

// Format renders PREFIX-N with N in decimal without leading zeros.
func Format(d DocType, n int64) string {
	return d.Prefix() + "-" + strconv.FormatInt(n, 10)
}

// Parse splits a canonical PREFIX-N identifier.
func Parse(id string) (DocType, int64, error) {
	prefix, num, ok := strings.Cut(id, "-")
	if !ok {
		return "", 0, fmt.Errorf("sequence: malformed document id %q", id)
	}
	for d, p := range prefixes {
		if p != prefix {
			continue
		}
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil || n <= 0 || strconv.FormatInt(n, 10) != num {
			return "", 0, fmt.Errorf("sequence: malformed document number in %q", id)
		}
		return d, n, nil
	}
	return "", 0, fmt.Errorf("sequence: unknown prefix in %q", id)
}

// ParseLegacyNumber extracts the numeric suffix from identifiers written by older releases,
// which used both PREFIX-N and PREFIXN and sometimes zero padded N.
func ParseLegacyNumber(d DocType, id string) (int64, bool) {
	s := strings.ToUpper(strings.TrimSpace(id))
	rest, ok := strings.CutPrefix(s, d.Prefix())
	if !ok {
		return 0, false
	}
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
