package parties

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Kind distinguishes the two party tables. Both share the same shape.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// ParseKind accepts singular or plural spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "customers":
		return KindCustomer, nil
	case "supplier", "suppliers":
		return KindSupplier, nil
	}
	return "", shared.NewValidationError("kind", fmt.Sprintf("unknown party kind %q", s))
}

// Table returns the backing table name.
func (k Kind) Table() string {
	if k == KindSupplier {
		return "suppliers"
	}
	return "customers"
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCustomer || k == KindSupplier
}

// Ref addresses one party.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Party is a customer or supplier.
type Party struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Mobile    string    `json:"mobile"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the party reference.
func (p Party) Ref() Ref {
	return Ref{Kind: p.Kind, ID: p.ID}
}

// CreateRequest is the payload for customers.create / suppliers.create.
type CreateRequest struct {
	ID      string `json:"id" validate:"omitempty,max=64"`
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Mobile  string `json:"mobile" validate:"max=20"`
}

// UpdateRequest is the payload for customers.update / suppliers.update.
type UpdateRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Mobile  string `json:"mobile" validate:"max=20"`
}

// ListRequest filters party listings.
type ListRequest struct {
	Search string
	Limit  int
	Offset int
}
