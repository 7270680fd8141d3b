package shared

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleLine struct {
	Code     string          `json:"product_code" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type sampleRequest struct {
	PartyID string       `json:"party_id" validate:"required"`
	Date    string       `json:"date" validate:"required,datetime=2006-01-02"`
	Lines   []sampleLine `json:"lines" validate:"required,min=1,dive"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()
	err := ValidateStruct(v, sampleRequest{
		Date:  "02/01/2024",
		Lines: []sampleLine{{Code: "a", Quantity: decimal.Zero}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "party_id")
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "lines[0].quantity")
}

func TestValidateStructAcceptsPositiveDecimal(t *testing.T) {
	v := NewValidator()
	err := ValidateStruct(v, sampleRequest{
		PartyID: "C-1",
		Date:    "2024-01-02",
		Lines:   []sampleLine{{Code: "a", Quantity: decimal.RequireFromString("0.5")}},
	})
	require.NoError(t, err)
}

func TestConstraintErrorUnwraps(t *testing.T) {
	err := &ConstraintError{Constraint: "products_pkey", Message: "duplicate key"}
	assert.True(t, errors.Is(err, ErrConstraint))
	assert.Contains(t, err.Error(), "products_pkey")
}
