package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

func TestParseStatusPerKind(t *testing.T) {
	st, err := ParseStatus(parties.KindCustomer, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)

	st, err = ParseStatus(parties.KindCustomer, " dispatched ")
	require.NoError(t, err)
	assert.Equal(t, StatusDispatched, st)

	_, err = ParseStatus(parties.KindSupplier, "DISPATCHED")
	assert.ErrorIs(t, err, shared.ErrValidation)

	st, err = ParseStatus(parties.KindSupplier, "received")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, st)
}

func TestKindMapsToSeriesAndTables(t *testing.T) {
	assert.Equal(t, sequence.DocCustomerOrder, DocType(parties.KindCustomer))
	assert.Equal(t, sequence.DocSupplierOrder, DocType(parties.KindSupplier))
	assert.Equal(t, "supplier_order_lines", tables(parties.KindSupplier).lines)
	assert.Equal(t, "customer_id", tables(parties.KindCustomer).partyCol)
}
