package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGrandTotalIsUnrounded(t *testing.T) {
	lines := []Line{
		{Quantity: d("2"), SellingPrice: d("10")},
		{Quantity: d("1"), SellingPrice: d("5")},
	}
	assert.True(t, GrandTotal(lines, d("2"), decimal.Zero, decimal.Zero).Equal(d("27")))

	fractional := []Line{{Quantity: d("0.333"), SellingPrice: d("3.3333")}}
	got := GrandTotal(fractional, d("0.005"), d("0"), d("0.001"))
	assert.Equal(t, "1.1159889", got.String())
}

func TestSnapshotCarriesMirroredFields(t *testing.T) {
	inv := Invoice{ID: "INV-3", CustomerID: "C-1", Date: "2026-10-16", Remark: "r", GrandTotal: d("9.5")}
	snap := inv.Snapshot()
	assert.Equal(t, "INV-3", snap.ID)
	assert.Equal(t, "C-1", snap.Party().ID)
	assert.True(t, snap.GrandTotal.Equal(d("9.5")))
}
