package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimalEqual(t *testing.T, want, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, want.Equal(got), "expected %s, got %s: %v", want, got, msgAndArgs)
}

func TestTotals_EmptyCart(t *testing.T) {
	c := New("c1")

	totals := c.Totals()

	assertDecimalEqual(t, decimal.Zero, totals.Subtotal)
	assertDecimalEqual(t, decimal.Zero, totals.TaxAmount)
	assertDecimalEqual(t, decimal.Zero, totals.DiscountAmount)
	assertDecimalEqual(t, decimal.Zero, totals.GrandTotal)
}

func TestTotals_SingleLineWithLineDiscountAndTax(t *testing.T) {
	// unitPrice=15.99, quantity=3, discountPercent=10, taxRate=0.08:
	// lineNet = 47.97 - 4.797 = 43.173, tax = 3.45384.
	// Only the reported figures are rounded.
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("15.99"), dec("0.08"))
	require.NoError(t, c.SetQuantity("p1", 3))
	require.NoError(t, c.SetLineDiscount("p1", dec("10")))

	totals := c.Totals()

	assertDecimalEqual(t, dec("43.17"), totals.Subtotal)
	assertDecimalEqual(t, dec("3.45"), totals.TaxAmount)
	assertDecimalEqual(t, decimal.Zero, totals.DiscountAmount)
	assertDecimalEqual(t, dec("46.63"), totals.GrandTotal)
}

func TestTotals_LineAndGlobalDiscountFormula(t *testing.T) {
	// For one line of gross G with line discount d1, global discount d2 and
	// tax rate t: grand = G*(1-d1/100)*(1+t) - G*(1-d1/100)*(d2/100).
	tests := []struct {
		name      string
		gross     string
		d1, d2    string
		taxRate   string
		wantGrand string
	}{
		{name: "no discounts", gross: "100", d1: "0", d2: "0", taxRate: "0.1", wantGrand: "110"},
		{name: "line discount only", gross: "200", d1: "25", d2: "0", taxRate: "0.08", wantGrand: "162"},
		{name: "global discount only", gross: "100", d1: "0", d2: "10", taxRate: "0.2", wantGrand: "110"},
		{name: "both discounts", gross: "50", d1: "10", d2: "20", taxRate: "0.05", wantGrand: "38.25"},
		{name: "full line discount", gross: "80", d1: "100", d2: "0", taxRate: "0.15", wantGrand: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("c1")
			c.AddOrIncrementLine("p1", dec(tt.gross), dec(tt.taxRate))
			require.NoError(t, c.SetLineDiscount("p1", dec(tt.d1)))
			require.NoError(t, c.SetGlobalDiscount(dec(tt.d2)))

			assertDecimalEqual(t, dec(tt.wantGrand), c.Totals().GrandTotal)
		})
	}
}

func TestTotals_TaxComputedPerLine(t *testing.T) {
	// Two lines with different tax rates: tax must be the sum of each
	// line's own tax, not subtotal * blended rate.
	c := New("c1")
	c.AddOrIncrementLine("food", dec("10.00"), dec("0.05"))
	c.AddOrIncrementLine("wine", dec("20.00"), dec("0.20"))

	totals := c.Totals()

	assertDecimalEqual(t, dec("30.00"), totals.Subtotal)
	assertDecimalEqual(t, dec("4.50"), totals.TaxAmount) // 0.50 + 4.00
	assertDecimalEqual(t, dec("34.50"), totals.GrandTotal)
}

func TestTotals_GlobalDiscountAppliesToSubtotalNotTax(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("100.00"), dec("0.10"))
	require.NoError(t, c.SetGlobalDiscount(dec("50")))

	totals := c.Totals()

	// discount = 50% of the 100.00 subtotal, tax stays 10.00.
	assertDecimalEqual(t, dec("50.00"), totals.DiscountAmount)
	assertDecimalEqual(t, dec("10.00"), totals.TaxAmount)
	assertDecimalEqual(t, dec("60.00"), totals.GrandTotal)
}

func TestTotals_GrandTotalClampedAtZero(t *testing.T) {
	// 100% line discount plus a global discount would drive the grand total
	// negative without the clamp.
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("10.00"), decimal.Zero)
	require.NoError(t, c.SetLineDiscount("p1", dec("100")))
	require.NoError(t, c.SetGlobalDiscount(dec("100")))
	c.AddOrIncrementLine("p2", dec("0.01"), decimal.Zero)
	require.NoError(t, c.SetLineDiscount("p2", dec("100")))

	totals := c.Totals()

	assert.False(t, totals.GrandTotal.IsNegative())
	assertDecimalEqual(t, decimal.Zero, totals.GrandTotal)
}

func TestTotals_RoundsOnlyReportedFigures(t *testing.T) {
	// Sub-cent line nets: rounding per line would drift the subtotal.
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("2.23"), decimal.Zero)
	require.NoError(t, c.SetQuantity("p1", 7))
	require.NoError(t, c.SetLineDiscount("p1", dec("50")))

	totals := c.Totals()

	// Full precision: 2.23*7 = 15.61, half = 7.805, rounded once = 7.81.
	assertDecimalEqual(t, dec("7.81"), totals.Subtotal)
}

func TestTotals_ReadsAreIdempotent(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("19.99"), dec("0.07"))
	require.NoError(t, c.SetGlobalDiscount(dec("5")))

	first := c.Totals()
	second := c.Totals()

	assert.Equal(t, first, second)
}
