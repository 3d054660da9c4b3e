package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds the monetary totals of a cart, rounded to the currency's
// minor-unit precision (2 decimal places). DiscountAmount is the order-level
// discount; line-level discounts are already netted into Subtotal.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// Totals computes the cart's totals. It is a pure function of the current
// cart state and is safe to call any number of times.
//
// Per line: net = unitPrice*quantity reduced by the line discount percent.
// Subtotal sums the line nets. Tax is computed per line on the line's
// post-discount net, then summed; lines may carry different tax rates.
// The order-level discount applies to the subtotal, not to tax.
// GrandTotal = subtotal + tax - order discount, clamped at zero when
// combined discounts exceed 100%.
//
// Intermediate values keep full precision; rounding happens only on the
// returned figures so rounding error cannot compound across lines.
func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero

	for i := range c.lines {
		line := &c.lines[i]
		gross := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		net := gross.Sub(gross.Mul(line.DiscountPercent).Div(hundred))
		subtotal = subtotal.Add(net)
		tax = tax.Add(net.Mul(line.TaxRate))
	}

	orderDiscount := subtotal.Mul(c.globalDiscount).Div(hundred)

	grand := subtotal.Add(tax).Sub(orderDiscount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal.Round(2),
		TaxAmount:      tax.Round(2),
		DiscountAmount: orderDiscount.Round(2),
		GrandTotal:     grand.Round(2),
	}
}
