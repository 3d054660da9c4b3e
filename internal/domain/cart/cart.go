// Package cart implements the in-progress sale: line items, per-line and
// order-level discounts, and the pricing computation that produces the
// cart's monetary totals.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidPercent is returned when a discount percent is outside [0, 100].
// Out-of-range values are rejected rather than clamped so that UI bugs
// surface instead of being masked.
var ErrInvalidPercent = errors.New("discount percent must be between 0 and 100")

// LineNotFoundError indicates an operation on a product that has no line in
// the cart.
type LineNotFoundError struct {
	ProductID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("no cart line for product %s", e.ProductID)
}

// LineItem is one product instance in a cart. Quantity is always >= 1;
// a line whose quantity drops to zero is removed from the cart entirely.
type LineItem struct {
	ProductID       string
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
}

// Cart is an ordered collection of line items plus an order-level discount.
// A cart is owned by exactly one in-progress sale and is not safe for
// concurrent use; it is destroyed on completion, hold, or cancel.
type Cart struct {
	id             string
	lines          []LineItem
	globalDiscount decimal.Decimal
}

// New creates an empty cart with the given identifier.
func New(id string) *Cart {
	return &Cart{id: id}
}

// ID returns the cart's identifier.
func (c *Cart) ID() string {
	return c.id
}

// Lines returns a copy of the cart's line items in stable display order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// GlobalDiscountPercent returns the order-level discount percent.
func (c *Cart) GlobalDiscountPercent() decimal.Decimal {
	return c.globalDiscount
}

// AddOrIncrementLine adds a new line with quantity 1 for the product, or
// increments the existing line's quantity by 1. It always succeeds.
func (c *Cart) AddOrIncrementLine(productID string, unitPrice, taxRate decimal.Decimal) {
	if line := c.find(productID); line != nil {
		line.Quantity++
		return
	}
	c.lines = append(c.lines, LineItem{
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  1,
		TaxRate:   taxRate,
	})
}

// SetQuantity sets the quantity of the product's line. A quantity of zero or
// less removes the line. Returns a LineNotFoundError when the product has no
// line in the cart.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveLine(productID)
	}
	line := c.find(productID)
	if line == nil {
		return &LineNotFoundError{ProductID: productID}
	}
	line.Quantity = quantity
	return nil
}

// SetLineDiscount sets the discount percent on the product's line.
// Percent must be within [0, 100].
func (c *Cart) SetLineDiscount(productID string, percent decimal.Decimal) error {
	if err := validatePercent(percent); err != nil {
		return err
	}
	line := c.find(productID)
	if line == nil {
		return &LineNotFoundError{ProductID: productID}
	}
	line.DiscountPercent = percent
	return nil
}

// SetGlobalDiscount sets the order-level discount percent applied after
// line-level discounts and before tax. Percent must be within [0, 100].
func (c *Cart) SetGlobalDiscount(percent decimal.Decimal) error {
	if err := validatePercent(percent); err != nil {
		return err
	}
	c.globalDiscount = percent
	return nil
}

// RemoveLine removes the product's line from the cart.
func (c *Cart) RemoveLine(productID string) error {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return &LineNotFoundError{ProductID: productID}
}

// Clear removes all lines and resets the order-level discount.
func (c *Cart) Clear() {
	c.lines = nil
	c.globalDiscount = decimal.Zero
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) find(productID string) *LineItem {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return &c.lines[i]
		}
	}
	return nil
}

func validatePercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return errors.Wrapf(ErrInvalidPercent, "got %s", percent)
	}
	return nil
}
