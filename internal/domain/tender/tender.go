// Package tender models how a completed sale's total was paid.
package tender

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method identifies a payment method. The set below covers the built-in
// methods; values are opaque tags owned by the payments service, so unknown
// methods are stored and accumulated as-is.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCard   Method = "card"
	MethodMobile Method = "mobile"
)

// ErrEmptySplit is returned when a tender split contains no amounts.
var ErrEmptySplit = errors.New("tender split must contain at least one amount")

// NegativeAmountError indicates a tender split entry with a negative amount.
type NegativeAmountError struct {
	Method Method
}

func (e *NegativeAmountError) Error() string {
	return "negative tender amount for method " + string(e.Method)
}

// Split maps payment methods to the amount paid with each.
type Split map[Method]decimal.Decimal

// Total returns the sum of all amounts in the split.
func (s Split) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range s {
		sum = sum.Add(amount)
	}
	return sum
}

// Validate checks that the split is non-empty and all amounts are non-negative.
func (s Split) Validate() error {
	if len(s) == 0 {
		return ErrEmptySplit
	}
	for method, amount := range s {
		if amount.IsNegative() {
			return &NegativeAmountError{Method: method}
		}
	}
	return nil
}

// Clone returns an independent copy of the split.
func (s Split) Clone() Split {
	out := make(Split, len(s))
	for method, amount := range s {
		out[method] = amount
	}
	return out
}
