// Package product defines the read-only view of the external catalog
// service. The till only prices against catalog rows; all catalog CRUD
// lives elsewhere.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item as the till sees it: an opaque id, the unit
// price, and the tax rate applied to this product's lines (a fraction,
// e.g. 0.08).
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	TaxRate  decimal.Decimal
	Category string
}

// Repository defines read operations against the catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
