package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-till-service/internal/domain/cart"
)

// CreateCart starts a new empty cart for an in-progress sale.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c := h.carts.Create()

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// GetCart returns the cart's lines and current totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// AddCartItem prices the product against the catalog and adds it to the
// cart, incrementing the quantity when a line already exists.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var productID string
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			productID, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if productID == "" {
		writeError(w, http.StatusBadRequest, "productId required")
		return
	}

	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	c.AddOrIncrementLine(p.ID, p.Price, p.TaxRate)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// UpdateCartItem sets the quantity and/or line discount of an existing
// line. A quantity of zero removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	productID := r.PathValue("productId")

	var (
		quantity    *int
		discountPct *decimal.Decimal
	)
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "quantity":
			q, err := d.Int()
			if err != nil {
				return err
			}
			quantity = &q
			return nil
		case "discountPercent":
			pct, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			discountPct = &pct
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if quantity == nil && discountPct == nil {
		writeError(w, http.StatusBadRequest, "quantity or discountPercent required")
		return
	}

	if discountPct != nil {
		if err := c.SetLineDiscount(productID, *discountPct); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	if quantity != nil {
		if err := c.SetQuantity(productID, *quantity); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// RemoveCartItem removes the product's line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := c.RemoveLine(r.PathValue("productId")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// SetCartDiscount sets the order-level discount percent.
func (h *Handler) SetCartDiscount(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	percent := decimal.Zero
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "percent":
			percent, err = decodeDecimal(d)
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.SetGlobalDiscount(percent); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// DeleteCart destroys the cart (cancel or hold).
func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// encodeCart writes a cart snapshot: id, lines, order-level discount, and
// the freshly computed totals.
func encodeCart(e *jx.Encoder, c *cart.Cart) {
	totals := c.Totals()

	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID()) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, line := range c.Lines() {
					encodeLine(e, line)
				}
			})
		})
		e.Field("globalDiscountPercent", func(e *jx.Encoder) {
			encodeDecimal(e, c.GlobalDiscountPercent())
		})
		e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, totals) })
	})
}

func encodeLine(e *jx.Encoder, line cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(line.ProductID) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, line.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
		e.Field("discountPercent", func(e *jx.Encoder) { encodeDecimal(e, line.DiscountPercent) })
		e.Field("taxRate", func(e *jx.Encoder) { encodeDecimal(e, line.TaxRate) })
	})
}

func encodeTotals(e *jx.Encoder, totals cart.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, totals.Subtotal) })
		e.Field("taxAmount", func(e *jx.Encoder) { encodeDecimal(e, totals.TaxAmount) })
		e.Field("discountAmount", func(e *jx.Encoder) { encodeDecimal(e, totals.DiscountAmount) })
		e.Field("grandTotal", func(e *jx.Encoder) { encodeDecimal(e, totals.GrandTotal) })
	})
}
