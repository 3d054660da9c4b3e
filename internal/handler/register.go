package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-till-service/internal/domain/register"
	"github.com/xenking/pos-till-service/internal/domain/tender"
)

// OpenRegister starts a new register session with the given opening float.
func (h *Handler) OpenRegister(w http.ResponseWriter, r *http.Request) {
	openingFloat := decimal.Zero
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "openingFloat":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			openingFloat = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.registers.Open(r.Context(), openingFloat)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeSessionSnapshot(e, snap)
	})
}

// GetRegister returns a consistent snapshot of the session, including the
// live expected-cash figure.
func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registers.Snapshot(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeSessionSnapshot(e, snap)
	})
}

// PostSale completes a cart into the session: the cart's grand total must
// match the tender split, the sale is posted atomically, and the cart is
// destroyed on success.
func (h *Handler) PostSale(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var (
		cartID string
		split  tender.Split
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "cartId":
			v, err := d.Str()
			if err != nil {
				return err
			}
			cartID = v
			return nil
		case "tenders":
			v, err := decodeSplit(d)
			if err != nil {
				return err
			}
			split = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "cartId required")
		return
	}

	ctx, span := h.tm.tracer.Start(r.Context(), "register.post_sale")
	defer span.End()

	c, err := h.carts.Get(cartID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	totals := c.Totals()

	sale, err := h.registers.PostSale(ctx, sessionID, totals.GrandTotal, split)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// The cart is consumed by the completed sale. The inventory service is
	// notified by the caller, never from here.
	_ = h.carts.Delete(cartID)

	h.tm.sales.Add(ctx, 1)
	h.tm.saleValue.Record(ctx, sale.GrandTotal.InexactFloat64())
	for method, amount := range sale.Tenders {
		h.tm.tenderAmount.Add(ctx, amount.InexactFloat64(), methodAttr(string(method)))
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(sale.ID) })
			e.Field("sessionId", func(e *jx.Encoder) { e.Str(sale.SessionID) })
			e.Field("grandTotal", func(e *jx.Encoder) { encodeDecimal(e, sale.GrandTotal) })
			e.Field("tenders", func(e *jx.Encoder) { encodeSplit(e, sale.Tenders) })
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, totals) })
			e.Field("createdAt", func(e *jx.Encoder) { e.Str(sale.CreatedAt.Format(time.RFC3339Nano)) })
		})
	})
}

// CloseRegister closes the session against a counted cash amount and
// returns the close-out variance report.
func (h *Handler) CloseRegister(w http.ResponseWriter, r *http.Request) {
	countedCash := decimal.Zero
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "countedCash":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			countedCash = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.registers.Close(r.Context(), r.PathValue("id"), countedCash)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCloseReport(e, report)
	})
}

func encodeSessionSnapshot(e *jx.Encoder, snap register.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(snap.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(snap.Status.String()) })
		e.Field("openingFloat", func(e *jx.Encoder) { encodeDecimal(e, snap.OpeningFloat) })
		e.Field("openedAt", func(e *jx.Encoder) { e.Str(snap.OpenedAt.Format(time.RFC3339Nano)) })
		if snap.ClosedAt != nil {
			e.Field("closedAt", func(e *jx.Encoder) { e.Str(snap.ClosedAt.Format(time.RFC3339Nano)) })
		}
		e.Field("tenderTotals", func(e *jx.Encoder) { encodeSplit(e, snap.TenderTotals) })
		e.Field("transactionCount", func(e *jx.Encoder) { e.Int(snap.TransactionCount) })
		e.Field("expectedCash", func(e *jx.Encoder) { encodeDecimal(e, snap.ExpectedCash) })
	})
}

func encodeCloseReport(e *jx.Encoder, report register.CloseReport) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("sessionId", func(e *jx.Encoder) { e.Str(report.SessionID) })
		e.Field("openedAt", func(e *jx.Encoder) { e.Str(report.OpenedAt.Format(time.RFC3339Nano)) })
		e.Field("closedAt", func(e *jx.Encoder) { e.Str(report.ClosedAt.Format(time.RFC3339Nano)) })
		e.Field("expectedCash", func(e *jx.Encoder) { encodeDecimal(e, report.ExpectedCash) })
		e.Field("countedCash", func(e *jx.Encoder) { encodeDecimal(e, report.CountedCash) })
		e.Field("variance", func(e *jx.Encoder) { encodeDecimal(e, report.Variance) })
		e.Field("totalSales", func(e *jx.Encoder) { encodeDecimal(e, report.TotalSales) })
		e.Field("tenderTotals", func(e *jx.Encoder) { encodeSplit(e, report.TenderTotals) })
		e.Field("transactionCount", func(e *jx.Encoder) { e.Int(report.TransactionCount) })
	})
}
