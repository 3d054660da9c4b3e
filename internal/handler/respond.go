package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pos-till-service/internal/domain/cart"
	"github.com/xenking/pos-till-service/internal/domain/product"
	"github.com/xenking/pos-till-service/internal/domain/register"
	"github.com/xenking/pos-till-service/internal/domain/tender"
)

// maxBodySize bounds request bodies; till requests are tiny.
const maxBodySize = 1 << 16

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeDomainError maps a domain error to its HTTP representation.
// Validation failures are 400, unknown resources 404 (422 for catalog
// misses, matching the order-placement convention), tender mismatches 422,
// and lifecycle violations 409. Anything else is a 500 and gets logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		lineErr   *cart.LineNotFoundError
		cartErr   *cart.NotFoundError
		sessErr   *register.NotFoundError
		tenderErr *register.TenderMismatchError
		amountErr *tender.NegativeAmountError
	)

	switch {
	case errors.Is(err, cart.ErrInvalidPercent),
		errors.Is(err, register.ErrNegativeOpeningFloat),
		errors.Is(err, tender.ErrEmptySplit),
		errors.As(err, &amountErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &lineErr),
		errors.As(err, &cartErr),
		errors.As(err, &sessErr):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &tenderErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, register.ErrAlreadyClosed),
		errors.Is(err, register.ErrSessionClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody runs decode over the request body as a JSON object.
func decodeBody(r *http.Request, decode func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	d := jx.DecodeBytes(body)
	if err := d.Obj(decode); err != nil {
		return errors.Wrap(err, "parse body")
	}
	return nil
}

// decodeDecimal reads a JSON number (or numeric string) as an exact decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(strings.Trim(string(n), `"`))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}

// encodeDecimal writes an exact decimal as a JSON number.
func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// encodeSplit writes a tender split as an object of method -> amount.
func encodeSplit(e *jx.Encoder, split tender.Split) {
	e.Obj(func(e *jx.Encoder) {
		for method, amount := range split {
			e.Field(string(method), func(e *jx.Encoder) { encodeDecimal(e, amount) })
		}
	})
}

// decodeSplit reads an object of method -> amount into a tender split.
func decodeSplit(d *jx.Decoder) (tender.Split, error) {
	split := make(tender.Split)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		amount, err := decodeDecimal(d)
		if err != nil {
			return err
		}
		split[tender.Method(key)] = amount
		return nil
	})
	return split, err
}
