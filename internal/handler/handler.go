// Package handler exposes the till core over HTTP: catalog reads, cart
// mutations, and register session lifecycle. Monetary values cross the
// wire as exact decimal numbers; parsing never goes through float64.
package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/metric"
	mnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tnoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/pos-till-service/internal/domain/cart"
	"github.com/xenking/pos-till-service/internal/domain/product"
	"github.com/xenking/pos-till-service/internal/domain/register"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	products  product.Repository
	carts     *cart.Store
	registers *register.Service
	tm        *telemetry
}

// Option customizes a Handler.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTelemetry sets the providers used for sale-path traces and metrics.
// Without it the handler uses no-op providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
		o.meterProvider = mp
	}
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	carts *cart.Store,
	registers *register.Service,
	opts ...Option,
) (*Handler, error) {
	o := options{
		tracerProvider: tnoop.NewTracerProvider(),
		meterProvider:  mnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tm, err := newTelemetry(o.tracerProvider, o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Handler{
		products:  products,
		carts:     carts,
		registers: registers,
		tm:        tm,
	}, nil
}

// Routes returns the API routing table. The authn middleware guards every
// mutating route; reads are left open for display polling.
func (h *Handler) Routes(authn func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	protected := func(fn http.HandlerFunc) http.Handler {
		return authn(fn)
	}

	mux.HandleFunc("GET /api/product", h.ListProducts)
	mux.HandleFunc("GET /api/product/{id}", h.GetProduct)

	mux.Handle("POST /api/cart", protected(h.CreateCart))
	mux.HandleFunc("GET /api/cart/{id}", h.GetCart)
	mux.Handle("POST /api/cart/{id}/items", protected(h.AddCartItem))
	mux.Handle("PUT /api/cart/{id}/items/{productId}", protected(h.UpdateCartItem))
	mux.Handle("DELETE /api/cart/{id}/items/{productId}", protected(h.RemoveCartItem))
	mux.Handle("PUT /api/cart/{id}/discount", protected(h.SetCartDiscount))
	mux.Handle("DELETE /api/cart/{id}", protected(h.DeleteCart))

	mux.Handle("POST /api/register", protected(h.OpenRegister))
	mux.HandleFunc("GET /api/register/{id}", h.GetRegister)
	mux.Handle("POST /api/register/{id}/sales", protected(h.PostSale))
	mux.Handle("POST /api/register/{id}/close", protected(h.CloseRegister))

	return mux
}
