package handler

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "pos-till-service/handler"

// telemetry holds the sale-path instruments: a sale counter, a histogram of
// sale values, and a per-method tendered-amount counter.
type telemetry struct {
	tracer trace.Tracer

	sales        metric.Int64Counter
	saleValue    metric.Float64Histogram
	tenderAmount metric.Float64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	sales, err := meter.Int64Counter("till.sales",
		metric.WithDescription("Completed sales"))
	if err != nil {
		return nil, err
	}
	saleValue, err := meter.Float64Histogram("till.sale.value",
		metric.WithDescription("Grand total of completed sales"))
	if err != nil {
		return nil, err
	}
	tenderAmount, err := meter.Float64Counter("till.tendered",
		metric.WithDescription("Amount tendered, by payment method"))
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:       tp.Tracer(instrumentationName),
		sales:        sales,
		saleValue:    saleValue,
		tenderAmount: tenderAmount,
	}, nil
}

func methodAttr(method string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("method", method))
}
