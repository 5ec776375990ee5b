package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	paymentCounter  otelmetric.Int64Counter
	paymentDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	paymentCounter, _ := meter.Int64Counter(
		"payments.processed",
		otelmetric.WithDescription("Number of payment attempts processed"),
	)

	paymentDuration, _ := meter.Float64Histogram(
		"payments.duration",
		otelmetric.WithDescription("End-to-end payment attempt duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		paymentCounter:  paymentCounter,
		paymentDuration: paymentDuration,
	}
}

func (o *Observability) RecordPaymentProcessed(ctx context.Context, status string) {
	if o.paymentCounter != nil {
		o.paymentCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordPaymentDuration(ctx context.Context, duration time.Duration, status string) {
	if o.paymentDuration != nil {
		o.paymentDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
