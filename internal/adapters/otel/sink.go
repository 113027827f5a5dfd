// Package otel delivers metric observations to an OTEL Collector over OTLP
// gRPC.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

const (
	serviceName    = "abkit"
	serviceVersion = "1.0.0"
)

// Sink exports experiment metric observations to an OTEL Collector.
type Sink struct {
	provider     *sdkmetric.MeterProvider
	meter        metric.Meter
	metricValue  metric.Float64Counter
	metricsTotal metric.Int64Counter
}

// NewSink creates a new OTLP gRPC metric sink.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL sink is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	metricValue, err := meter.Float64Counter(
		"abkit_experiment_metric_value",
		metric.WithDescription("Sum of observed metric values per experiment variation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating value counter: %w", err)
	}

	metricsTotal, err := meter.Int64Counter(
		"abkit_experiment_metrics_total",
		metric.WithDescription("Number of metric observations logged"),
		metric.WithUnit("{observation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating observations counter: %w", err)
	}

	return &Sink{
		provider:     provider,
		meter:        meter,
		metricValue:  metricValue,
		metricsTotal: metricsTotal,
	}, nil
}

// Deliver records a single metric observation.
func (s *Sink) Deliver(ctx context.Context, r *domain.Result) error {
	opt := metric.WithAttributes(
		attribute.String("experiment_id", r.ExperimentID),
		attribute.String("variation_id", r.VariationID),
		attribute.String("metric_name", r.MetricName),
	)

	s.metricValue.Add(ctx, r.Value, opt)
	s.metricsTotal.Add(ctx, 1, opt)
	return nil
}

// Close shuts down the sink and flushes any pending metrics.
func (s *Sink) Close(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
