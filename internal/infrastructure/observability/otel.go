package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/contentexplore"

// Fetch kinds and outcomes used as metric attributes
const (
	FetchKindReset  = "reset"
	FetchKindAppend = "append"

	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// ListMetrics holds explore list metrics
type ListMetrics struct {
	FetchCount    metric.Int64Counter
	FetchDuration metric.Float64Histogram
	StaleCount    metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing and metrics with OTLP gRPC
// exporters. Metrics are pushed periodically and once more on shutdown.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	// Go runtime metrics; mostly useful for watch, which runs until interrupted
	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		_ = meterProvider.Shutdown(ctx)
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitListMetrics creates the list controller instruments on the global meter provider
func InitListMetrics() (*ListMetrics, error) {
	return NewListMetrics(otel.GetMeterProvider())
}

// NewListMetrics creates the list controller instruments on provider
func NewListMetrics(provider metric.MeterProvider) (*ListMetrics, error) {
	meter := provider.Meter(instrumentationName)

	fetchCount, err := meter.Int64Counter(
		"content.list.fetch.count",
		metric.WithDescription("Number of completed list page fetches"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"content.list.fetch.duration",
		metric.WithDescription("List page fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	staleCount, err := meter.Int64Counter(
		"content.list.stale.count",
		metric.WithDescription("Number of responses dropped because the list identity changed"),
	)
	if err != nil {
		return nil, err
	}

	return &ListMetrics{
		FetchCount:    fetchCount,
		FetchDuration: fetchDuration,
		StaleCount:    staleCount,
	}, nil
}

// RecordFetch records one finished fetch. A nil receiver is a no-op.
func (m *ListMetrics) RecordFetch(ctx context.Context, kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("list.fetch.kind", kind),
		attribute.String("list.fetch.outcome", outcome),
	)
	m.FetchCount.Add(ctx, 1, attrs)
	m.FetchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if outcome == OutcomeStale {
		m.StaleCount.Add(ctx, 1, metric.WithAttributes(attribute.String("list.fetch.kind", kind)))
	}
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}
