package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// Options configures telemetry setup.
type Options struct {
	// ServiceName overrides the service name reported in telemetry.
	// Default "elocute".
	ServiceName string

	// ServiceVersion is reported alongside the service name.
	ServiceVersion string

	// SpanExporter, when set, receives finished spans in batches. Left nil,
	// spans still record locally (the middleware derives correlation IDs from
	// them) but are not shipped anywhere.
	SpanExporter sdktrace.SpanExporter
}

// Setup registers the global OpenTelemetry providers: a meter provider
// bridged to the Prometheus exporter scraped via /metrics, and a tracer
// provider. The returned function flushes and shuts both down; defer it from
// main.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	name := opts.ServiceName
	if name == "" {
		name = "elocute"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(opts.ServiceVersion),
	))
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if opts.SpanExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(opts.SpanExporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}
