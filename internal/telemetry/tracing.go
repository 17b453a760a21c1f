package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracePipeline owns the SDK TracerProvider lifetime, mirroring Pipeline's
// metric setup. With an OTLP endpoint configured it ships spans to a
// collector over gRPC; otherwise it prints them to stdout, matching
// Pipeline's own local/dev fallback.
type TracePipeline struct {
	provider *sdktrace.TracerProvider
}

// NewTracePipeline wires a span exporter and installs it as the global
// TracerProvider and propagator.
func NewTracePipeline(ctx context.Context, serviceName, otlpEndpoint string) (*TracePipeline, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("merge resource: %w", err)
	}

	var spanProcessor sdktrace.TracerProviderOption
	if otlpEndpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(otlpEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
		spanProcessor = sdktrace.WithBatcher(exporter)
	} else {
		exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		spanProcessor = sdktrace.WithBatcher(exporter)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		spanProcessor,
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return &TracePipeline{provider: provider}, nil
}

// Shutdown flushes and stops the trace pipeline.
func (p *TracePipeline) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Tracer returns a tracer scoped to name, sourced from whatever provider is
// currently installed globally (the real one after NewTracePipeline runs,
// a no-op otherwise so callers never need a nil check).
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
