package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Metric name constants follow a dotted, domain-prefixed naming
// convention.
const (
	MetricLookupRequests = "eol.lookup.requests"
	MetricLookupErrors   = "eol.lookup.errors"
	MetricLookupDuration = "eol.lookup.duration_ms"
	MetricCacheHits      = "eol.cache.hits"
	MetricCacheMisses    = "eol.cache.misses"
)

// Instruments caches OTel metric instruments by name, mirroring the
// teacher's telemetry.MetricInstruments so a second call to IncrCounter
// with the same name reuses the same instrument instead of re-registering
// it with the meter.
type Instruments struct {
	meter      metric.Meter
	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewInstruments creates an instrument cache against the given meter name.
func NewInstruments(meterName string) *Instruments {
	return &Instruments{
		meter:      otel.Meter(meterName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (m *Instruments) counter(name string) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	c, err := m.meter.Int64Counter(name)
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", name, err)
	}
	m.counters[name] = c
	return c, nil
}

func (m *Instruments) histogram(name string) (metric.Float64Histogram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h, nil
	}
	h, err := m.meter.Float64Histogram(name)
	if err != nil {
		return nil, fmt.Errorf("create histogram %s: %w", name, err)
	}
	m.histograms[name] = h
	return h, nil
}

// IncrCounter adds delta to the named counter, tagged with agent.
func (m *Instruments) IncrCounter(ctx context.Context, name, agent string, delta int64) {
	c, err := m.counter(name)
	if err != nil {
		return
	}
	c.Add(ctx, delta, metric.WithAttributes(attribute.String("agent", agent)))
}

// RecordDuration records a latency measurement in milliseconds, tagged
// with agent.
func (m *Instruments) RecordDuration(ctx context.Context, agent string, d time.Duration) {
	h, err := m.histogram(MetricLookupDuration)
	if err != nil {
		return
	}
	h.Record(ctx, float64(d.Microseconds())/1000.0, metric.WithAttributes(attribute.String("agent", agent)))
}

// Pipeline owns the SDK MeterProvider lifetime. Initialized once at
// process startup, it exports to stdout at a fixed interval — adequate
// for a single-process service where a full OTLP collector is overkill
// for local/dev runs.
type Pipeline struct {
	provider *sdkmetric.MeterProvider
}

// NewPipeline wires a periodic stdout metric exporter and installs it as
// the global MeterProvider.
func NewPipeline(ctx context.Context, serviceName string) (*Pipeline, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("merge resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(60*time.Second))),
	)
	otel.SetMeterProvider(provider)

	return &Pipeline{provider: provider}, nil
}

// Shutdown flushes and stops the metric pipeline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
