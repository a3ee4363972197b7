package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider implements Telemetry with OpenTelemetry, exporting spans
// with the stdouttrace exporter. This mirrors the teacher's
// OTelProvider but trimmed to what this platform's core actually
// calls: span start/end/event/error and a simple named-metric counter.
type Provider struct {
	tracer         trace.Tracer
	traceProvider  *sdktrace.TracerProvider
	mu             sync.Mutex
	metricCounters map[string]float64
}

// NewProvider builds a Provider that writes spans as JSON to w (os.Stdout
// is the common choice; io.Discard silences them while still exercising
// the code path, which is useful in tests).
func NewProvider(serviceName string, w io.Writer) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		tracer:         tp.Tracer(serviceName),
		traceProvider:  tp,
		metricCounters: make(map[string]float64),
	}, nil
}

func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := p.tracer.Start(ctx, name)
	wrapped := &otelSpan{span: span}
	return ContextWithSpan(ctx, wrapped), wrapped
}

func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metricCounters[name] += value
}

// Shutdown flushes and stops the underlying trace provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.traceProvider.Shutdown(ctx)
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *otelSpan) AddEvent(name string, attrs map[string]interface{}) {
	opts := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		opts = append(opts, toAttribute(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(opts...))
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

var _ Telemetry = (*Provider)(nil)
