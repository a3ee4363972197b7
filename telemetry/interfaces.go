// Package telemetry wraps OpenTelemetry tracing behind the narrow
// contract the cascade observer (CascadeObserver) and classification
// cache actually use: start a span, attach an event or error to the
// current one, and record a metric value. Ported from the teacher's
// core.Telemetry/Span contract and telemetry/otel.go provider.
package telemetry

import "context"

// Telemetry is the contract components depend on. A nil *Provider is
// never passed around; NoOp satisfies this interface for components
// that don't want to thread a provider through their constructor.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span is a single unit of tracing work.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	AddEvent(name string, attrs map[string]interface{})
	RecordError(err error)
}

// AddSpanEvent is a convenience matching the teacher's package-level
// telemetry.AddSpanEvent helper: attach an event to whatever span is
// active on ctx, if any.
func AddSpanEvent(ctx context.Context, name string, attrs map[string]interface{}) {
	span := SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(name, attrs)
	}
}

type spanContextKey struct{}

// ContextWithSpan stashes a Span on ctx for AddSpanEvent/RecordSpanError
// to find later in the call chain.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext retrieves the Span stashed by ContextWithSpan, or nil.
func SpanFromContext(ctx context.Context) Span {
	if span, ok := ctx.Value(spanContextKey{}).(Span); ok {
		return span
	}
	return nil
}

// RecordSpanError is a convenience matching the teacher's
// telemetry.RecordSpanError helper.
func RecordSpanError(ctx context.Context, err error) {
	if span := SpanFromContext(ctx); span != nil {
		span.RecordError(err)
	}
}

// NoOp discards everything. Safe default dependency for optional
// telemetry.
type NoOp struct{}

func (NoOp) StartSpan(ctx context.Context, _ string) (context.Context, Span) { return ctx, noopSpan{} }
func (NoOp) RecordMetric(string, float64, map[string]string)                {}

type noopSpan struct{}

func (noopSpan) End()                                  {}
func (noopSpan) SetAttribute(string, interface{})      {}
func (noopSpan) AddEvent(string, map[string]interface{}) {}
func (noopSpan) RecordError(error)                     {}

var (
	_ Telemetry = NoOp{}
	_ Span      = noopSpan{}
)
