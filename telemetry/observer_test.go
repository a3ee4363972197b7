package telemetry

import (
	"context"
	"testing"

	"github.com/cascadefn/platform/cascade"
	"github.com/cascadefn/platform/tier"
	"github.com/stretchr/testify/assert"
)

type fakeSpan struct {
	attrs  map[string]interface{}
	events []string
	errs   []error
	ended  bool
}

func (s *fakeSpan) End()                                           { s.ended = true }
func (s *fakeSpan) SetAttribute(key string, value interface{})     { s.attrs[key] = value }
func (s *fakeSpan) AddEvent(name string, _ map[string]interface{}) { s.events = append(s.events, name) }
func (s *fakeSpan) RecordError(err error)                          { s.errs = append(s.errs, err) }

type fakeTelemetry struct {
	spans   []*fakeSpan
	metrics []string
}

func (f *fakeTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	s := &fakeSpan{attrs: make(map[string]interface{})}
	f.spans = append(f.spans, s)
	return ctx, s
}

func (f *fakeTelemetry) RecordMetric(name string, _ float64, _ map[string]string) {
	f.metrics = append(f.metrics, name)
}

func TestCascadeObserver_OnAttempt_EmitsSpanAndMetric(t *testing.T) {
	fake := &fakeTelemetry{}
	obs := NewCascadeObserver(fake)

	def := &cascade.Definition{Name: "refund-approval"}
	obs.OnAttempt(def, cascade.Attempt{
		Tier:       tier.Code,
		Status:     cascade.StatusFailed,
		DurationMs: 12,
		Error:      assertableErr{},
	})

	requireSpanCount(t, fake.spans, 1)
	span := fake.spans[0]
	assert.True(t, span.ended)
	assert.Equal(t, "refund-approval", span.attrs["cascade.name"])
	assert.Equal(t, "code", span.attrs["cascade.tier"])
	assert.Len(t, span.errs, 1)
	assert.Contains(t, span.events, "tier_attempt_completed")
	assert.Contains(t, fake.metrics, "cascade.tier_attempt.duration_ms")
}

func TestCascadeObserver_OnSkip_EmitsSpan(t *testing.T) {
	fake := &fakeTelemetry{}
	obs := NewCascadeObserver(fake)

	def := &cascade.Definition{Name: "refund-approval"}
	obs.OnSkip(def, cascade.SkippedTier{Tier: tier.Human, Reason: "listed"})

	requireSpanCount(t, fake.spans, 1)
	assert.Contains(t, fake.spans[0].events, "tier_skipped")
}

func TestCascadeObserver_OnExhausted_RecordsSpanError(t *testing.T) {
	fake := &fakeTelemetry{}
	obs := NewCascadeObserver(fake)

	def := &cascade.Definition{Name: "refund-approval"}
	obs.OnExhausted(def, &cascade.ExhaustedError{Name: "refund-approval"})

	requireSpanCount(t, fake.spans, 1)
	assert.Len(t, fake.spans[0].errs, 1)
}

type assertableErr struct{}

func (assertableErr) Error() string { return "boom" }

func requireSpanCount(t *testing.T, spans []*fakeSpan, n int) {
	t.Helper()
	if len(spans) != n {
		t.Fatalf("expected %d spans, got %d", n, len(spans))
	}
}
