package telemetry

import (
	"context"

	"github.com/cascadefn/platform/cascade"
)

// CascadeObserver adapts a Telemetry provider to cascade.Observer,
// emitting one span per tier attempt/skip and recording the exhausted
// case as a span error, the way classify.Cache traces its own calls.
// The engine itself stays free of this import (see the cascade
// package's Observer seam) — this is the wiring point that satisfies
// it.
type CascadeObserver struct {
	Telemetry Telemetry
}

// NewCascadeObserver builds a CascadeObserver over t.
func NewCascadeObserver(t Telemetry) *CascadeObserver {
	return &CascadeObserver{Telemetry: t}
}

func (o *CascadeObserver) OnAttempt(def *cascade.Definition, a cascade.Attempt) {
	_, span := o.Telemetry.StartSpan(context.Background(), "cascade.tier_attempt")
	defer span.End()

	span.SetAttribute("cascade.name", def.Name)
	span.SetAttribute("cascade.tier", a.Tier.String())
	span.SetAttribute("cascade.status", string(a.Status))
	span.SetAttribute("cascade.retries", a.Retries)
	if a.Error != nil {
		span.RecordError(a.Error)
	}
	span.AddEvent("tier_attempt_completed", map[string]interface{}{
		"duration_ms": a.DurationMs,
	})

	o.Telemetry.RecordMetric("cascade.tier_attempt.duration_ms", float64(a.DurationMs), map[string]string{
		"cascade": def.Name,
		"tier":    a.Tier.String(),
		"status":  string(a.Status),
	})
}

func (o *CascadeObserver) OnSkip(def *cascade.Definition, s cascade.SkippedTier) {
	_, span := o.Telemetry.StartSpan(context.Background(), "cascade.tier_skipped")
	defer span.End()

	span.SetAttribute("cascade.name", def.Name)
	span.SetAttribute("cascade.tier", s.Tier.String())
	span.AddEvent("tier_skipped", map[string]interface{}{"reason": s.Reason})
}

func (o *CascadeObserver) OnComplete(def *cascade.Definition, r *cascade.Result) {
	o.Telemetry.RecordMetric("cascade.completed", 1, map[string]string{
		"cascade": def.Name,
		"tier":    r.SuccessTier.String(),
	})
}

func (o *CascadeObserver) OnExhausted(def *cascade.Definition, err *cascade.ExhaustedError) {
	_, span := o.Telemetry.StartSpan(context.Background(), "cascade.exhausted")
	defer span.End()

	span.SetAttribute("cascade.name", def.Name)
	span.RecordError(err)
}

var _ cascade.Observer = (*CascadeObserver)(nil)
