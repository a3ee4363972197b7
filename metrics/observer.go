package metrics

import (
	"github.com/cascadefn/platform/cascade"
)

// CascadeObserver adapts a Sink to cascade.Observer, recording one
// Invocation per tier attempt. It implements the engine's decoupling
// seam (see the cascade package's Observer interface) so the core
// executor never imports this package directly.
type CascadeObserver struct {
	Sink *Sink
}

// NewCascadeObserver builds a CascadeObserver over sink.
func NewCascadeObserver(sink *Sink) *CascadeObserver {
	return &CascadeObserver{Sink: sink}
}

func (o *CascadeObserver) OnAttempt(def *cascade.Definition, a cascade.Attempt) {
	errType := ""
	if a.Error != nil {
		errType = string(a.Status)
	}
	o.Sink.Record(Invocation{
		FunctionID: def.Name,
		Language:   a.Tier.String(),
		DurationMs: float64(a.DurationMs),
		Success:    a.Status == cascade.StatusCompleted,
		ErrorType:  errType,
		Timestamp:  a.Timestamp,
	})
}

func (o *CascadeObserver) OnSkip(def *cascade.Definition, s cascade.SkippedTier) {}

func (o *CascadeObserver) OnComplete(def *cascade.Definition, r *cascade.Result) {}

func (o *CascadeObserver) OnExhausted(def *cascade.Definition, err *cascade.ExhaustedError) {
	o.Sink.Record(Invocation{
		FunctionID: def.Name,
		DurationMs: float64(err.TotalDurationMs),
		Success:    false,
		ErrorType:  "exhausted",
	})
}

var _ cascade.Observer = (*CascadeObserver)(nil)
