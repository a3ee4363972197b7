package cascade

import (
	"context"
	"time"

	"github.com/cascadefn/platform/tier"
)

// Observer receives read-through notifications as an Engine executes a
// cascade. Implementations (metrics sinks, tracers) must not block or
// mutate anything the engine owns. A nil Observer is valid; Engine
// treats every call as optional.
type Observer interface {
	OnAttempt(def *Definition, a Attempt)
	OnSkip(def *Definition, s SkippedTier)
	OnComplete(def *Definition, r *Result)
	OnExhausted(def *Definition, err *ExhaustedError)
}

// Engine orchestrates tier ordering, escalation, history, and metrics
// for one or many cascade executions. It holds no per-execution state,
// so a single Engine is safe to share across concurrent calls to
// Execute.
type Engine struct {
	Executor *Executor
	Skip     SkipPolicy
	Observer Observer
}

// NewEngine builds an Engine with a default Executor and no observer.
func NewEngine() *Engine {
	return &Engine{Executor: NewExecutor()}
}

// Execute implements §4.5's algorithm. It never returns a nil error
// without a non-nil Result, and never returns a non-nil Result with a
// non-nil error.
func (e *Engine) Execute(ctx context.Context, def *Definition, input any) (*Result, error) {
	startTier, ok := def.effectiveStart()
	if !ok {
		return nil, ErrNoTiersEligible
	}

	history := make([]Attempt, 0, len(tier.Order))
	skipped := make([]SkippedTier, 0, len(tier.Order))
	metrics := Metrics{TierDurations: make(map[tier.Tier]int64)}

	var carryPrevTier *tier.Tier
	var carryPrevErr error
	var carryPrevResult any
	cascadeAttempt := 1

	overallStart := time.Now()
	started := false

	for _, t := range tier.Order {
		if t < startTier {
			continue
		}

		if skip, reason := e.Skip.Evaluate(def, t, input); skip {
			st := SkippedTier{Tier: t, Reason: reason}
			skipped = append(skipped, st)
			if e.Observer != nil {
				e.Observer.OnSkip(def, st)
			}
			continue
		}

		started = true
		handler := def.Tiers[t]
		timeout := def.Options.timeoutFor(t)
		budget := def.Options.retriesFor(t)

		tierCtx := &tier.Context{
			Tier:           t,
			PreviousTier:   carryPrevTier,
			PreviousError:  carryPrevErr,
			PreviousResult: carryPrevResult,
			CascadeAttempt: cascadeAttempt,
			Deadline:       time.Now().Add(timeout),
		}

		attempt := e.Executor.RunTier(ctx, handler, input, tierCtx, budget, timeout)
		history = append(history, attempt)
		metrics.TierDurations[t] += attempt.DurationMs
		metrics.TotalRetries += attempt.Retries

		if e.Observer != nil {
			e.Observer.OnAttempt(def, attempt)
		}

		if attempt.Status == StatusCompleted {
			metrics.TotalDurationMs = time.Since(overallStart).Milliseconds()
			result := &Result{
				Output:       attempt.Result,
				SuccessTier:  t,
				History:      history,
				SkippedTiers: skipped,
				Metrics:      metrics,
			}
			if e.Observer != nil {
				e.Observer.OnComplete(def, result)
			}
			return result, nil
		}

		tCopy := t
		carryPrevTier = &tCopy
		carryPrevErr = attempt.Error

		if def.Options.EnableFallback {
			if he, ok := attempt.Error.(*tier.HandlerError); ok && he.PartialResult != nil {
				carryPrevResult = he.PartialResult
			}
		}

		metrics.Escalations++
		cascadeAttempt++
	}

	metrics.TotalDurationMs = time.Since(overallStart).Milliseconds()

	if !started {
		return nil, ErrNoTiersEligible
	}

	exhausted := &ExhaustedError{
		Name:            def.Name,
		History:         history,
		SkippedTiers:    skipped,
		TotalDurationMs: metrics.TotalDurationMs,
	}
	if e.Observer != nil {
		e.Observer.OnExhausted(def, exhausted)
	}
	return nil, exhausted
}
