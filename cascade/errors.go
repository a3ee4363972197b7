package cascade

import (
	"errors"
	"fmt"
	"time"

	"github.com/cascadefn/platform/tier"
)

// ErrInputInvalid is the sentinel for input that fails a cascade's
// declared schema, to be surfaced as a 4xx-class error. Nothing in this
// package returns it: Definition carries no input schema and
// Engine.Execute does not validate its input.
var ErrInputInvalid = errors.New("input invalid")

// ErrNoTiersEligible is returned when every tier was skipped and none
// ever ran — a degenerate case distinct from CascadeExhausted, which
// requires at least one attempted tier.
var ErrNoTiersEligible = errors.New("no tiers eligible to run")

// TierTimeoutError reports that a tier's handler did not return within
// its configured timeout. Timeouts never retry at the Tier Executor
// layer (P6) and are always fatal for that tier.
type TierTimeoutError struct {
	Tier    tier.Tier
	Timeout time.Duration
}

func (e *TierTimeoutError) Error() string {
	return fmt.Sprintf("tier %s: timed out after %s", e.Tier, tier.FormatDuration(e.Timeout))
}

// TierSkipped is informational. The Engine never returns it and never
// places it in history: skips are recorded only as SkippedTier entries
// in Result.SkippedTiers (or ExhaustedError.SkippedTiers).
type TierSkipped struct {
	Tier   tier.Tier
	Reason string
}

func (e *TierSkipped) Error() string {
	return fmt.Sprintf("tier %s: skipped (%s)", e.Tier, e.Reason)
}

// InfrastructureError wraps a failure in an external dependency
// (registry, classifier, delivery fabric) that is unavailable. When it
// blocks cascade startup it is surfaced directly; when it happens
// inside a running tier it is treated as a HandlerError for that tier.
type InfrastructureError struct {
	Dependency string
	Err        error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure error (%s): %v", e.Dependency, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// ExhaustedError is the single terminal failure of a cascade execution:
// every eligible tier was attempted without success. It is always
// retryable at a higher layer and carries the full history.
type ExhaustedError struct {
	Name            string
	History         []Attempt
	SkippedTiers    []SkippedTier
	TotalDurationMs int64
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("cascade %q exhausted after %d tier(s) in %dms", e.Name, len(e.History), e.TotalDurationMs)
}

// AttemptErrorEnvelope is the wire shape of one history entry's error,
// per §6: callers must not depend on anything beyond Code, which is
// opaque.
type AttemptErrorEnvelope struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// HistoryEnvelope is the wire shape of one ExhaustedError.History entry.
type HistoryEnvelope struct {
	Tier       string                `json:"tier"`
	Status     Status                `json:"status"`
	DurationMs int64                 `json:"durationMs"`
	Error      *AttemptErrorEnvelope `json:"error,omitempty"`
	Retries    int                   `json:"retries"`
}

// SkippedTierEnvelope is the wire shape of one ExhaustedError.SkippedTiers entry.
type SkippedTierEnvelope struct {
	Tier   string `json:"tier"`
	Reason string `json:"reason"`
}

// Envelope is the full wire format surfaced to callers on
// CascadeExhausted, per §6.
type Envelope struct {
	Kind            string                `json:"kind"`
	Message         string                `json:"message"`
	TotalDurationMs int64                 `json:"totalDurationMs"`
	History         []HistoryEnvelope     `json:"history"`
	SkippedTiers    []SkippedTierEnvelope `json:"skippedTiers"`
}

// ToEnvelope renders an ExhaustedError into its caller-visible wire
// shape.
func (e *ExhaustedError) ToEnvelope() Envelope {
	env := Envelope{
		Kind:            "CascadeExhausted",
		Message:         e.Error(),
		TotalDurationMs: e.TotalDurationMs,
	}

	for _, a := range e.History {
		h := HistoryEnvelope{
			Tier:       a.Tier.String(),
			Status:     a.Status,
			DurationMs: a.DurationMs,
			Retries:    a.Retries,
		}
		if a.Error != nil {
			h.Error = errorEnvelope(a.Error)
		}
		env.History = append(env.History, h)
	}

	for _, s := range e.SkippedTiers {
		env.SkippedTiers = append(env.SkippedTiers, SkippedTierEnvelope{
			Tier:   s.Tier.String(),
			Reason: s.Reason,
		})
	}

	return env
}

func errorEnvelope(err error) *AttemptErrorEnvelope {
	env := &AttemptErrorEnvelope{Message: err.Error()}

	var timeoutErr *TierTimeoutError
	var handlerErr *tier.HandlerError
	switch {
	case errors.As(err, &timeoutErr):
		env.Code = "TIER_TIMEOUT"
	case errors.As(err, &handlerErr):
		env.Code = "HANDLER_ERROR"
		retryable := handlerErr.Retryable
		env.Retryable = &retryable
	}

	return env
}
