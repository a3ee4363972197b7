// Package cascade implements the Cascade Execution Engine: a typed,
// tier-ordered executor that attempts each tier in sequence with
// per-tier timeouts and retries, propagates intermediate state to the
// next tier, and surfaces a structured exhausted-cascade error when
// every tier fails.
package cascade

import (
	"fmt"
	"time"

	"github.com/cascadefn/platform/tier"
)

// SkipCondition is one entry in Options.SkipConditions, evaluated in
// declared order against the tier it names.
type SkipCondition struct {
	Tier      tier.Tier
	Predicate func(input any) bool
	Reason    string
}

// Options configures a Definition's escalation behavior. Every field has
// a documented default so a zero-value Options is usable.
type Options struct {
	StartTier      *tier.Tier
	TierTimeouts   map[tier.Tier]time.Duration
	TierRetries    map[tier.Tier]int
	SkipTiers      map[tier.Tier]bool
	SkipConditions []SkipCondition
	EnableFallback bool

	// TerminateOn is an explicit, currently-unused hook reserved for the
	// open question in DESIGN NOTES §9 ("whether non-retryable errors
	// should bypass escalation"). Observed source behavior escalates
	// regardless of retryability, and this engine preserves that; a
	// caller-supplied TerminateOn would let a future version short-
	// circuit escalation for a given error, but nothing calls it yet.
	TerminateOn func(err error) bool
}

func (o Options) timeoutFor(t tier.Tier) time.Duration {
	if o.TierTimeouts != nil {
		if d, ok := o.TierTimeouts[t]; ok {
			return d
		}
	}
	return tier.DefaultTimeouts[t]
}

func (o Options) retriesFor(t tier.Tier) int {
	if o.TierRetries != nil {
		if n, ok := o.TierRetries[t]; ok {
			return n
		}
	}
	return 0
}

// Definition is the immutable, versioned description of one cascade:
// the tiers it defines handlers for, and the options governing
// escalation. It is created at deploy time and never mutated.
type Definition struct {
	ID      string
	Name    string
	Version tier.Version
	Tiers   map[tier.Tier]tier.Handler
	Options Options
}

// DefinitionOption configures a Definition at construction time.
type DefinitionOption func(*Definition)

// WithHandler registers the handler for a tier. Tiers without a
// registered handler are always skipped (absent).
func WithHandler(t tier.Tier, h tier.Handler) DefinitionOption {
	return func(d *Definition) { d.Tiers[t] = h }
}

// WithStartTier overrides the default start tier (the lowest defined
// tier).
func WithStartTier(t tier.Tier) DefinitionOption {
	return func(d *Definition) { d.Options.StartTier = &t }
}

// WithTierTimeout overrides the default timeout for one tier.
func WithTierTimeout(t tier.Tier, d time.Duration) DefinitionOption {
	return func(def *Definition) { def.Options.TierTimeouts[t] = d }
}

// WithTierRetries sets the local retry budget for one tier.
func WithTierRetries(t tier.Tier, n int) DefinitionOption {
	return func(def *Definition) { def.Options.TierRetries[t] = n }
}

// WithSkipTiers adds tiers to the static skip set.
func WithSkipTiers(tiers ...tier.Tier) DefinitionOption {
	return func(d *Definition) {
		for _, t := range tiers {
			d.Options.SkipTiers[t] = true
		}
	}
}

// WithSkipCondition appends a dynamic skip predicate, evaluated in the
// order conditions are added.
func WithSkipCondition(c SkipCondition) DefinitionOption {
	return func(d *Definition) {
		d.Options.SkipConditions = append(d.Options.SkipConditions, c)
	}
}

// WithFallback enables forwarding a failing tier's partial result to the
// next tier's Context.PreviousResult.
func WithFallback(enabled bool) DefinitionOption {
	return func(d *Definition) { d.Options.EnableFallback = enabled }
}

// WithVersion sets the definition's semantic version.
func WithVersion(v tier.Version) DefinitionOption {
	return func(d *Definition) { d.Version = v }
}

// NewDefinition builds a Definition, applying opts in order. It fails if
// no tier handler is registered, since an empty cascade can never
// produce a result.
func NewDefinition(id, name string, opts ...DefinitionOption) (*Definition, error) {
	d := &Definition{
		ID:   id,
		Name: name,
		Tiers: make(map[tier.Tier]tier.Handler),
		Options: Options{
			TierTimeouts: make(map[tier.Tier]time.Duration),
			TierRetries:  make(map[tier.Tier]int),
			SkipTiers:    make(map[tier.Tier]bool),
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	if len(d.Tiers) == 0 {
		return nil, fmt.Errorf("cascade %q: at least one tier handler is required", id)
	}

	return d, nil
}

// lowestDefined returns the lowest tier (in tier.Order) that has a
// registered handler.
func (d *Definition) lowestDefined() (tier.Tier, bool) {
	for _, t := range tier.Order {
		if _, ok := d.Tiers[t]; ok {
			return t, true
		}
	}
	return 0, false
}

// effectiveStart resolves options.startTier against the lowest tier
// actually defined, per §4.5 step 2: "starting at max(startTier,
// lowestDefined)".
func (d *Definition) effectiveStart() (tier.Tier, bool) {
	lowest, ok := d.lowestDefined()
	if !ok {
		return 0, false
	}
	if d.Options.StartTier == nil {
		return lowest, true
	}
	if *d.Options.StartTier > lowest {
		return *d.Options.StartTier, true
	}
	return lowest, true
}
