package cascade

import "github.com/cascadefn/platform/tier"

// SkipPolicy decides, for one tier, whether it should be skipped before
// the Tier Executor is ever invoked. It is pure: no I/O, no state beyond
// the Definition and input it is handed.
type SkipPolicy struct{}

// Evaluate implements §4.4 in order: absent tier, static skip list,
// then skip conditions in declared order. The first matching rule wins.
func (SkipPolicy) Evaluate(def *Definition, t tier.Tier, input any) (skip bool, reason string) {
	if _, defined := def.Tiers[t]; !defined {
		return true, "absent"
	}

	if def.Options.SkipTiers[t] {
		return true, "listed"
	}

	for _, cond := range def.Options.SkipConditions {
		if cond.Tier != t {
			continue
		}
		if cond.Predicate(input) {
			return true, cond.Reason
		}
	}

	return false, ""
}
