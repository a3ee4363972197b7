package cascade

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cascadefn/platform/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysFail(msg string) tier.InvokeFunc {
	return func(ctx context.Context, input any, tierCtx *tier.Context) (any, error) {
		return nil, tier.NewHandlerError(msg)
	}
}

func returnsPrefixed(prefix string) tier.InvokeFunc {
	return func(ctx context.Context, input any, tierCtx *tier.Context) (any, error) {
		return prefix + input.(string), nil
	}
}

// S1: code fails, generative succeeds.
func TestScenario_S1_EscalatesOnceToGenerative(t *testing.T) {
	def, err := NewDefinition("s1", "s1",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("boom")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(returnsPrefixed("g:"))),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "hello")
	require.NoError(t, err)

	assert.Equal(t, "g:hello", result.Output)
	assert.Equal(t, tier.Generative, result.SuccessTier)
	assert.Len(t, result.History, 2)
	assert.Equal(t, StatusFailed, result.History[0].Status)
	assert.Equal(t, StatusCompleted, result.History[1].Status)
	assert.Equal(t, 1, result.Metrics.Escalations)
}

// S2: code times out, generative succeeds.
func TestScenario_S2_TimeoutNeverRetries(t *testing.T) {
	def, err := NewDefinition("s2", "s2",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			select {
			case <-time.After(10 * time.Second):
				return "too slow", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(func(ctx context.Context, input any, tc *tier.Context) (any, error) {
			return "ok", nil
		})),
		WithTierTimeout(tier.Code, 100*time.Millisecond),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "x")
	require.NoError(t, err)

	assert.Equal(t, tier.Generative, result.SuccessTier)
	assert.Equal(t, StatusTimeout, result.History[0].Status)
	assert.Equal(t, 0, result.History[0].Retries)
}

// S3: code and generative fail (with code retrying twice locally), agentic succeeds.
func TestScenario_S3_LocalRetryThenEscalate(t *testing.T) {
	def, err := NewDefinition("s3", "s3",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(alwaysFail("fail"))),
		WithHandler(tier.Agentic, tier.AgenticHandler(returnsPrefixed("a:"), nil)),
		WithTierRetries(tier.Code, 2),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "p")
	require.NoError(t, err)

	require.Len(t, result.History, 3)
	assert.Equal(t, 2, result.History[0].Retries)
	assert.Equal(t, StatusFailed, result.History[0].Status)
	assert.Equal(t, StatusFailed, result.History[1].Status)
	assert.Equal(t, tier.Agentic, result.SuccessTier)
	assert.Equal(t, 2, result.Metrics.TotalRetries)
	assert.Equal(t, 2, result.Metrics.Escalations)
}

// S4: all three tiers fail, cascade is exhausted.
func TestScenario_S4_AllTiersFailExhausts(t *testing.T) {
	def, err := NewDefinition("s4", "s4",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(alwaysFail("fail"))),
		WithHandler(tier.Agentic, tier.AgenticHandler(alwaysFail("fail"), nil)),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "p")
	assert.Nil(t, result)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.History, 3)
	assert.Equal(t, []tier.Tier{tier.Code, tier.Generative, tier.Agentic},
		[]tier.Tier{exhausted.History[0].Tier, exhausted.History[1].Tier, exhausted.History[2].Tier})
}

// S5: generative is dynamically skipped, code fails, agentic succeeds.
func TestScenario_S5_SkipCondition(t *testing.T) {
	def, err := NewDefinition("s5", "s5",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(returnsPrefixed("g:"))),
		WithHandler(tier.Agentic, tier.AgenticHandler(func(ctx context.Context, input any, tc *tier.Context) (any, error) {
			data := input.(map[string]any)["data"].(string)
			return "a:" + data, nil
		}, nil)),
		WithSkipCondition(SkipCondition{
			Tier: tier.Generative,
			Predicate: func(input any) bool {
				m := input.(map[string]any)
				return !m["useAI"].(bool)
			},
			Reason: "AI disabled",
		}),
	)
	require.NoError(t, err)

	engine := NewEngine()
	input := map[string]any{"useAI": false, "data": "q"}
	result, err := engine.Execute(context.Background(), def, input)
	require.NoError(t, err)

	assert.Equal(t, "a:q", result.Output)
	require.Len(t, result.SkippedTiers, 1)
	assert.Equal(t, tier.Generative, result.SkippedTiers[0].Tier)
	assert.Equal(t, "AI disabled", result.SkippedTiers[0].Reason)
	require.Len(t, result.History, 2)
	assert.Equal(t, tier.Code, result.History[0].Tier)
	assert.Equal(t, tier.Agentic, result.History[1].Tier)
}

// S6: fallback forwards a partial result from a failing tier.
func TestScenario_S6_FallbackForwardsPartialResult(t *testing.T) {
	def, err := NewDefinition("s6", "s6",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail").WithPartialResult("P")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(func(ctx context.Context, input any, tc *tier.Context) (any, error) {
			return fmt.Sprintf("g+%v", tc.PreviousResult), nil
		})),
		WithFallback(true),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "h")
	require.NoError(t, err)
	assert.Equal(t, "g+P", result.Output)
}

// P7: fallback disabled means PreviousResult is always nil.
func TestProperty_P7_FallbackGateOff(t *testing.T) {
	var observedPrevResult any = "unset"
	def, err := NewDefinition("p7", "p7",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail").WithPartialResult("P")
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(func(ctx context.Context, input any, tc *tier.Context) (any, error) {
			observedPrevResult = tc.PreviousResult
			return "ok", nil
		})),
	)
	require.NoError(t, err)

	engine := NewEngine()
	_, err = engine.Execute(context.Background(), def, "h")
	require.NoError(t, err)
	assert.Nil(t, observedPrevResult)
}

// P1/P5: history tiers are strictly increasing and disjoint from skipped tiers.
func TestProperty_P1_P5_HistoryOrderAndSkipDisjointness(t *testing.T) {
	def, err := NewDefinition("p1", "p1",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return nil, tier.NewHandlerError("fail")
		})),
		WithHandler(tier.Human, tier.HumanHandler(returnsPrefixed("h:"), "")),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "z")
	require.NoError(t, err)

	for i := 0; i+1 < len(result.History); i++ {
		assert.Less(t, result.History[i].Tier, result.History[i+1].Tier)
	}

	historyTiers := map[tier.Tier]bool{}
	for _, a := range result.History {
		historyTiers[a.Tier] = true
	}
	for _, s := range result.SkippedTiers {
		assert.False(t, historyTiers[s.Tier])
	}
}

// P4: success always terminates the cascade.
func TestProperty_P4_SuccessTerminates(t *testing.T) {
	def, err := NewDefinition("p4", "p4",
		WithHandler(tier.Code, tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
			return "done", nil
		})),
		WithHandler(tier.Generative, tier.GenerativeHandler(returnsPrefixed("g:"))),
	)
	require.NoError(t, err)

	engine := NewEngine()
	result, err := engine.Execute(context.Background(), def, "z")
	require.NoError(t, err)

	last := result.History[len(result.History)-1]
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, result.SuccessTier, last.Tier)
}
