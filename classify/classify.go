// Package classify implements a read-through cache mapping a function's
// name, description, and input schema to the tier it should run in,
// generalized from the teacher's orchestration.RoutingCache (prompt ->
// RoutingPlan) to (name, description, schema) -> Classification.
package classify

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cascadefn/platform/tier"
)

// Classification is the cached result of classifying a function
// signature into the tier best suited to run it.
type Classification struct {
	Tier       tier.Tier `json:"tier"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Provider   string    `json:"provider"`
}

// Producer is the external classifier consumed by the cache — an AI
// call in production, a deterministic stub in tests.
type Producer interface {
	Classify(ctx context.Context, name, description, schemaDigest string) (Classification, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, name, description, schemaDigest string) (Classification, error)

func (f ProducerFunc) Classify(ctx context.Context, name, description, schemaDigest string) (Classification, error) {
	return f(ctx, name, description, schemaDigest)
}

// Key computes the cache key for a function signature: a URL-safe
// composition of the three inputs, where the schema contributes its
// canonical digest so a changed schema invalidates the entry.
func Key(name, description, schemaDigest string) string {
	h := sha256.New()
	h.Write([]byte(name))
	nameSum := h.Sum(nil)

	h = sha256.New()
	h.Write([]byte(normalize(description)))
	descSum := h.Sum(nil)

	combined := make([]byte, 0, len(nameSum)+len(descSum)+len(schemaDigest))
	combined = append(combined, nameSum...)
	combined = append(combined, descSum...)
	combined = append(combined, []byte(schemaDigest)...)

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(combined)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FallbackHeuristic produces a deterministic Classification when the
// producer is unavailable: a keyword/complexity score over the
// description and schema digest length, never the cached result of a
// real call, per the cache's fallback rule.
func FallbackHeuristic(name, description, schemaDigest string) Classification {
	t := heuristicTier(description, schemaDigest)
	return Classification{
		Tier:       t,
		Confidence: 0.5,
		Reasoning:  fmt.Sprintf("fallback heuristic for %q: no producer available", name),
		Provider:   "fallback",
	}
}

func heuristicTier(description, schemaDigest string) tier.Tier {
	lower := strings.ToLower(description)

	switch {
	case containsAny(lower, "approve", "review", "sign-off", "confirm", "manual"):
		return tier.Human
	case containsAny(lower, "plan", "tool", "search", "multi-step", "agent", "reason"):
		return tier.Agentic
	case containsAny(lower, "generate", "summarize", "draft", "write", "explain"):
		return tier.Generative
	case len(schemaDigest) > 64:
		// a large schema digest correlates with a complex input shape,
		// pushing the default guess toward generative rather than code
		return tier.Generative
	default:
		return tier.Code
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
