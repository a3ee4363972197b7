package cascade

import (
	"time"

	"github.com/cascadefn/platform/tier"
)

// Status is the terminal disposition of one tier attempt.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
	StatusSkipped   Status = "skipped"
)

// Attempt is one history entry: a sealed record of running (or
// skipping) a single tier. Skipped tiers never produce an Attempt —
// they are recorded in Result.SkippedTiers instead (invariant 4).
type Attempt struct {
	Tier      tier.Tier
	Attempt   int // 1-based local retry count at which the attempt settled
	Status    Status
	Timestamp time.Time
	DurationMs int64
	Error     error
	Result    any
	Retries   int // local retries spent within this tier
}

// SkippedTier records a tier the Skip Policy excluded before it ran.
type SkippedTier struct {
	Tier   tier.Tier
	Reason string
}

// Metrics summarizes one cascade execution.
type Metrics struct {
	TotalDurationMs int64
	Escalations     int
	TotalRetries    int
	TierDurations   map[tier.Tier]int64
}

// Result is the terminal, successful output of one cascade execution.
type Result struct {
	Output       any
	SuccessTier  tier.Tier
	History      []Attempt
	SkippedTiers []SkippedTier
	Metrics      Metrics
}
