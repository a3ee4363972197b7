package cascade

import (
	"context"
	"time"

	"github.com/cascadefn/platform/tier"
)

// Executor runs exactly one tier's handler under its timeout and
// local-retry budget. It owns no cascade-level state; it is safe to
// share across concurrent cascade executions.
type Executor struct {
	// GracePeriod bounds how long a cancelled handler goroutine is given
	// to exit before its result is discarded. Per DESIGN NOTES §9, the
	// spec leaves this implementation-chosen; callers cannot depend on a
	// specific value.
	GracePeriod time.Duration
}

// NewExecutor builds an Executor with the default grace period.
func NewExecutor() *Executor {
	return &Executor{GracePeriod: 200 * time.Millisecond}
}

// handlerOutcome is how the invoking goroutine reports back to RunTier.
type handlerOutcome struct {
	result any
	err    error
}

// RunTier implements §4.3's attempt loop: call the handler under
// timeout, retry handler errors up to budget (a *tier.HandlerError with
// Retryable false is never retried), and return immediately (no retry)
// on timeout. The initial attempt is not counted in the
// returned Attempt.Retries; a budget of N means up to N+1 total
// attempts.
func (e *Executor) RunTier(
	ctx context.Context,
	h tier.Handler,
	input any,
	tierCtx *tier.Context,
	budget int,
	timeout time.Duration,
) Attempt {
	start := time.Now()
	totalRetries := 0

	for attemptNum := 0; ; attemptNum++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)

		done := make(chan handlerOutcome, 1)
		go func() {
			result, err := h.Invoke(attemptCtx, input, tierCtx)
			done <- handlerOutcome{result: result, err: err}
		}()

		select {
		case outcome := <-done:
			cancel()
			if outcome.err == nil {
				return Attempt{
					Tier:       h.Kind,
					Attempt:    attemptNum + 1,
					Status:     StatusCompleted,
					Timestamp:  start,
					DurationMs: time.Since(start).Milliseconds(),
					Result:     outcome.result,
					Retries:    totalRetries,
				}
			}

			retryable := true
			if he, ok := outcome.err.(*tier.HandlerError); ok {
				retryable = he.Retryable
			}
			if retryable && attemptNum < budget {
				totalRetries++
				continue
			}

			return Attempt{
				Tier:       h.Kind,
				Attempt:    attemptNum + 1,
				Status:     StatusFailed,
				Timestamp:  start,
				DurationMs: time.Since(start).Milliseconds(),
				Error:      outcome.err,
				Retries:    totalRetries,
			}

		case <-attemptCtx.Done():
			cancel()
			e.awaitGrace(done)
			return Attempt{
				Tier:       h.Kind,
				Attempt:    attemptNum + 1,
				Status:     StatusTimeout,
				Timestamp:  start,
				DurationMs: time.Since(start).Milliseconds(),
				Error:      &TierTimeoutError{Tier: h.Kind, Timeout: timeout},
				Retries:    totalRetries,
			}
		}
	}
}

// awaitGrace gives a cancelled handler goroutine a bounded window to
// exit cleanly. Any result that arrives after cancellation is
// discarded regardless.
func (e *Executor) awaitGrace(done <-chan handlerOutcome) {
	grace := e.GracePeriod
	if grace <= 0 {
		return
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
}
