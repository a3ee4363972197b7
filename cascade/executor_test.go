package cascade

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cascadefn/platform/tier"
	"github.com/stretchr/testify/assert"
)

func TestExecutor_RunTier_RetriesUpToBudget(t *testing.T) {
	var calls int32
	h := tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return nil, tier.NewHandlerError("not yet")
		}
		return "done", nil
	})

	e := NewExecutor()
	attempt := e.RunTier(context.Background(), h, "x", &tier.Context{}, 5, time.Second)

	assert.Equal(t, StatusCompleted, attempt.Status)
	assert.Equal(t, 2, attempt.Retries) // two retries before the third attempt succeeded
	assert.Equal(t, int32(3), calls)
}

func TestExecutor_RunTier_ExhaustsBudget(t *testing.T) {
	h := tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
		return nil, tier.NewHandlerError("always fails")
	})

	e := NewExecutor()
	attempt := e.RunTier(context.Background(), h, "x", &tier.Context{}, 2, time.Second)

	assert.Equal(t, StatusFailed, attempt.Status)
	assert.Equal(t, 2, attempt.Retries)
}

// P6: timeout never retries.
func TestExecutor_RunTier_TimeoutDoesNotRetry(t *testing.T) {
	var calls int32
	h := tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	e := NewExecutor()
	e.GracePeriod = 20 * time.Millisecond
	attempt := e.RunTier(context.Background(), h, "x", &tier.Context{}, 5, 30*time.Millisecond)

	assert.Equal(t, StatusTimeout, attempt.Status)
	assert.Equal(t, 0, attempt.Retries)
	assert.Equal(t, int32(1), calls)

	var timeoutErr *TierTimeoutError
	assert.ErrorAs(t, attempt.Error, &timeoutErr)
}

// P8: cancelling the outer context ends the active tier promptly and no
// further handler calls occur.
func TestExecutor_RunTier_OuterCancellationStopsExecution(t *testing.T) {
	var calls int32
	h := tier.CodeHandler(func(ctx context.Context, input any) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	e := NewExecutor()
	e.GracePeriod = 20 * time.Millisecond

	done := make(chan Attempt, 1)
	go func() {
		done <- e.RunTier(ctx, h, "x", &tier.Context{}, 0, 10*time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case attempt := <-done:
		assert.Contains(t, []Status{StatusTimeout, StatusFailed}, attempt.Status)
	case <-time.After(time.Second):
		t.Fatal("RunTier did not return promptly after cancellation")
	}
	assert.Equal(t, int32(1), calls)
}
