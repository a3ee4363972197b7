package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsOpenOnErrorRate(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.VolumeThreshold = 4
	cfg.ErrorThreshold = 0.5
	cb, err := NewCircuitBreaker(cfg)
	require.NoError(t, err)

	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		_ = cb.Execute(context.Background(), func() error { return boom })
	}

	assert.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.CanExecute())
}

func TestCircuitBreaker_HalfOpenRecoversOnSuccess(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.VolumeThreshold = 2
	cfg.ErrorThreshold = 0.5
	cfg.SleepWindow = time.Millisecond
	cfg.HalfOpenRequests = 2
	cfg.SuccessThreshold = 0.5
	cb, err := NewCircuitBreaker(cfg)
	require.NoError(t, err)

	boom := errors.New("boom")
	_ = cb.Execute(context.Background(), func() error { return boom })
	_ = cb.Execute(context.Background(), func() error { return boom })
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(2 * time.Millisecond)

	_ = cb.Execute(context.Background(), func() error { return nil })
	_ = cb.Execute(context.Background(), func() error { return nil })

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_RejectsWhileOpen(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.VolumeThreshold = 1
	cfg.ErrorThreshold = 0.1
	cfg.SleepWindow = time.Hour
	cb, err := NewCircuitBreaker(cfg)
	require.NoError(t, err)

	boom := errors.New("boom")
	_ = cb.Execute(context.Background(), func() error { return boom })
	require.Equal(t, StateOpen, cb.GetState())

	err = cb.Execute(context.Background(), func() error {
		t.Fatal("fn should not run while circuit is open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestRetry_SucceedsWithinBudget(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = time.Millisecond
	cfg.JitterEnabled = false

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAndWrapsLastError(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 2
	cfg.InitialDelay = time.Millisecond

	err := Retry(context.Background(), cfg, func() error { return errors.New("down") })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestRetry_StopsOnContextCancellation(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 5
	cfg.InitialDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, cfg, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}
