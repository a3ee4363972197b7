// Package resilience wraps external calls the cascade itself doesn't
// own — in this module, the classification cache's producer call —
// with a circuit breaker and retry,
// ported from the teacher's resilience.CircuitBreaker/Retry. This is
// deliberately separate from the cascade executor's own per-tier retry
// budget (cascade.Executor.RunTier): that budget is an invariant the
// cascade tracks in its own history, while this package protects
// infrastructure calls that sit outside any tier handler's accounting.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cascadefn/platform/logger"
)

// ErrCircuitOpen is returned by Execute when the breaker is open and
// rejecting calls outright.
var ErrCircuitOpen = errors.New("resilience: circuit breaker open")

// State is the circuit breaker's state machine position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrorClassifier decides whether an error should count toward the
// breaker's failure threshold. Errors a caller can't do anything about
// (e.g. deliberate cancellation) shouldn't trip the breaker.
type ErrorClassifier func(error) bool

// DefaultErrorClassifier counts every non-nil, non-context error.
func DefaultErrorClassifier(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	Name             string
	ErrorThreshold   float64       // error rate (0..1) that trips the breaker
	VolumeThreshold  int           // minimum calls in the window before evaluation
	WindowSize       time.Duration // sliding window over which the error rate is measured
	SleepWindow      time.Duration // how long to stay open before trying half-open
	HalfOpenRequests int           // trial calls allowed while half-open
	SuccessThreshold float64       // success rate among trial calls needed to close
	ErrorClassifier  ErrorClassifier
	Logger           logger.Logger
}

// DefaultCircuitBreakerConfig returns sensible production defaults.
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             name,
		ErrorThreshold:   0.5,
		VolumeThreshold:  10,
		WindowSize:       60 * time.Second,
		SleepWindow:      30 * time.Second,
		HalfOpenRequests: 5,
		SuccessThreshold: 0.6,
		ErrorClassifier:  DefaultErrorClassifier,
		Logger:           logger.NoOp{},
	}
}

func (c *CircuitBreakerConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("resilience: config.Name required")
	}
	if c.ErrorThreshold <= 0 || c.ErrorThreshold > 1 {
		return fmt.Errorf("resilience: ErrorThreshold must be in (0,1]")
	}
	if c.VolumeThreshold <= 0 {
		return fmt.Errorf("resilience: VolumeThreshold must be positive")
	}
	return nil
}

// CircuitBreaker trips open when a window of calls crosses an error
// rate threshold, rejects calls while open, then allows a trial batch
// of half-open calls before deciding whether to close or reopen.
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu             sync.Mutex
	state          State
	stateChangedAt time.Time
	window         *slidingWindow

	halfOpenAllowed int
	halfOpenSuccess int
	halfOpenFailure int
}

// NewCircuitBreaker validates config (defaulting when nil) and returns
// a breaker starting in the closed state.
func NewCircuitBreaker(config *CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config == nil {
		config = DefaultCircuitBreakerConfig("default")
	}
	if config.ErrorClassifier == nil {
		config.ErrorClassifier = DefaultErrorClassifier
	}
	if config.Logger == nil {
		config.Logger = logger.NoOp{}
	}
	if config.WindowSize == 0 {
		config.WindowSize = 60 * time.Second
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &CircuitBreaker{
		config:         config,
		state:          StateClosed,
		stateChangedAt: time.Now(),
		window:         newSlidingWindow(config.WindowSize, 10),
	}, nil
}

// Execute runs fn if the breaker permits the call, recording the
// outcome against the window/half-open trial.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.CanExecute() {
		return ErrCircuitOpen
	}

	err := fn()
	if cb.config.ErrorClassifier(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// CanExecute reports whether a call is currently permitted, advancing
// the open->half-open transition if the sleep window has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.stateChangedAt) >= cb.config.SleepWindow {
			cb.transitionLocked(StateHalfOpen)
			cb.halfOpenAllowed = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenAllowed < cb.config.HalfOpenRequests {
			cb.halfOpenAllowed++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess reports a successful call outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.recordSuccess()
	if cb.state == StateHalfOpen {
		cb.halfOpenSuccess++
		cb.evaluateHalfOpenLocked()
	}
}

// RecordFailure reports a failed call outcome, possibly tripping the
// breaker open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.recordFailure()
	if cb.state == StateHalfOpen {
		cb.halfOpenFailure++
		cb.evaluateHalfOpenLocked()
		return
	}

	total := cb.window.total()
	if total >= uint64(cb.config.VolumeThreshold) && cb.window.errorRate() >= cb.config.ErrorThreshold {
		cb.transitionLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) evaluateHalfOpenLocked() {
	tried := cb.halfOpenSuccess + cb.halfOpenFailure
	if tried < cb.config.HalfOpenRequests {
		return
	}
	successRate := float64(cb.halfOpenSuccess) / float64(tried)
	if successRate >= cb.config.SuccessThreshold {
		cb.transitionLocked(StateClosed)
		cb.window.reset()
	} else {
		cb.transitionLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.stateChangedAt = time.Now()
	cb.halfOpenAllowed, cb.halfOpenSuccess, cb.halfOpenFailure = 0, 0, 0
	cb.config.Logger.Info("circuit breaker state change",
		logger.F("name", cb.config.Name), logger.F("from", from.String()), logger.F("to", to.String()))
}

// GetState returns the breaker's current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to closed and clears its window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
	cb.window.reset()
}

// slidingWindow tracks success/failure counts over a fixed duration
// using a single decaying bucket pair, trimmed from the teacher's
// multi-bucket SlidingWindow to the precision this package needs.
type slidingWindow struct {
	mu          sync.Mutex
	windowSize  time.Duration
	windowStart time.Time
	success     uint64
	failure     uint64
}

func newSlidingWindow(windowSize time.Duration, _ int) *slidingWindow {
	return &slidingWindow{windowSize: windowSize, windowStart: time.Now()}
}

func (w *slidingWindow) rolloverLocked() {
	if time.Since(w.windowStart) >= w.windowSize {
		w.success, w.failure = 0, 0
		w.windowStart = time.Now()
	}
}

func (w *slidingWindow) recordSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rolloverLocked()
	w.success++
}

func (w *slidingWindow) recordFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rolloverLocked()
	w.failure++
}

func (w *slidingWindow) total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.success + w.failure
}

func (w *slidingWindow) errorRate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := w.success + w.failure
	if total == 0 {
		return 0
	}
	return float64(w.failure) / float64(total)
}

func (w *slidingWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.success, w.failure = 0, 0
	w.windowStart = time.Now()
}
