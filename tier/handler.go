package tier

import (
	"context"
	"fmt"
	"time"
)

// Context is the immutable per-tier record passed to a handler. It
// carries everything the handler needs to know about how it got here:
// which tier ran before it, what that tier produced or failed with, and
// the absolute deadline it must respect.
type Context struct {
	Tier           Tier
	PreviousTier   *Tier
	PreviousError  error
	PreviousResult any // only populated when the cascade's enableFallback is set
	CascadeAttempt int
	Deadline       time.Time
}

// HandlerError is how a handler signals failure. NewHandlerError builds
// a retryable one (the common case) and NewFatalHandlerError a
// non-retryable one; a HandlerError written as a struct literal has
// Retryable false unless it is set.
// PartialResult is only ever read by the engine when the cascade's
// enableFallback option is set.
type HandlerError struct {
	Message       string
	Retryable     bool
	PartialResult any
}

func (e *HandlerError) Error() string {
	return e.Message
}

// NewHandlerError builds a retryable HandlerError, the common case.
func NewHandlerError(message string) *HandlerError {
	return &HandlerError{Message: message, Retryable: true}
}

// NewFatalHandlerError builds a non-retryable HandlerError. Per §4.5,
// non-retryable only suppresses local retries within the tier — the
// cascade still escalates past it.
func NewFatalHandlerError(message string) *HandlerError {
	return &HandlerError{Message: message, Retryable: false}
}

// WithPartialResult attaches a partial result for fallback forwarding.
func (e *HandlerError) WithPartialResult(v any) *HandlerError {
	e.PartialResult = v
	return e
}

// InvokeFunc is the one invocation signature every tier handler shares:
// invoke(input, context?) -> output. Handlers are not responsible for
// timing, retries, or context enrichment — the Tier Executor (C3) owns
// that. Handlers must propagate cancellation by observing ctx.Done() at
// any suspension point.
type InvokeFunc func(ctx context.Context, input any, tierCtx *Context) (any, error)

// Handler is a polymorphic callable over one capability, expressed as a
// closed set of variants distinguished by Kind rather than a class
// hierarchy (see DESIGN NOTES §9, "Discriminated handlers"). Tools and
// UI carry metadata only the agentic and human variants need.
type Handler struct {
	Kind   Tier
	Invoke InvokeFunc
	Tools  []string // agentic only
	UI     string    // human only
}

// CodeHandler builds a deterministic tier handler. Code handlers must
// be pure with respect to platform-provided IO; the function still
// receives ctx so it can propagate cancellation through any blocking
// call it makes.
func CodeHandler(fn func(ctx context.Context, input any) (any, error)) Handler {
	return Handler{
		Kind: Code,
		Invoke: func(ctx context.Context, input any, _ *Context) (any, error) {
			return fn(ctx, input)
		},
	}
}

// GenerativeHandler builds a single-model-call tier handler.
func GenerativeHandler(fn InvokeFunc) Handler {
	return Handler{Kind: Generative, Invoke: fn}
}

// AgenticHandler builds a multi-iteration, tool-using tier handler.
func AgenticHandler(fn InvokeFunc, tools []string) Handler {
	return Handler{Kind: Agentic, Invoke: fn, Tools: tools}
}

// HumanHandler builds a tier handler that only returns once a human
// answer arrives. ui names the rendered form/quick-action template the
// delivery fabric uses.
func HumanHandler(fn InvokeFunc, ui string) Handler {
	return Handler{Kind: Human, Invoke: fn, UI: ui}
}

func (h Handler) String() string {
	return fmt.Sprintf("Handler(%s)", h.Kind)
}
