package human

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cascadefn/platform/logger"
	"github.com/cascadefn/platform/tier"
	"github.com/google/uuid"
)

// Errors returned by Resolve.
var (
	ErrUnknownTask      = errors.New("human: unknown or already-settled task")
	ErrTaskCancelled    = errors.New("human: task already cancelled")
	ErrDuplicateResponse = errors.New("human: duplicate response discarded")
)

// TaskConfig describes how one human-tier invocation should be
// delivered, who it escalates to, and how its SLA is enforced. It is
// the task-specific counterpart to tier.Handler.UI.
type TaskConfig struct {
	UI           string
	Channels     []string
	Assignees    []string
	QuickActions []QuickAction
	Escalation   []EscalationStep
	SLAAction    SLAAction
	// Validate runs against a form submission's raw field map before it
	// is returned as the tier's output.
	Validate func(payload map[string]any) error
}

type pendingEntry struct {
	mu   sync.Mutex
	ch   chan Response
	done bool
}

// Coordinator bridges the synchronous cascade call to an asynchronous
// human response. One Coordinator is shared across all human-tier
// invocations for a deployment.
type Coordinator struct {
	Store   Store
	Fabric  DeliveryFabric
	Logger  logger.Logger
	NewID   func() string

	mu       sync.Mutex
	pending  map[string]*pendingEntry
	cancelled map[string]bool
}

// NewCoordinator builds a Coordinator over the given store and delivery
// fabric.
func NewCoordinator(store Store, fabric DeliveryFabric) *Coordinator {
	return &Coordinator{
		Store:     store,
		Fabric:    fabric,
		Logger:    logger.NoOp{},
		NewID:     uuid.NewString,
		pending:   make(map[string]*pendingEntry),
		cancelled: make(map[string]bool),
	}
}

// HandlerFunc returns a tier.InvokeFunc suitable for tier.HumanHandler,
// bound to cfg. Every invocation creates a fresh Task.
func (c *Coordinator) HandlerFunc(cfg TaskConfig) tier.InvokeFunc {
	return func(ctx context.Context, input any, tierCtx *tier.Context) (any, error) {
		task := c.newTask(cfg, input, tierCtx)

		if err := c.Store.Create(ctx, task); err != nil {
			return nil, tier.NewHandlerError(fmt.Sprintf("create task: %v", err))
		}

		if err := c.deliver(ctx, task); err != nil {
			return nil, tier.NewHandlerError(fmt.Sprintf("deliver task: %v", err))
		}

		resp, err := c.wait(ctx, task)
		if err != nil {
			return nil, tier.NewHandlerError(fmt.Sprintf("human task %s: %v", task.ID, err))
		}

		output, err := transformOutput(cfg, resp.Payload)
		if err != nil {
			// Invalid response: treated as a handler error, retryable
			// within the tier's local budget per §4.6's resolve step.
			return nil, tier.NewHandlerError(fmt.Sprintf("invalid response: %v", err))
		}

		task.Responses = append(task.Responses, resp)
		task.Status = StatusResolved
		_ = c.Store.Update(ctx, task)

		return output, nil
	}
}

func (c *Coordinator) newTask(cfg TaskConfig, input any, tierCtx *tier.Context) *Task {
	return &Task{
		ID:           c.NewID(),
		Status:       StatusPending,
		UI:           cfg.UI,
		Channels:     cfg.Channels,
		Input:        input,
		Assignees:    cfg.Assignees,
		QuickActions: cfg.QuickActions,
		Escalation:   cfg.Escalation,
		SLAAction:    cfg.SLAAction,
		CreatedAt:    time.Now(),
		Deadline:     tierCtx.Deadline,
	}
}

// deliver hands the task to the fabric and records one Delivery per
// returned message ID. Every call sends through the fabric again and
// appends to task.Deliveries; repeated deliveries of the same task are
// not coalesced. Escalate calls it again to reach the new assignees.
func (c *Coordinator) deliver(ctx context.Context, task *Task) error {
	messageIDs, err := c.Fabric.Deliver(ctx, task.ID, task.UI, task.Input, task.Assignees, defaultChannels(task))
	if err != nil {
		return err
	}

	for channel, msgID := range messageIDs {
		task.Deliveries = append(task.Deliveries, Delivery{
			Channel:     channel,
			MessageID:   msgID,
			Assignees:   task.Assignees,
			DeliveredAt: time.Now(),
		})
	}
	task.Status = StatusDelivered
	return c.Store.Update(ctx, task)
}

func defaultChannels(task *Task) []string {
	if len(task.Channels) > 0 {
		return task.Channels
	}
	return []string{"default"}
}

// wait suspends until a response arrives, the deadline passes (observed
// via the Tier Executor's timeout context), or the task is explicitly
// cancelled.
func (c *Coordinator) wait(ctx context.Context, task *Task) (Response, error) {
	entry := c.register(task.ID)
	defer c.unregister(task.ID)

	select {
	case resp := <-entry.ch:
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		c.cancelled[task.ID] = true
		c.mu.Unlock()
		_ = c.Fabric.Cancel(context.Background(), task.ID)
		return Response{}, ctx.Err()
	}
}

func (c *Coordinator) register(taskID string) *pendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &pendingEntry{ch: make(chan Response, 1)}
	c.pending[taskID] = entry
	return entry
}

// unregister drops a task's pending entry once its wait ends. An entry
// that already received a response is kept, so a later Resolve for the
// same task reports ErrDuplicateResponse.
func (c *Coordinator) unregister(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.pending[taskID]; ok {
		entry.mu.Lock()
		answered := entry.done
		entry.mu.Unlock()
		if answered {
			return
		}
	}
	delete(c.pending, taskID)
}

// Resolve is the external callback entrypoint: the delivery fabric (or
// an HTTP webhook sitting on top of it) calls this when a human
// responds. A response that arrives after the task was cancelled, or a
// duplicate for an already-settled task, is discarded.
func (c *Coordinator) Resolve(ctx context.Context, taskID string, payload any, responder string) error {
	c.mu.Lock()
	if c.cancelled[taskID] {
		c.mu.Unlock()
		return ErrTaskCancelled
	}
	entry, ok := c.pending[taskID]
	c.mu.Unlock()

	if !ok {
		return ErrUnknownTask
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.done {
		return ErrDuplicateResponse
	}
	entry.done = true

	entry.ch <- Response{Payload: payload, Responder: responder, ReceivedAt: time.Now()}
	return nil
}

// Escalate reassigns a task to the next escalation step's assignees and
// re-delivers, incrementing the task-local escalation counter. It is
// invoked by an expiry processor (see expiry.go) at each configured
// threshold, before the cascade's own tier timeout fires.
func (c *Coordinator) Escalate(ctx context.Context, task *Task) error {
	if task.EscalationStep >= len(task.Escalation) {
		return nil
	}

	step := task.Escalation[task.EscalationStep]
	task.Assignees = step.Assignees
	task.EscalationStep++

	return c.deliver(ctx, task)
}

// ApplySLA executes the configured SLA action when a task's deadline has
// passed without a response. notify leaves the task live; escalate
// reassigns; auto-approve/auto-reject synthesize a response value and
// resolve the task as if a human had answered.
func (c *Coordinator) ApplySLA(ctx context.Context, task *Task) error {
	switch task.SLAAction {
	case SLAEscalate:
		return c.Escalate(ctx, task)
	case SLAAutoApprove:
		return c.Resolve(ctx, task.ID, map[string]any{"selected": "approve"}, "sla:auto-approve")
	case SLAAutoReject:
		return c.Resolve(ctx, task.ID, map[string]any{"selected": "reject"}, "sla:auto-reject")
	case SLANotify, "":
		task.Status = StatusExpired
		return c.Store.Update(ctx, task)
	default:
		return fmt.Errorf("human: unknown SLA action %q", task.SLAAction)
	}
}
