package human

import (
	"context"
	"time"
)

// DeliveryFabric is the external hand-off to chat/email/web channels
// that actually puts a task in front of a person. The core consumes
// only this narrow interface (§6); the fabric's wire format is out of
// scope.
type DeliveryFabric interface {
	// Deliver renders and sends the task's UI to its assignees over the
	// given channels, returning one message ID per channel.
	Deliver(ctx context.Context, taskID string, ui string, input any, assignees []string, channels []string) (messageIDs map[string]string, err error)

	// Cancel notifies the fabric that a task no longer needs a response
	// (e.g. its tier timed out).
	Cancel(ctx context.Context, taskID string) error
}

// Store persists Task state durably so it can outlive the cascade call
// and be resolved by an out-of-band callback.
type Store interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	// Pending returns tasks whose deadline is at or before before, for
	// the expiry processor to sweep.
	Pending(ctx context.Context, before time.Time) ([]*Task, error)
	// ByExecution returns every task created for the given cascade
	// execution, for bulk lookup (e.g. a status page for one run).
	ByExecution(ctx context.Context, executionID string) ([]*Task, error)
}
