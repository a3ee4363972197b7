// Package human bridges the synchronous cascade call to an asynchronous
// human response, generalizing the teacher's human-in-the-loop (HITL)
// subsystem from "pause an orchestration plan for approval" to "run the
// human tier of a cascade."
package human

import "time"

// Status is the lifecycle state of one HumanTask.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusResolved  Status = "resolved"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// SLAAction is the configured behavior when a task's deadline passes
// without a human response.
type SLAAction string

const (
	SLANotify      SLAAction = "notify"
	SLAEscalate    SLAAction = "escalate"
	SLAAutoApprove SLAAction = "auto-approve"
	SLAAutoReject  SLAAction = "auto-reject"
)

// QuickAction is one of the declared response shortcuts rendered on the
// task's UI (e.g. "approve" / "reject" buttons).
type QuickAction struct {
	ID    string
	Label string
	Value any
}

// EscalationStep is one threshold in the task-local escalation ladder:
// after ElapsedFraction of the deadline passes without a response,
// reassign to Assignees and re-deliver.
type EscalationStep struct {
	ElapsedFraction float64
	Assignees       []string
}

// Task is the persistent record of one pending human-tier invocation.
// It outlives the cascade call whenever the caller supports asynchronous
// completion.
type Task struct {
	ID             string
	CascadeID      string
	ExecutionID    string
	Status         Status
	UI             string
	Channels       []string
	Input          any
	Assignees      []string
	QuickActions   []QuickAction
	Escalation     []EscalationStep
	SLAAction      SLAAction
	CreatedAt      time.Time
	Deadline       time.Time
	Deliveries     []Delivery
	Responses      []Response
	EscalationStep int
}

// Delivery records one hand-off to the external delivery fabric.
type Delivery struct {
	Channel    string
	MessageID  string
	Assignees  []string
	DeliveredAt time.Time
}

// Response is one inbound answer for a task. Only the first response is
// honored; later ones (or ones arriving after cancellation) are
// discarded per §4.6's idempotency rule.
type Response struct {
	Payload    any
	Responder  string
	ReceivedAt time.Time
}
