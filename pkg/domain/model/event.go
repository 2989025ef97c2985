package model

import (
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/types"
)

// EventType identifies a live-channel event
type EventType string

const (
	// EventTypeStatusChange notifies a customer thread of a case state change
	EventTypeStatusChange EventType = "status_change"
	// EventTypeNewTask notifies the reviewer pool of a newly escalated case
	EventTypeNewTask EventType = "new_task"
)

// Event is the message pushed to live clients. Delivery is best-effort: the
// durable state change has already committed before an event is published, so
// a missed event is a liveness problem, never a correctness problem.
type Event struct {
	Type      EventType          `json:"type"`
	CaseID    string             `json:"case_id"`
	ThreadID  string             `json:"thread_id"`
	Status    types.ThreadStatus `json:"status"`
	Data      map[string]any     `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewStatusChangeEvent builds the customer-facing event for a case state
func NewStatusChangeEvent(c *RefundCase, data map[string]any) *Event {
	return &Event{
		Type:      EventTypeStatusChange,
		CaseID:    c.ID,
		ThreadID:  c.ThreadID,
		Status:    types.ThreadStatusOf(c.Status),
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskEvent builds the reviewer-pool event for a newly escalated case
func NewTaskEvent(c *RefundCase) *Event {
	return &Event{
		Type:     EventTypeNewTask,
		CaseID:   c.ID,
		ThreadID: c.ThreadID,
		Status:   types.ThreadStatusWaitingAdmin,
		Data: map[string]any{
			"risk_tier":      c.RiskTier.String(),
			"amount":         c.Amount,
			"trigger_reason": c.TriggerReason,
		},
		Timestamp: time.Now().UTC(),
	}
}
