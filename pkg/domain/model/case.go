package model

import (
	"encoding/json"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RefundCase is one refund request tracked through the approval pipeline.
// Cases are append-only: they are created once, transition at most once
// (PENDING_REVIEW -> APPROVED/REJECTED), and are never deleted.
type RefundCase struct {
	ID            string
	ThreadID      string
	UserID        string
	OrderID       string
	Amount        float64
	RiskTier      types.RiskTier
	Status        types.CaseStatus
	TriggerReason string

	// ContextSnapshot is the immutable JSON snapshot captured at escalation
	// time (question, order summary, conversation history). Write-once.
	ContextSnapshot json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CaseDraft is the validated input to the approval pipeline, before risk
// classification assigns a tier and initial status.
type CaseDraft struct {
	ThreadID        string
	UserID          string
	OrderID         string
	Amount          float64
	Reason          string
	ContextSnapshot json.RawMessage
}

// Validate checks the draft for malformed input. Validation failures are
// rejected immediately and never retried.
func (d *CaseDraft) Validate() error {
	if d.ThreadID == "" {
		return goerr.Wrap(ErrInvalidDraft, "thread ID is required")
	}
	if d.UserID == "" {
		return goerr.Wrap(ErrInvalidDraft, "user ID is required")
	}
	if d.OrderID == "" {
		return goerr.Wrap(ErrInvalidDraft, "order ID is required")
	}
	if d.Amount <= 0 {
		return goerr.Wrap(ErrInvalidDraft, "refund amount must be positive",
			goerr.V("amount", d.Amount))
	}
	return nil
}

// CaseSummary is the reviewer-queue projection of a pending case
type CaseSummary struct {
	ID            string          `json:"case_id"`
	ThreadID      string          `json:"thread_id"`
	UserID        string          `json:"user_id"`
	OrderID       string          `json:"order_id"`
	Amount        float64         `json:"amount"`
	RiskTier      types.RiskTier  `json:"risk_tier"`
	TriggerReason string          `json:"trigger_reason"`
	Snapshot      json.RawMessage `json:"context_snapshot,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Summary renders the case into its reviewer-queue projection
func (c *RefundCase) Summary() *CaseSummary {
	return &CaseSummary{
		ID:            c.ID,
		ThreadID:      c.ThreadID,
		UserID:        c.UserID,
		OrderID:       c.OrderID,
		Amount:        c.Amount,
		RiskTier:      c.RiskTier,
		TriggerReason: c.TriggerReason,
		Snapshot:      c.ContextSnapshot,
		CreatedAt:     c.CreatedAt,
	}
}
