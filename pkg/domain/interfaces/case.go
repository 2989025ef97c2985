package interfaces

import (
	"context"

	"github.com/ledgerline/refundgate/pkg/domain/model"
)

// CaseRepository defines data access for refund cases and their decisions.
// It owns the single-decision invariant: RecordDecision is the only write path
// for case state transitions and executes atomically.
type CaseRepository interface {
	// Create persists a new case together with its context snapshot in one
	// write. The case arrives with its initial status already assigned
	// (AUTO_APPROVED or PENDING_REVIEW) and gets a server-generated ID.
	Create(ctx context.Context, c *model.RefundCase) (*model.RefundCase, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id string) (*model.RefundCase, error)

	// GetLatestByThread retrieves the most recently created case for a thread
	GetLatestByThread(ctx context.Context, threadID string) (*model.RefundCase, error)

	// ListPending retrieves cases currently in PENDING_REVIEW, newest first,
	// with optional filtering
	ListPending(ctx context.Context, opts ...ListPendingOption) ([]*model.RefundCase, error)

	// RecordDecision atomically transitions a PENDING_REVIEW case to the
	// verdict's terminal state and attaches the decision. If the case is in
	// any other state it returns ErrAlreadyDecided without modifying
	// anything; the stored decision is available via GetDecision. Writers to
	// different cases never block each other.
	RecordDecision(ctx context.Context, caseID string, decision *model.Decision) (*model.CaseOutcome, error)

	// GetDecision retrieves the decision attached to a case, or ErrNotFound
	// if the case was never human-decided
	GetDecision(ctx context.Context, caseID string) (*model.Decision, error)
}
