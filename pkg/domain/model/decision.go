package model

import (
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Decision is a reviewer's verdict on a pending case. At most one decision is
// ever durably attached to a case; a second attempt fails instead of
// overwriting.
type Decision struct {
	CaseID     string
	ReviewerID string
	Verdict    types.Verdict
	Comment    string
	DecidedAt  time.Time
}

// Validate checks the decision input before it reaches the ledger
func (d *Decision) Validate() error {
	if d.CaseID == "" {
		return goerr.Wrap(ErrInvalidVerdict, "case ID is required")
	}
	if d.ReviewerID == "" {
		return goerr.Wrap(ErrInvalidVerdict, "reviewer ID is required")
	}
	if !d.Verdict.IsValid() {
		return goerr.Wrap(ErrInvalidVerdict, "verdict must be APPROVE or REJECT",
			goerr.V("verdict", d.Verdict))
	}
	return nil
}

// CaseOutcome is the result of recording a decision: the case in its terminal
// state together with the authoritative decision. For idempotent retries the
// decision may be one recorded by an earlier call.
type CaseOutcome struct {
	Case     *RefundCase
	Decision *Decision
}
