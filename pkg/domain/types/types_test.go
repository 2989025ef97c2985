package types_test

import (
	"testing"

	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestCaseStatusTransitions(t *testing.T) {
	t.Run("only pending review may transition", func(t *testing.T) {
		for _, from := range types.AllCaseStatuses() {
			for _, to := range types.AllCaseStatuses() {
				allowed := from.CanTransitionTo(to)
				if from == types.CaseStatusPendingReview &&
					(to == types.CaseStatusApproved || to == types.CaseStatusRejected) {
					gt.Bool(t, allowed).True()
				} else {
					gt.Bool(t, allowed).False()
				}
			}
		}
	})

	t.Run("terminal states", func(t *testing.T) {
		gt.Bool(t, types.CaseStatusAutoApproved.IsTerminal()).True()
		gt.Bool(t, types.CaseStatusApproved.IsTerminal()).True()
		gt.Bool(t, types.CaseStatusRejected.IsTerminal()).True()
		gt.Bool(t, types.CaseStatusPendingReview.IsTerminal()).False()
	})

	t.Run("parse rejects unknown status", func(t *testing.T) {
		_, err := types.ParseCaseStatus("CANCELLED")
		gt.Error(t, err)

		status, err := types.ParseCaseStatus("PENDING_REVIEW")
		gt.NoError(t, err)
		gt.Value(t, status).Equal(types.CaseStatusPendingReview)
	})
}

func TestRiskTier(t *testing.T) {
	t.Run("rank ordering", func(t *testing.T) {
		gt.Bool(t, types.RiskTierLow.Rank() < types.RiskTierMedium.Rank()).True()
		gt.Bool(t, types.RiskTierMedium.Rank() < types.RiskTierHigh.Rank()).True()
	})

	t.Run("review requirement", func(t *testing.T) {
		gt.Bool(t, types.RiskTierLow.RequiresReview()).False()
		gt.Bool(t, types.RiskTierMedium.RequiresReview()).True()
		gt.Bool(t, types.RiskTierHigh.RequiresReview()).True()
	})

	t.Run("parse", func(t *testing.T) {
		tier, err := types.ParseRiskTier("HIGH")
		gt.NoError(t, err)
		gt.Value(t, tier).Equal(types.RiskTierHigh)

		_, err = types.ParseRiskTier("CRITICAL")
		gt.Error(t, err)
	})
}

func TestVerdict(t *testing.T) {
	gt.Value(t, types.VerdictApprove.CaseStatus()).Equal(types.CaseStatusApproved)
	gt.Value(t, types.VerdictReject.CaseStatus()).Equal(types.CaseStatusRejected)

	_, err := types.ParseVerdict("ESCALATE")
	gt.Error(t, err)
}

func TestJobStatus(t *testing.T) {
	gt.Bool(t, types.JobStatusQueued.IsActive()).True()
	gt.Bool(t, types.JobStatusRunning.IsActive()).True()
	gt.Bool(t, types.JobStatusDone.IsActive()).True()
	gt.Bool(t, types.JobStatusFailed.IsActive()).False()
}

func TestThreadStatusOf(t *testing.T) {
	gt.Value(t, types.ThreadStatusOf(types.CaseStatusAutoApproved)).Equal(types.ThreadStatusApproved)
	gt.Value(t, types.ThreadStatusOf(types.CaseStatusApproved)).Equal(types.ThreadStatusApproved)
	gt.Value(t, types.ThreadStatusOf(types.CaseStatusRejected)).Equal(types.ThreadStatusRejected)
	gt.Value(t, types.ThreadStatusOf(types.CaseStatusPendingReview)).Equal(types.ThreadStatusWaitingAdmin)
}

func TestParseIntent(t *testing.T) {
	gt.Value(t, types.ParseIntent("REFUND")).Equal(types.IntentRefund)
	gt.Value(t, types.ParseIntent("nonsense")).Equal(types.IntentOther)
}
