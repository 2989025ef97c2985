package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/service/risk"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ApprovalUseCase drives the refund case state machine: it owns submission,
// the human decision path, and the side-effect jobs each transition triggers.
// All case state goes through the ledger; this layer sequences reads, the
// atomic transition, job enqueues, and live events.
type ApprovalUseCase struct {
	repo          interfaces.Repository
	classifier    *risk.Classifier
	notifications *hub.Hub
	jobs          *dispatcher.Dispatcher
}

// NewApprovalUseCase creates an ApprovalUseCase
func NewApprovalUseCase(repo interfaces.Repository, classifier *risk.Classifier, notifications *hub.Hub, jobs *dispatcher.Dispatcher) *ApprovalUseCase {
	return &ApprovalUseCase{
		repo:          repo,
		classifier:    classifier,
		notifications: notifications,
		jobs:          jobs,
	}
}

// SubmitCase validates the draft, classifies its risk, and persists the case
// with its initial status. Low-risk cases are auto-approved and settle
// immediately; medium and high risk cases enter the review queue. Events are
// published only after the ledger write has committed.
func (uc *ApprovalUseCase) SubmitCase(ctx context.Context, draft *model.CaseDraft) (*model.RefundCase, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	order, err := uc.repo.Order().Get(ctx, draft.OrderID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load order for case submission",
			goerr.V("order_id", draft.OrderID))
	}

	tier := uc.classifier.Classify(draft.Amount)

	refundCase := &model.RefundCase{
		ThreadID:        draft.ThreadID,
		UserID:          draft.UserID,
		OrderID:         draft.OrderID,
		Amount:          draft.Amount,
		RiskTier:        tier,
		ContextSnapshot: draft.ContextSnapshot,
	}
	if tier.RequiresReview() {
		refundCase.Status = types.CaseStatusPendingReview
		refundCase.TriggerReason = fmt.Sprintf("amount %.2f requires %s-risk review", draft.Amount, strings.ToLower(tier.String()))
	} else {
		refundCase.Status = types.CaseStatusAutoApproved
		refundCase.TriggerReason = "low-risk refund auto-approved"
	}

	created, err := uc.repo.Case().Create(ctx, refundCase)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create refund case",
			goerr.V("thread_id", draft.ThreadID),
			goerr.V("order_id", draft.OrderID))
	}

	logging.From(ctx).Info("refund case submitted",
		"case_id", created.ID,
		"risk_tier", created.RiskTier.String(),
		"status", created.Status.String(),
		"amount", created.Amount)

	if created.Status == types.CaseStatusAutoApproved {
		if err := uc.enqueueApprovalEffects(ctx, created, order, ""); err != nil {
			return nil, err
		}
	} else {
		if _, err := uc.jobs.Enqueue(ctx, types.JobKindNotifyReviewers, created.ID, model.NotifyReviewersPayload{
			ThreadID:      created.ThreadID,
			RiskTier:      created.RiskTier,
			Amount:        created.Amount,
			TriggerReason: created.TriggerReason,
		}); err != nil {
			return nil, err
		}
	}

	// A pending case is visible to reviewers the moment Create commits, so a
	// decision may already have landed. Re-read before publishing so the event
	// status matches the ledger at publish time.
	current := created
	if created.Status == types.CaseStatusPendingReview {
		if latest, err := uc.repo.Case().Get(ctx, created.ID); err == nil {
			current = latest
		} else {
			logging.From(ctx).Warn("failed to re-read case before publish, using created state",
				"case_id", created.ID, "error", err.Error())
		}
	}
	uc.notifications.Publish(ctx, hub.ThreadSubject(created.UserID, created.ThreadID),
		model.NewStatusChangeEvent(current, nil))

	return created, nil
}

// Decide records a reviewer's verdict on a pending case. The transition is
// atomic in the ledger; a decision on an already decided case is treated as an
// idempotent retry and returns the stored outcome instead of failing. Deciding
// an auto-approved case is an error: no human decision is ever attached there.
func (uc *ApprovalUseCase) Decide(ctx context.Context, caseID, reviewerID string, verdict types.Verdict, comment string) (*model.CaseOutcome, error) {
	decision := &model.Decision{
		CaseID:     caseID,
		ReviewerID: reviewerID,
		Verdict:    verdict,
		Comment:    comment,
		DecidedAt:  time.Now().UTC(),
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	outcome, err := uc.repo.Case().RecordDecision(ctx, caseID, decision)
	if err != nil {
		if errors.Is(err, interfaces.ErrAlreadyDecided) {
			return uc.priorOutcome(ctx, caseID, err)
		}
		return nil, goerr.Wrap(err, "failed to record decision", goerr.V("case_id", caseID))
	}

	logging.From(ctx).Info("case decided",
		"case_id", caseID,
		"reviewer_id", reviewerID,
		"verdict", verdict.String())

	if err := uc.enqueueDecisionEffects(ctx, outcome.Case, verdict, comment); err != nil {
		return nil, err
	}

	data := map[string]any{"verdict": verdict.String()}
	if comment != "" {
		data["comment"] = comment
	}
	uc.notifications.Publish(ctx, hub.ThreadSubject(outcome.Case.UserID, outcome.Case.ThreadID),
		model.NewStatusChangeEvent(outcome.Case, data))

	return outcome, nil
}

// priorOutcome resolves an ErrAlreadyDecided into the stored outcome. When no
// decision exists (the case was auto-approved, never human-decided) the
// original error is surfaced. The stored verdict's effect jobs are re-enqueued
// on every resolution: if an earlier call died between the ledger commit and
// the enqueue, the retry is what heals the gap, and the idempotency keys make
// the re-enqueue a no-op otherwise.
func (uc *ApprovalUseCase) priorOutcome(ctx context.Context, caseID string, decideErr error) (*model.CaseOutcome, error) {
	stored, err := uc.repo.Case().GetDecision(ctx, caseID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(decideErr, "case is terminal without a reviewer decision",
				goerr.V("case_id", caseID))
		}
		return nil, goerr.Wrap(err, "failed to load stored decision", goerr.V("case_id", caseID))
	}

	decided, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load decided case", goerr.V("case_id", caseID))
	}

	if err := uc.enqueueDecisionEffects(ctx, decided, stored.Verdict, stored.Comment); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("duplicate decision resolved to stored outcome",
		"case_id", caseID,
		"verdict", stored.Verdict.String())

	return &model.CaseOutcome{Case: decided, Decision: stored}, nil
}

// Status returns the customer-visible status of the thread's latest case
func (uc *ApprovalUseCase) Status(ctx context.Context, threadID string) (types.ThreadStatus, error) {
	latest, err := uc.repo.Case().GetLatestByThread(ctx, threadID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get latest case for thread",
			goerr.V("thread_id", threadID))
	}
	return types.ThreadStatusOf(latest.Status), nil
}

// ListPending returns the reviewer queue, newest first
func (uc *ApprovalUseCase) ListPending(ctx context.Context, opts ...interfaces.ListPendingOption) ([]*model.CaseSummary, error) {
	pending, err := uc.repo.Case().ListPending(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending cases")
	}

	summaries := make([]*model.CaseSummary, 0, len(pending))
	for _, pendingCase := range pending {
		summaries = append(summaries, pendingCase.Summary())
	}
	return summaries, nil
}

// enqueueDecisionEffects queues the side-effect jobs a reviewer verdict
// requires: settlement plus SMS on approval, SMS only on rejection
func (uc *ApprovalUseCase) enqueueDecisionEffects(ctx context.Context, c *model.RefundCase, verdict types.Verdict, comment string) error {
	order, err := uc.repo.Order().Get(ctx, c.OrderID)
	if err != nil {
		return goerr.Wrap(err, "failed to load order for decision effects",
			goerr.V("case_id", c.ID), goerr.V("order_id", c.OrderID))
	}

	if verdict == types.VerdictApprove {
		return uc.enqueueApprovalEffects(ctx, c, order, comment)
	}

	if _, err := uc.jobs.Enqueue(ctx, types.JobKindSendSMS, c.ID, model.SendSMSPayload{
		Phone: order.Phone,
		Text:  rejectionSMS(c, comment),
	}); err != nil {
		return err
	}
	return nil
}

// enqueueApprovalEffects queues the settlement and customer SMS for an
// approved case. Both jobs are idempotency-keyed on the case, so re-running
// this after a partial failure never duplicates an effect.
func (uc *ApprovalUseCase) enqueueApprovalEffects(ctx context.Context, c *model.RefundCase, order *model.Order, comment string) error {
	if _, err := uc.jobs.Enqueue(ctx, types.JobKindSettlePayment, c.ID, model.SettlePaymentPayload{
		Amount: c.Amount,
		Method: order.PayMethod,
	}); err != nil {
		return err
	}

	if _, err := uc.jobs.Enqueue(ctx, types.JobKindSendSMS, c.ID, model.SendSMSPayload{
		Phone: order.Phone,
		Text:  approvalSMS(c, comment),
	}); err != nil {
		return err
	}

	return nil
}

func approvalSMS(c *model.RefundCase, comment string) string {
	text := fmt.Sprintf("Your refund of %.2f for order %s has been approved and will be returned to your original payment method.",
		c.Amount, c.OrderID)
	if comment != "" {
		text += " Reviewer note: " + comment
	}
	return text
}

func rejectionSMS(c *model.RefundCase, comment string) string {
	text := fmt.Sprintf("Your refund request of %.2f for order %s has been rejected.", c.Amount, c.OrderID)
	if comment != "" {
		text += " Reason: " + comment
	}
	return text
}
