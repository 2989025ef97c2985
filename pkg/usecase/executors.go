package usecase

import (
	"context"
	"encoding/json"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RegisterExecutors binds the side-effect executors to the dispatcher. Each
// executor is safe under at-least-once delivery: settlement skips the gateway
// when a transaction is already recorded, SMS re-sends are tolerated, and a
// duplicate reviewer notification is only noise.
func (uc *ApprovalUseCase) RegisterExecutors(payments interfaces.PaymentGateway, sms interfaces.SMSGateway) {
	uc.jobs.Register(types.JobKindSettlePayment, uc.settlePayment(payments))
	uc.jobs.Register(types.JobKindSendSMS, uc.sendSMS(sms))
	uc.jobs.Register(types.JobKindNotifyReviewers, uc.notifyReviewers())
}

func (uc *ApprovalUseCase) settlePayment(payments interfaces.PaymentGateway) func(ctx context.Context, job *model.Job) (string, error) {
	return func(ctx context.Context, job *model.Job) (string, error) {
		// A recorded transaction means a previous attempt settled but crashed
		// before acknowledging. Never charge the gateway twice.
		if job.TransactionID != "" {
			return job.TransactionID, nil
		}

		var payload model.SettlePaymentPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return "", goerr.Wrap(err, "failed to decode settlement payload",
				goerr.V("job_key", job.IdempotencyKey))
		}

		transactionID, err := payments.Settle(ctx, payload.Amount, payload.Method)
		if err != nil {
			return "", goerr.Wrap(err, "payment settlement failed",
				goerr.V("case_id", job.CaseID))
		}
		return transactionID, nil
	}
}

func (uc *ApprovalUseCase) sendSMS(sms interfaces.SMSGateway) func(ctx context.Context, job *model.Job) (string, error) {
	return func(ctx context.Context, job *model.Job) (string, error) {
		var payload model.SendSMSPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return "", goerr.Wrap(err, "failed to decode SMS payload",
				goerr.V("job_key", job.IdempotencyKey))
		}

		if err := sms.SendSMS(ctx, payload.Phone, payload.Text); err != nil {
			return "", goerr.Wrap(err, "SMS dispatch failed",
				goerr.V("case_id", job.CaseID))
		}
		return "", nil
	}
}

func (uc *ApprovalUseCase) notifyReviewers() func(ctx context.Context, job *model.Job) (string, error) {
	return func(ctx context.Context, job *model.Job) (string, error) {
		escalated, err := uc.repo.Case().Get(ctx, job.CaseID)
		if err != nil {
			return "", goerr.Wrap(err, "failed to load case for reviewer notification",
				goerr.V("case_id", job.CaseID))
		}

		// A decision may land before this job runs; a terminal case has
		// nothing left to review, so the notification is dropped.
		if escalated.Status != types.CaseStatusPendingReview {
			logging.From(ctx).Info("skipping reviewer notification for decided case",
				"case_id", escalated.ID,
				"status", escalated.Status.String())
			return "", nil
		}

		uc.notifications.Publish(ctx, hub.ReviewerSubject(), model.NewTaskEvent(escalated))
		return "", nil
	}
}
