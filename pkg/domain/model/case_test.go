package model_test

import (
	"errors"
	"testing"

	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestCaseDraftValidate(t *testing.T) {
	valid := model.CaseDraft{
		ThreadID: "thread-1",
		UserID:   "user-1",
		OrderID:  "order-1",
		Amount:   120.50,
		Reason:   "quality issue",
	}

	t.Run("valid draft", func(t *testing.T) {
		d := valid
		gt.NoError(t, d.Validate())
	})

	t.Run("missing order", func(t *testing.T) {
		d := valid
		d.OrderID = ""
		err := d.Validate()
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidDraft)).True()
	})

	t.Run("non-positive amount", func(t *testing.T) {
		d := valid
		d.Amount = 0
		gt.Error(t, d.Validate())

		d.Amount = -5
		gt.Error(t, d.Validate())
	})
}

func TestDecisionValidate(t *testing.T) {
	t.Run("valid decision", func(t *testing.T) {
		d := model.Decision{CaseID: "c1", ReviewerID: "r1", Verdict: types.VerdictApprove}
		gt.NoError(t, d.Validate())
	})

	t.Run("unknown verdict", func(t *testing.T) {
		d := model.Decision{CaseID: "c1", ReviewerID: "r1", Verdict: "MAYBE"}
		err := d.Validate()
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidVerdict)).True()
	})
}

func TestIdempotencyKey(t *testing.T) {
	key := model.IdempotencyKey("case-42", types.JobKindSettlePayment)
	gt.Value(t, key).Equal("case-42:SETTLE_PAYMENT")

	// Same inputs always derive the same key
	gt.Value(t, model.IdempotencyKey("case-42", types.JobKindSettlePayment)).Equal(key)
}

func TestNewJob(t *testing.T) {
	job := model.NewJob("case-1", types.JobKindSendSMS, nil)
	gt.Value(t, job.IdempotencyKey).Equal("case-1:SEND_SMS")
	gt.Value(t, job.Status).Equal(types.JobStatusQueued)
	gt.Value(t, job.CaseID).Equal("case-1")
}
