package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/repository/memory"
	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type stubLanguage struct {
	intent    types.Intent
	answer    string
	intentErr error
	answerErr error
}

func (s *stubLanguage) ClassifyIntent(ctx context.Context, text string) (types.Intent, error) {
	return s.intent, s.intentErr
}

func (s *stubLanguage) GenerateAnswer(ctx context.Context, question string, contextParts []string) (string, error) {
	return s.answer, s.answerErr
}

func newChatFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()

	repo := memory.New()
	notifications := hub.New()
	jobs := dispatcher.New(repo.Job(),
		dispatcher.WithWorkers(1),
		dispatcher.WithPollInterval(10*time.Millisecond))

	usecases := usecase.New(repo, notifications, jobs, opts...)
	payments := &fakePayment{}
	sms := &fakeSMS{}
	usecases.Approval.RegisterExecutors(payments, sms)

	return &fixture{
		repo:     repo,
		hub:      notifications,
		jobs:     jobs,
		usecases: usecases,
		payments: payments,
		sms:      sms,
	}
}

func TestHandleMessageRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("eligible low-amount refund is auto-approved", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedOrder(t, ctx, "ORD-1001", "U001", 120)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-1",
			"I want a refund for ORD-1001", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Intent).Equal(types.IntentRefund)
		gt.Value(t, reply.Status).Equal(types.ThreadStatusApproved)
		gt.Value(t, reply.CaseID).NotEqual("")
		gt.String(t, reply.Text).Contains("approved")
	})

	t.Run("high-amount refund escalates to review", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedOrder(t, ctx, "ORD-1002", "U001", 2500)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-2",
			"please refund my order", "ORD-1002")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Status).Equal(types.ThreadStatusWaitingAdmin)
		gt.String(t, reply.Text).Contains("reviewer")
	})

	t.Run("missing order reference asks for the order number", func(t *testing.T) {
		f := newChatFixture(t)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-3",
			"I want my money back, refund please", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.CaseID).Equal("")
		gt.String(t, reply.Text).Contains("order number")
	})

	t.Run("unknown order gets a polite reply, no case", func(t *testing.T) {
		f := newChatFixture(t)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-4",
			"refund ORD-9999 please", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.CaseID).Equal("")
		gt.String(t, reply.Text).Contains("ORD-9999")
	})

	t.Run("another user's order is invisible", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedOrder(t, ctx, "ORD-1005", "U002", 100)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-5",
			"refund ORD-1005", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.CaseID).Equal("")
	})

	t.Run("ineligible order is rejected with the rule reason", func(t *testing.T) {
		f := newChatFixture(t)
		gt.NoError(t, f.repo.Order().Put(ctx, &model.Order{
			ID:          "ORD-1006",
			UserID:      "U001",
			TotalAmount: 100,
			Status:      types.OrderStatusPending,
			CreatedAt:   time.Now().UTC(),
		})).Required()

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-6",
			"refund ORD-1006", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.CaseID).Equal("")
		gt.String(t, reply.Text).Contains("can't be refunded")
	})
}

func TestHandleMessageKeepsThreadHistory(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.seedOrder(t, ctx, "ORD-1100", "U001", 120)

	// First exchange: an order question and its reply enter the history
	first, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-h",
		"when will my order arrive?", "")
	gt.NoError(t, err).Required()
	gt.Value(t, first.Intent).Equal(types.IntentOrder)

	// Second exchange escalates into a case
	second, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-h",
		"I want a refund for ORD-1100", "")
	gt.NoError(t, err).Required()
	gt.Value(t, second.CaseID).NotEqual("")

	// Every message and reply is persisted in order
	messages := gt.R1(f.repo.Message().ListRecent(ctx, "th-h", 0)).NoError(t)
	gt.Array(t, messages).Length(4)
	gt.Value(t, messages[0].Role).Equal(model.MessageRoleCustomer)
	gt.Value(t, messages[0].Text).Equal("when will my order arrive?")
	gt.Value(t, messages[1].Role).Equal(model.MessageRoleAssistant)
	gt.Value(t, messages[3].Text).Equal(second.Text)

	// The case snapshot carries the conversation that preceded the request
	escalated := gt.R1(f.repo.Case().Get(ctx, second.CaseID)).NoError(t)
	var snapshot struct {
		Question string `json:"question"`
		History  []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"history"`
	}
	gt.NoError(t, json.Unmarshal(escalated.ContextSnapshot, &snapshot)).Required()
	gt.Value(t, snapshot.Question).Equal("I want a refund for ORD-1100")
	gt.Array(t, snapshot.History).Length(2)
	gt.Value(t, snapshot.History[0].Role).Equal(string(model.MessageRoleCustomer))
	gt.Value(t, snapshot.History[0].Text).Equal("when will my order arrive?")
}

func TestHandleMessageQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("order question is answered with order context", func(t *testing.T) {
		f := newChatFixture(t, usecase.WithLanguage(&stubLanguage{
			intent: types.IntentOrder,
			answer: "Your order ORD-1001 was delivered yesterday.",
		}))
		f.seedOrder(t, ctx, "ORD-1001", "U001", 120)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-1",
			"where is ORD-1001?", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Intent).Equal(types.IntentOrder)
		gt.String(t, reply.Text).Contains("delivered")
	})

	t.Run("policy question is answered", func(t *testing.T) {
		f := newChatFixture(t, usecase.WithLanguage(&stubLanguage{
			intent: types.IntentPolicy,
			answer: "Refunds are accepted within 7 days.",
		}))

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-2",
			"what is your return policy?", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Intent).Equal(types.IntentPolicy)
		gt.String(t, reply.Text).Contains("7 days")
	})

	t.Run("answer failure falls back to an apology", func(t *testing.T) {
		f := newChatFixture(t, usecase.WithLanguage(&stubLanguage{
			intent:    types.IntentOther,
			answerErr: goerr.New("upstream timeout"),
		}))

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-3",
			"hello there", "")
		gt.NoError(t, err).Required()
		gt.String(t, reply.Text).Contains("Sorry")
	})

	t.Run("classification failure falls back to keyword matching", func(t *testing.T) {
		f := newChatFixture(t, usecase.WithLanguage(&stubLanguage{
			intentErr: goerr.New("upstream timeout"),
		}))
		f.seedOrder(t, ctx, "ORD-1001", "U001", 120)

		reply, err := f.usecases.Chat.HandleMessage(ctx, "U001", "th-4",
			"refund ORD-1001 please", "")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Intent).Equal(types.IntentRefund)
		gt.Value(t, reply.CaseID).NotEqual("")
	})
}
