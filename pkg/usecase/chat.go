package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/service/rules"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// apologyReply is returned when the language service is unavailable. The
// customer never sees internal error details.
const apologyReply = "Sorry, I couldn't process your request right now. Please try again in a moment or contact support."

// historyLimit caps how much conversation history is loaded per message and
// captured in a case context snapshot
const historyLimit = 20

// ChatReply is the customer-facing result of one chat message
type ChatReply struct {
	Text   string             `json:"text"`
	Intent types.Intent       `json:"intent"`
	CaseID string             `json:"case_id,omitempty"`
	Status types.ThreadStatus `json:"status,omitempty"`
}

// ChatUseCase handles customer messages: classify the intent, answer order
// and policy questions, and turn refund requests into cases via the approval
// pipeline. Language service failures degrade to canned replies; refund
// submission failures are real errors and propagate.
type ChatUseCase struct {
	repo        interfaces.Repository
	approval    *ApprovalUseCase
	eligibility *rules.Checker
	language    interfaces.LanguageService
	policyLines []string
}

// NewChatUseCase creates a ChatUseCase. The language service is attached via
// usecase options and may stay nil.
func NewChatUseCase(repo interfaces.Repository, approval *ApprovalUseCase, eligibility *rules.Checker) *ChatUseCase {
	return &ChatUseCase{
		repo:        repo,
		approval:    approval,
		eligibility: eligibility,
		policyLines: defaultPolicyLines(),
	}
}

func defaultPolicyLines() []string {
	return []string{
		fmt.Sprintf("Refunds are accepted within %d days of the order date.", rules.DefaultDeadlineDays),
		"Only shipped or delivered orders can be refunded.",
		"Refunds are returned to the original payment method.",
		"Large refunds are reviewed by a human before payout.",
	}
}

// HandleMessage processes one customer message in a thread. orderID is the
// order the message refers to, when the client knows it; otherwise it is
// extracted from the text. Both the message and the reply are appended to the
// thread history.
func (uc *ChatUseCase) HandleMessage(ctx context.Context, userID, threadID, text, orderID string) (*ChatReply, error) {
	// History preceding this message; captured in the context snapshot when
	// the message escalates into a case
	history, histErr := uc.repo.Message().ListRecent(ctx, threadID, historyLimit)
	if histErr != nil {
		logging.From(ctx).Warn("failed to load thread history",
			"thread_id", threadID, "error", histErr.Error())
		history = nil
	}
	uc.record(ctx, threadID, userID, model.MessageRoleCustomer, text)

	intent := uc.classifyIntent(ctx, text)

	var reply *ChatReply
	var err error
	switch intent {
	case types.IntentRefund:
		reply, err = uc.handleRefund(ctx, userID, threadID, text, orderID, history)
	case types.IntentOrder:
		reply, err = uc.handleOrder(ctx, userID, text, orderID)
	case types.IntentPolicy:
		reply = &ChatReply{Text: uc.answer(ctx, text, uc.policyLines), Intent: intent}
	default:
		reply = &ChatReply{Text: uc.answer(ctx, text, nil), Intent: types.IntentOther}
	}
	if err != nil {
		return nil, err
	}

	uc.record(ctx, threadID, userID, model.MessageRoleAssistant, reply.Text)
	return reply, nil
}

// record appends a message to the thread history. Best effort: a history
// write failure never blocks the conversation.
func (uc *ChatUseCase) record(ctx context.Context, threadID, userID string, role model.MessageRole, text string) {
	if _, err := uc.repo.Message().Append(ctx, &model.Message{
		ThreadID: threadID,
		UserID:   userID,
		Role:     role,
		Text:     text,
	}); err != nil {
		logging.From(ctx).Warn("failed to record chat message",
			"thread_id", threadID, "role", string(role), "error", err.Error())
	}
}

func (uc *ChatUseCase) handleRefund(ctx context.Context, userID, threadID, text, orderID string, history []*model.Message) (*ChatReply, error) {
	if orderID == "" {
		orderID = extractOrderID(text)
	}
	if orderID == "" {
		return &ChatReply{
			Text:   "I can help with that. Which order would you like refunded? Please include the order number.",
			Intent: types.IntentRefund,
		}, nil
	}

	order, err := uc.repo.Order().GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &ChatReply{
				Text:   fmt.Sprintf("I couldn't find order %s in your account. Please check the order number.", orderID),
				Intent: types.IntentRefund,
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to load order for refund request",
			goerr.V("order_id", orderID))
	}

	eligible, reason, err := uc.eligibility.Check(ctx, order)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return &ChatReply{
			Text:   fmt.Sprintf("I'm afraid this order can't be refunded: %s", reason),
			Intent: types.IntentRefund,
		}, nil
	}

	entries := make([]map[string]any, 0, len(history))
	for _, m := range history {
		entries = append(entries, m.HistoryEntry())
	}
	snapshot, err := json.Marshal(map[string]any{
		"question": text,
		"order":    order.SummaryMap(),
		"history":  entries,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build context snapshot")
	}

	submitted, err := uc.approval.SubmitCase(ctx, &model.CaseDraft{
		ThreadID:        threadID,
		UserID:          userID,
		OrderID:         order.ID,
		Amount:          order.TotalAmount,
		Reason:          text,
		ContextSnapshot: snapshot,
	})
	if err != nil {
		return nil, err
	}

	reply := &ChatReply{
		Intent: types.IntentRefund,
		CaseID: submitted.ID,
		Status: types.ThreadStatusOf(submitted.Status),
	}
	if submitted.Status == types.CaseStatusAutoApproved {
		reply.Text = fmt.Sprintf("Your refund of %.2f for order %s has been approved. The amount will be returned to your original payment method.",
			submitted.Amount, submitted.OrderID)
	} else {
		reply.Text = fmt.Sprintf("Your refund request of %.2f for order %s has been forwarded to a reviewer. We'll notify you as soon as it's decided.",
			submitted.Amount, submitted.OrderID)
	}
	return reply, nil
}

func (uc *ChatUseCase) handleOrder(ctx context.Context, userID, text, orderID string) (*ChatReply, error) {
	if orderID == "" {
		orderID = extractOrderID(text)
	}

	var contextParts []string
	if orderID != "" {
		order, err := uc.repo.Order().GetForUser(ctx, orderID, userID)
		if err == nil {
			summary, merr := json.Marshal(order.SummaryMap())
			if merr == nil {
				contextParts = append(contextParts, string(summary))
			}
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to load order for question",
				goerr.V("order_id", orderID))
		}
	}

	return &ChatReply{Text: uc.answer(ctx, text, contextParts), Intent: types.IntentOrder}, nil
}

// classifyIntent asks the language service, degrading to keyword matching
// when the service is missing or failing
func (uc *ChatUseCase) classifyIntent(ctx context.Context, text string) types.Intent {
	if uc.language == nil {
		return keywordIntent(text)
	}

	intent, err := uc.language.ClassifyIntent(ctx, text)
	if err != nil {
		logging.From(ctx).Warn("intent classification failed, using keyword fallback",
			"error", err.Error())
		return keywordIntent(text)
	}
	return intent
}

// answer asks the language service for a free-text reply, degrading to an
// apology when the service is missing or failing
func (uc *ChatUseCase) answer(ctx context.Context, question string, contextParts []string) string {
	if uc.language == nil {
		return apologyReply
	}

	reply, err := uc.language.GenerateAnswer(ctx, question, contextParts)
	if err != nil {
		logging.From(ctx).Warn("answer generation failed, using apology fallback",
			"error", err.Error())
		return apologyReply
	}
	return reply
}

func keywordIntent(text string) types.Intent {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "refund"):
		return types.IntentRefund
	case strings.Contains(lowered, "order"), strings.Contains(lowered, "shipping"),
		strings.Contains(lowered, "delivery"):
		return types.IntentOrder
	case strings.Contains(lowered, "policy"), strings.Contains(lowered, "return"),
		strings.Contains(lowered, "warranty"):
		return types.IntentPolicy
	default:
		return types.IntentOther
	}
}

var orderIDPattern = regexp.MustCompile(`(?i)\b(ord-[a-z0-9]+)\b`)

// extractOrderID pulls an order reference like "ORD-1001" out of free text
func extractOrderID(text string) string {
	match := orderIDPattern.FindString(text)
	return strings.ToUpper(match)
}
