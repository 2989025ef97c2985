package interfaces

import (
	"context"

	"github.com/ledgerline/refundgate/pkg/domain/types"
)

// LanguageService is the external NLU collaborator. Stateless; failures are
// transient and callers fall back to an apology answer.
type LanguageService interface {
	// ClassifyIntent tags a customer message with one of ORDER, POLICY,
	// REFUND, OTHER
	ClassifyIntent(ctx context.Context, text string) (types.Intent, error)

	// GenerateAnswer produces a free-text answer from the question and
	// retrieved context parts
	GenerateAnswer(ctx context.Context, question string, contextParts []string) (string, error)
}

// PaymentGateway is the narrow settlement contract. Settle is idempotent by
// amount and case at the gateway side; the dispatcher additionally checks for
// a recorded transaction before calling it.
type PaymentGateway interface {
	Settle(ctx context.Context, amount float64, method string) (transactionID string, err error)
}

// SMSGateway is the narrow SMS dispatch contract. Re-sending the same message
// is tolerated.
type SMSGateway interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// Alerter surfaces operational incidents (a job that exhausted its retries)
// to a human channel. Alerts are never silently dropped, but alert delivery
// failure must not fail the caller.
type Alerter interface {
	Alert(ctx context.Context, title string, details map[string]any) error
}
