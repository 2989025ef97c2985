package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SimulatedPayment is an in-process payment gateway used when no real
// processor is configured. It only simulates latency and issues a transaction
// ID; the dispatcher's idempotency key prevents duplicate settlement even
// though the gateway itself keeps no state.
type SimulatedPayment struct {
	delay time.Duration
}

// PaymentOption is a functional option for SimulatedPayment configuration
type PaymentOption func(*SimulatedPayment)

// WithSettleDelay sets the simulated processor latency
func WithSettleDelay(delay time.Duration) PaymentOption {
	return func(p *SimulatedPayment) {
		p.delay = delay
	}
}

// NewSimulatedPayment creates the simulated gateway
func NewSimulatedPayment(opts ...PaymentOption) *SimulatedPayment {
	p := &SimulatedPayment{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settle refunds the amount back to the original payment method and returns
// the settlement transaction ID
func (p *SimulatedPayment) Settle(ctx context.Context, amount float64, method string) (string, error) {
	if amount <= 0 {
		return "", goerr.New("settlement amount must be positive", goerr.V("amount", amount))
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", goerr.Wrap(ctx.Err(), "settlement cancelled")
		}
	}

	transactionID := fmt.Sprintf("TXN-%s", uuid.Must(uuid.NewV7()).String())
	logging.From(ctx).Info("payment settled",
		"transaction_id", transactionID,
		"amount", amount,
		"method", method)

	return transactionID, nil
}
