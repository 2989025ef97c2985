package gateway

import (
	"context"
	"strings"

	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SimulatedSMS logs outbound messages instead of sending them. Re-sending the
// same message is harmless, which keeps the SMS job safe under at-least-once
// delivery.
type SimulatedSMS struct{}

// NewSimulatedSMS creates the simulated SMS gateway
func NewSimulatedSMS() *SimulatedSMS {
	return &SimulatedSMS{}
}

// SendSMS delivers a notification to the customer's phone
func (s *SimulatedSMS) SendSMS(ctx context.Context, phone, text string) error {
	if phone == "" {
		return goerr.New("phone number is required")
	}

	logging.From(ctx).Info("SMS sent",
		"phone", maskPhone(phone),
		"length", len(text))
	return nil
}

// maskPhone keeps the first 3 and last 2 digits visible
func maskPhone(phone string) string {
	if len(phone) <= 5 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}
