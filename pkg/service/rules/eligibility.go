package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultDeadlineDays is the refund window counted from order creation
const DefaultDeadlineDays = 7

// Checker applies the hard-coded refund eligibility rules. It runs before a
// case enters the approval pipeline; an ineligible order never creates a
// case. Rules only, no LLM involvement.
type Checker struct {
	cases                   interfaces.CaseRepository
	deadlineDays            int
	nonRefundableCategories []string
	now                     func() time.Time
}

// Option is a functional option for Checker configuration
type Option func(*Checker)

// WithDeadlineDays overrides the refund window
func WithDeadlineDays(days int) Option {
	return func(c *Checker) {
		c.deadlineDays = days
	}
}

// WithNonRefundableCategories overrides the blocked item categories
func WithNonRefundableCategories(categories []string) Option {
	return func(c *Checker) {
		c.nonRefundableCategories = categories
	}
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker creates an eligibility checker. The case repository is consulted
// to reject orders that already have an open case in review.
func NewChecker(cases interfaces.CaseRepository, opts ...Option) *Checker {
	c := &Checker{
		cases:        cases,
		deadlineDays: DefaultDeadlineDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether the order may enter the refund pipeline, with a
// human-readable reason on rejection. The error return is for storage
// failures only.
func (c *Checker) Check(ctx context.Context, order *model.Order) (bool, string, error) {
	if !order.Status.Refundable() {
		return false, fmt.Sprintf("order status is %s; only shipped or delivered orders can be refunded",
			order.Status), nil
	}

	if ok, reason := c.checkDeadline(order); !ok {
		return false, reason, nil
	}

	if ok, reason := c.checkCategories(order); !ok {
		return false, reason, nil
	}

	open, err := c.hasOpenCase(ctx, order.ID)
	if err != nil {
		return false, "", goerr.Wrap(err, "failed to check open cases", goerr.V("order_id", order.ID))
	}
	if open {
		return false, "a refund request for this order is already under review", nil
	}

	return true, "order is eligible for refund", nil
}

func (c *Checker) checkDeadline(order *model.Order) (bool, string) {
	daysPassed := int(c.now().Sub(order.CreatedAt).Hours() / 24)
	if daysPassed > c.deadlineDays {
		return false, fmt.Sprintf("refund window of %d days has passed (%d days since order)",
			c.deadlineDays, daysPassed)
	}
	return true, ""
}

func (c *Checker) checkCategories(order *model.Order) (bool, string) {
	for _, item := range order.Items {
		for _, blocked := range c.nonRefundableCategories {
			if strings.EqualFold(item.Category, blocked) {
				return false, fmt.Sprintf("item %q is in non-refundable category %q",
					item.Name, blocked)
			}
		}
	}
	return true, ""
}

func (c *Checker) hasOpenCase(ctx context.Context, orderID string) (bool, error) {
	pending, err := c.cases.ListPending(ctx)
	if err != nil {
		return false, err
	}
	for _, pendingCase := range pending {
		if pendingCase.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}
