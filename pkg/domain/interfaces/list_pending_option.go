package interfaces

import "github.com/ledgerline/refundgate/pkg/domain/types"

// ListPendingOption is a functional option for filtering the pending queue
type ListPendingOption func(*listPendingConfig)

type listPendingConfig struct {
	riskTier *types.RiskTier
	limit    int
}

// WithRiskTier filters pending cases by risk tier
func WithRiskTier(tier types.RiskTier) ListPendingOption {
	return func(c *listPendingConfig) {
		c.riskTier = &tier
	}
}

// WithLimit caps the number of returned cases (0 means no cap)
func WithLimit(limit int) ListPendingOption {
	return func(c *listPendingConfig) {
		c.limit = limit
	}
}

// BuildListPendingConfig builds a listPendingConfig from options
func BuildListPendingConfig(opts ...ListPendingOption) *listPendingConfig {
	cfg := &listPendingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// RiskTier returns the risk tier filter value, or nil if not set
func (c *listPendingConfig) RiskTier() *types.RiskTier {
	return c.riskTier
}

// Limit returns the result cap, or 0 if not set
func (c *listPendingConfig) Limit() int {
	return c.limit
}
