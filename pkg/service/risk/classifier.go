package risk

import (
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Default thresholds in the shop currency
const (
	DefaultMediumThreshold = 500.0
	DefaultHighThreshold   = 2000.0
)

// Classifier maps a refund amount to a risk tier. Pure and total: no side
// effects, no failure modes.
type Classifier struct {
	mediumThreshold float64
	highThreshold   float64
}

// NewClassifier validates the thresholds and returns a classifier
func NewClassifier(mediumThreshold, highThreshold float64) (*Classifier, error) {
	if mediumThreshold <= 0 {
		return nil, goerr.New("medium threshold must be positive",
			goerr.V("medium", mediumThreshold))
	}
	if highThreshold <= mediumThreshold {
		return nil, goerr.New("high threshold must exceed medium threshold",
			goerr.V("medium", mediumThreshold),
			goerr.V("high", highThreshold))
	}
	return &Classifier{
		mediumThreshold: mediumThreshold,
		highThreshold:   highThreshold,
	}, nil
}

// Classify returns the risk tier for a refund amount. The boundary value is
// "at risk": comparisons are >=, so an amount equal to a threshold lands in
// the higher tier.
func (c *Classifier) Classify(amount float64) types.RiskTier {
	switch {
	case amount >= c.highThreshold:
		return types.RiskTierHigh
	case amount >= c.mediumThreshold:
		return types.RiskTierMedium
	default:
		return types.RiskTierLow
	}
}
