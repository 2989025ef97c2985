package types

import "fmt"

// RiskTier represents the risk classification of a refund case
type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// AllRiskTiers returns all valid risk tiers, lowest first
func AllRiskTiers() []RiskTier {
	return []RiskTier{
		RiskTierLow,
		RiskTierMedium,
		RiskTierHigh,
	}
}

// IsValid checks if the risk tier is valid
func (t RiskTier) IsValid() bool {
	switch t {
	case RiskTierLow,
		RiskTierMedium,
		RiskTierHigh:
		return true
	default:
		return false
	}
}

// Rank returns an ordering value for monotonicity comparisons (LOW < MEDIUM < HIGH)
func (t RiskTier) Rank() int {
	switch t {
	case RiskTierLow:
		return 0
	case RiskTierMedium:
		return 1
	case RiskTierHigh:
		return 2
	default:
		return -1
	}
}

// RequiresReview reports whether a case of this tier must wait for a human decision
func (t RiskTier) RequiresReview() bool {
	return t == RiskTierMedium || t == RiskTierHigh
}

// String returns the string representation of the risk tier
func (t RiskTier) String() string {
	return string(t)
}

// ParseRiskTier parses a string into a RiskTier
func ParseRiskTier(s string) (RiskTier, error) {
	tier := RiskTier(s)
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid risk tier: %s", s)
	}
	return tier, nil
}
