package config

import (
	"github.com/ledgerline/refundgate/pkg/service/risk"
	"github.com/urfave/cli/v3"
)

// Risk holds CLI flags for the risk classifier thresholds
type Risk struct {
	mediumThreshold float64
	highThreshold   float64
}

// Flags returns CLI flags for risk configuration
func (r *Risk) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "risk-medium-threshold",
			Usage:       "Refund amount at which a case becomes medium risk and requires review",
			Value:       risk.DefaultMediumThreshold,
			Sources:     cli.EnvVars("REFUNDGATE_RISK_MEDIUM_THRESHOLD"),
			Destination: &r.mediumThreshold,
		},
		&cli.FloatFlag{
			Name:        "risk-high-threshold",
			Usage:       "Refund amount at which a case becomes high risk",
			Value:       risk.DefaultHighThreshold,
			Sources:     cli.EnvVars("REFUNDGATE_RISK_HIGH_THRESHOLD"),
			Destination: &r.highThreshold,
		},
	}
}

// Configure validates the thresholds and builds the classifier
func (r *Risk) Configure() (*risk.Classifier, error) {
	return risk.NewClassifier(r.mediumThreshold, r.highThreshold)
}
