package config

import (
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/service/gateway"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for operational alerting via Slack
type Slack struct {
	botToken  string
	channelID string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack bot token for operational alerts",
			Sources:     cli.EnvVars("REFUNDGATE_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-alert-channel",
			Usage:       "Slack channel ID receiving failed-job alerts",
			Sources:     cli.EnvVars("REFUNDGATE_SLACK_ALERT_CHANNEL"),
			Destination: &s.channelID,
		},
	}
}

// IsConfigured reports whether both the token and the channel are set
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channelID != ""
}

// Configure builds the Slack alerter, or nil when not configured. Without an
// alerter, exhausted jobs are still logged and kept as FAILED records.
func (s *Slack) Configure() (interfaces.Alerter, error) {
	if !s.IsConfigured() {
		return nil, nil
	}
	return gateway.NewSlackAlerter(s.botToken, s.channelID)
}
