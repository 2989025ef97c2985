package gateway

import (
	"context"
	"fmt"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// SlackAlerter posts operational incidents to a Slack channel. Used for jobs
// that exhausted their retries and need a human.
type SlackAlerter struct {
	api       *slack.Client
	channelID string
}

// NewSlackAlerter creates a Slack alerter with the provided bot token
func NewSlackAlerter(token, channelID string) (*SlackAlerter, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &SlackAlerter{
		api:       slack.New(token),
		channelID: channelID,
	}, nil
}

// Alert posts the incident with its details as attachment fields
func (a *SlackAlerter) Alert(ctx context.Context, title string, details map[string]any) error {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]slack.AttachmentField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, slack.AttachmentField{
			Title: k,
			Value: fmt.Sprintf("%v", details[k]),
			Short: true,
		})
	}

	attachment := slack.Attachment{
		Color:  "danger",
		Fields: fields,
	}

	if _, _, err := a.api.PostMessageContext(ctx, a.channelID,
		slack.MsgOptionText(":rotating_light: "+title, false),
		slack.MsgOptionAttachments(attachment),
	); err != nil {
		return goerr.Wrap(err, "failed to post alert to Slack",
			goerr.V("channel_id", a.channelID), goerr.V("title", title))
	}

	return nil
}
