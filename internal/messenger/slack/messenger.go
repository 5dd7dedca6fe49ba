package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/crvs/internal/messenger"
)

// SlackAPI abstracts the subset of the Slack client used by SlackMessenger.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackMessenger implements messenger.Messenger for Slack.
type SlackMessenger struct {
	api    SlackAPI
	footer string
}

// Compile-time interface check.
var _ messenger.Messenger = (*SlackMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackMessenger creates a SlackMessenger with the given API client.
func NewSlackMessenger(api SlackAPI) *SlackMessenger {
	return &SlackMessenger{api: api}
}

// WithFooter sets a context line appended to every notification.
func (m *SlackMessenger) WithFooter(footer string) *SlackMessenger {
	m.footer = footer
	return m
}

// SendNotification posts a direct message to a Slack user. Posting to a user
// ID opens the app's DM channel with that user.
func (m *SlackMessenger) SendNotification(ctx context.Context, userExternalID, text string) error {
	_, _, err := m.api.PostMessageContext(ctx, userExternalID,
		slacklib.MsgOptionText(text, false),
		slacklib.MsgOptionBlocks(BuildNotificationBlocks(text, m.footer)...),
	)
	if err != nil {
		return fmt.Errorf("slack.SlackMessenger.SendNotification: %w", err)
	}

	return nil
}

// Platform returns the messenger platform identifier.
func (m *SlackMessenger) Platform() string {
	return "slack"
}
