package messenger

import "context"

// Messenger delivers direct notifications to practitioners on one platform.
type Messenger interface {
	// SendNotification sends text to a user by their external platform ID
	// (a Slack user ID, a webhook URL suffix).
	SendNotification(ctx context.Context, userExternalID, text string) error

	// Platform returns the messenger platform identifier (e.g. "slack", "webhook").
	Platform() string
}
