// Package webhook delivers notifications as JSON POSTs to an HTTP endpoint,
// typically an SMS or email gateway.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gosuda/crvs/internal/messenger"
)

// Payload is the body posted for each notification.
type Payload struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type Messenger struct {
	url    string
	token  string
	client *http.Client
}

var _ messenger.Messenger = (*Messenger)(nil) //nolint:gochecknoglobals // compile-time check

// New returns a Messenger posting to url. A non-empty token is sent as a
// bearer credential.
func New(url, token string, timeout time.Duration) *Messenger {
	return &Messenger{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

func (m *Messenger) SendNotification(ctx context.Context, userExternalID, text string) error {
	body, err := json.Marshal(Payload{Recipient: userExternalID, Text: text})
	if err != nil {
		return fmt.Errorf("webhook.Messenger.SendNotification: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook.Messenger.SendNotification: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook.Messenger.SendNotification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook.Messenger.SendNotification: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (m *Messenger) Platform() string {
	return "webhook"
}
