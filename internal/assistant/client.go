package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Prompt is one question forwarded to the assistant backend.
type Prompt struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// WebhookClient posts prompts to the configured assistant backend.
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

// NewWebhookClient constructs a webhook client.
func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send delivers a prompt to the assistant backend.
func (c *WebhookClient) Send(ctx context.Context, p Prompt) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("assistant backend returned status %d", resp.StatusCode)
	}
	return nil
}
