package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ExternalEntry is the wire shape of one movement in the upstream system.
type ExternalEntry struct {
	Ref         string    `json:"ref"`
	ProjectID   int64     `json:"project_id"`
	Kind        EntryKind `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ExternalClient fetches movements from the external financial system.
type ExternalClient interface {
	EntriesSince(ctx context.Context, since time.Time) ([]ExternalEntry, error)
}

// Client talks to the external financial system over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type entriesResponse struct {
	Entries []ExternalEntry `json:"entries"`
}

// EntriesSince returns movements recorded after the given instant.
func (c *Client) EntriesSince(ctx context.Context, since time.Time) ([]ExternalEntry, error) {
	endpoint := fmt.Sprintf("%s/entries", c.baseURL)
	if !since.IsZero() {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("financial system returned status %d", resp.StatusCode)
	}

	var payload entriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return payload.Entries, nil
}
