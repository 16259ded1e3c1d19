package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Candidate is one geocoding suggestion for a free-text address query.
type Candidate struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves free-text address queries into candidates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

const cacheTTL = 24 * time.Hour

// Client queries a Nominatim-compatible geocoding API. Results are cached in
// Redis and upstream calls are rate limited to stay within the public API's
// usage policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	redis      *redis.Client
}

// NewClient constructs a geocoding client.
func NewClient(baseURL string, redisClient *redis.Client) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		redis:   redisClient,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search resolves a query, serving from cache when possible.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := "geocode:" + strings.ToLower(query)
	if cached, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var candidates []Candidate
		if err := json.Unmarshal(cached, &candidates); err == nil {
			return candidates, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limit: %w", err)
	}

	endpoint := fmt.Sprintf("%s/search?format=json&limit=5&q=%s", c.baseURL, url.QueryEscape(query))
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
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, Candidate{Label: r.DisplayName, Latitude: lat, Longitude: lon})
	}

	if payload, err := json.Marshal(candidates); err == nil {
		_ = c.redis.Set(ctx, key, payload, cacheTTL).Err()
	}
	return candidates, nil
}
