// Package channel integrates with the external sales channel: fetching
// orders page by page and importing them into the local order flow.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/pkg/logger"
)

// OrderLine is one position of a channel order.
type OrderLine struct {
	SKU      string  `json:"sku"`
	Quantity float64 `json:"quantity"`
}

// Order is one order as the channel reports it.
type Order struct {
	Ref              string      `json:"ref"`
	Number           string      `json:"number"`
	Customer         string      `json:"customer"`
	Status           string      `json:"status"`
	ChannelFulfilled bool        `json:"channelFulfilled"`
	Lines            []OrderLine `json:"lines"`
}

// Page is one page of the channel order feed.
type Page struct {
	Orders  []Order `json:"orders"`
	HasMore bool    `json:"hasMore"`
}

// Client fetches orders from the sales channel.
type Client interface {
	FetchOrders(ctx context.Context, page int) (Page, error)
}

// HTTPClientConfig configures the channel HTTP client.
type HTTPClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is the initial delay, doubled per attempt
	RetryBackoff time.Duration
}

// DefaultHTTPClientConfig returns sensible defaults.
func DefaultHTTPClientConfig(baseURL, apiKey string) HTTPClientConfig {
	return HTTPClientConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Timeout:      15 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// HTTPClient is the production channel client. Transient failures are
// retried with exponential backoff to respect the channel's rate limits.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a channel client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchOrders retrieves one page of the order feed.
func (c *HTTPClient) FetchOrders(ctx context.Context, page int) (Page, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "orders")
	if err != nil {
		return Page{}, fmt.Errorf("build url: %w", err)
	}
	endpoint += "?page=" + strconv.Itoa(page)

	var lastErr error
	backoff := c.cfg.RetryBackoff
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn(ctx, "channel fetch retry",
				"page", page,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return Page{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := c.fetchPage(ctx, endpoint)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return Page{}, apperror.NewUpstream("sales channel", lastErr)
}

func (c *HTTPClient) fetchPage(ctx context.Context, endpoint string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("channel request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("channel responded with status %d", resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode page: %w", err)
	}
	return page, nil
}
