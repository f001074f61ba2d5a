// Package goldapi provides a commodity price client backed by goldapi.io.
// The endpoint takes no symbol; it always quotes gold (XAU) in INR.
package goldapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

const (
	DefaultBaseURL = "https://www.goldapi.io/api"
	DefaultTimeout = 10 * time.Second
)

// Client implements the PriceSource interface for gold.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new goldapi.io client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// goldResponse is the slice of the goldapi.io payload we consume.
type goldResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Metal    string  `json:"metal"`
}

// FetchPrice retrieves the current gold price. The symbol parameter is
// ignored; the upstream has a single instrument.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	reqURL := fmt.Sprintf("%s/XAU/INR", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "XAU", "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-access-token", c.apiKey)

	c.logger.Debug().Msg("Gold price request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "XAU", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, pricing.NewError(pricing.KindRateLimited, "XAU", "gold API rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "XAU",
			fmt.Sprintf("gold API returned status %d", resp.StatusCode), nil)
	}

	var payload goldResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pricing.NewError(pricing.KindMalformedData, "XAU", "failed to decode gold response", err)
	}

	if payload.Price <= 0 {
		return nil, pricing.NewError(pricing.KindMalformedData, "XAU", "gold response missing price", nil)
	}

	currency := payload.Currency
	if currency == "" {
		currency = "INR"
	}

	return &models.PriceQuote{
		Symbol:     "XAU",
		AssetClass: models.AssetClassCommodity,
		Price:      payload.Price,
		Name:       "Gold",
		Currency:   currency,
		FetchedAt:  time.Now(),
	}, nil
}

// Ensure Client implements PriceSource
var _ interfaces.PriceSource = (*Client)(nil)
