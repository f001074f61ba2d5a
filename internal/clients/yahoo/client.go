// Package yahoo provides an equity quote client backed by the Yahoo Finance
// quote API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout = 10 * time.Second
)

// Client implements the PriceSource interface for equities.
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance quote client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// quoteResponse is the narrow slice of the Yahoo quote payload we consume.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			DisplayName        string  `json:"displayName"`
			ShortName          string  `json:"shortName"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Currency           string  `json:"currency"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// FetchPrice retrieves the current quote for a ticker. A well-formed empty
// result is NotFound; network errors, timeouts, and 5xx are UpstreamFailure.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	params := url.Values{}
	params.Set("symbols", symbol)

	reqURL := fmt.Sprintf("%s/v7/finance/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, symbol, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	c.logger.Debug().Str("ticker", symbol).Msg("Yahoo quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, symbol, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pricing.NewError(pricing.KindNotFound, symbol, "ticker not recognized", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, pricing.NewError(pricing.KindRateLimited, symbol, "quote API rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, pricing.NewError(pricing.KindUpstreamFailure, symbol,
			fmt.Sprintf("quote API returned status %d", resp.StatusCode), nil)
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pricing.NewError(pricing.KindMalformedData, symbol, "failed to decode quote response", err)
	}

	if payload.QuoteResponse.Error != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, symbol, payload.QuoteResponse.Error.Description, nil)
	}

	if len(payload.QuoteResponse.Result) == 0 {
		return nil, pricing.NewError(pricing.KindNotFound, symbol, "no quote data for ticker", nil)
	}

	result := payload.QuoteResponse.Result[0]
	if result.RegularMarketPrice <= 0 {
		return nil, pricing.NewError(pricing.KindNotFound, symbol, "no market price for ticker", nil)
	}

	name := result.DisplayName
	if name == "" {
		name = result.ShortName
	}

	return &models.PriceQuote{
		Symbol:     symbol,
		AssetClass: models.AssetClassEquity,
		Price:      result.RegularMarketPrice,
		Name:       name,
		Currency:   result.Currency,
		FetchedAt:  time.Now(),
	}, nil
}

// Ensure Client implements PriceSource
var _ interfaces.PriceSource = (*Client)(nil)
