// Package coingecko provides a cryptocurrency price client backed by the
// CoinGecko simple-price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

const (
	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultTimeout    = 10 * time.Second
	DefaultRateLimit  = 5 // requests per second
	DefaultVsCurrency = "inr"
)

// Client implements the PriceSource interface for cryptocurrencies.
type Client struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithVsCurrency sets the quote currency
func WithVsCurrency(currency string) ClientOption {
	return func(c *Client) {
		c.vsCurrency = strings.ToLower(currency)
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new CoinGecko client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		vsCurrency: DefaultVsCurrency,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchPrice retrieves the current price for a coin id. Coin ids are
// lower-cased before lookup. HTTP 429 maps to RateLimited, an empty
// well-formed response to NotFound, everything else to UpstreamFailure.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	coinID := strings.ToLower(strings.TrimSpace(symbol))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, coinID, "rate limit wait", err)
	}

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", c.vsCurrency)

	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, coinID, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("coin", coinID).Msg("CoinGecko price request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, coinID, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, pricing.NewError(pricing.KindRateLimited, coinID, "CoinGecko rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, pricing.NewError(pricing.KindNotFound, coinID, "coin id not recognized", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, pricing.NewError(pricing.KindUpstreamFailure, coinID,
			fmt.Sprintf("CoinGecko returned status %d", resp.StatusCode), nil)
	}

	// Response shape: {"bitcoin": {"inr": 5000000}}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pricing.NewError(pricing.KindMalformedData, coinID, "failed to decode price response", err)
	}

	prices, ok := payload[coinID]
	if !ok {
		return nil, pricing.NewError(pricing.KindNotFound, coinID, "coin id not recognized", nil)
	}

	price, ok := prices[c.vsCurrency]
	if !ok || price <= 0 {
		return nil, pricing.NewError(pricing.KindNotFound, coinID,
			fmt.Sprintf("no %s price for coin", c.vsCurrency), nil)
	}

	return &models.PriceQuote{
		Symbol:     coinID,
		AssetClass: models.AssetClassCrypto,
		Price:      price,
		Currency:   strings.ToUpper(c.vsCurrency),
		FetchedAt:  time.Now(),
	}, nil
}

// Ensure Client implements PriceSource
var _ interfaces.PriceSource = (*Client)(nil)
