// Package amfi provides a mutual fund NAV client backed by the AMFI India
// bulk NAV listing. There is no per-scheme query upstream; the whole catalog
// is downloaded and indexed by scheme code.
package amfi

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

const (
	DefaultBaseURL = "https://www.amfiindia.com"
	DefaultTimeout = 15 * time.Second

	catalogPath = "/spages/NAVAll.txt"
)

// Client implements the NAVCatalogSource interface.
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

// NewClient creates a new AMFI NAV catalog client
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

// FetchCatalog downloads and parses the full NAV listing. Malformed rows are
// skipped; an entirely unparseable response is MalformedUpstreamData.
func (c *Client) FetchCatalog(ctx context.Context) (map[string]*models.PriceQuote, error) {
	reqURL := c.baseURL + catalogPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "", "failed to create request", err)
	}
	req.Header.Set("Accept", "text/plain")

	c.logger.Debug().Str("url", reqURL).Msg("AMFI catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "",
			fmt.Sprintf("AMFI returned status %d", resp.StatusCode), nil)
	}

	fetchedAt := time.Now()
	catalog := make(map[string]*models.PriceQuote)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		quote, ok := parseCatalogLine(scanner.Text(), fetchedAt)
		if !ok {
			continue
		}
		catalog[quote.Symbol] = quote
	}
	if err := scanner.Err(); err != nil {
		return nil, pricing.NewError(pricing.KindUpstreamFailure, "", "failed to read catalog", err)
	}

	if len(catalog) == 0 {
		return nil, pricing.NewError(pricing.KindMalformedData, "", "catalog contained no parseable schemes", nil)
	}

	c.logger.Debug().Int("schemes", len(catalog)).Msg("AMFI catalog parsed")

	return catalog, nil
}

// parseCatalogLine parses one semicolon-delimited row:
// "scheme code;ISIN growth;ISIN reinvestment;scheme name;NAV;date".
// Header, section, and malformed rows return ok=false and are skipped.
func parseCatalogLine(line string, fetchedAt time.Time) (*models.PriceQuote, bool) {
	parts := strings.Split(line, ";")
	if len(parts) < 5 {
		return nil, false
	}

	code := strings.TrimSpace(parts[0])
	if code == "" {
		return nil, false
	}

	nav, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil {
		return nil, false
	}

	return &models.PriceQuote{
		Symbol:     code,
		AssetClass: models.AssetClassMutualFund,
		Price:      nav,
		Name:       strings.TrimSpace(parts[3]),
		Currency:   "INR",
		FetchedAt:  fetchedAt,
	}, true
}

// Ensure Client implements NAVCatalogSource
var _ interfaces.NAVCatalogSource = (*Client)(nil)
