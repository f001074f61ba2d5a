package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	// goldKey is the fixed cache key for the symbol-less commodity source.
	goldKey = "XAU"

	// maxFetchAttempts bounds retries of upstream failures before falling
	// back to the cache.
	maxFetchAttempts = 3

	// retryDelay is the base backoff between attempts, scaled linearly.
	retryDelay = time.Second
)

// Gateway routes (asset class, symbol) pairs to the correct price source and
// cache pair. Adapter-level error kinds propagate unchanged.
type Gateway struct {
	equity interfaces.PriceSource
	crypto interfaces.PriceSource
	gold   interfaces.PriceSource
	nav    interfaces.NAVCatalogSource

	equityCache *SymbolCache
	cryptoCache *SymbolCache
	goldCache   *SymbolCache
	catalog     *CatalogCache

	logger *common.Logger

	// sleep is injectable for testing retry backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures the gateway.
type GatewayOption func(*Gateway)

// WithCacheTTLs overrides the per-source freshness windows.
func WithCacheTTLs(equity, crypto, gold, catalog time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.equityCache = NewSymbolCache(equity)
		g.cryptoCache = NewSymbolCache(crypto)
		g.goldCache = NewSymbolCache(gold)
		g.catalog = NewCatalogCache(catalog)
	}
}

// NewGateway creates a price resolution gateway. Any source may be nil, in
// which case its asset class resolves to an UnsupportedAssetClass error.
func NewGateway(
	equity interfaces.PriceSource,
	crypto interfaces.PriceSource,
	gold interfaces.PriceSource,
	nav interfaces.NAVCatalogSource,
	logger *common.Logger,
	opts ...GatewayOption,
) *Gateway {
	g := &Gateway{
		equity:      equity,
		crypto:      crypto,
		gold:        gold,
		nav:         nav,
		equityCache: NewSymbolCache(common.FreshnessEquityQuote),
		cryptoCache: NewSymbolCache(common.FreshnessCryptoQuote),
		goldCache:   NewSymbolCache(common.FreshnessGoldQuote),
		catalog:     NewCatalogCache(common.FreshnessNAVCatalog),
		logger:      logger,
		sleep:       sleepCtx,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Resolve returns the current quote for symbol under the given asset class.
func (g *Gateway) Resolve(ctx context.Context, assetClass models.AssetClass, symbol string) (*models.PriceQuote, error) {
	if assetClass == "" {
		return nil, NewError(KindMissingParameter, symbol, "asset class is required", nil)
	}

	class, ok := models.ParseAssetClass(string(assetClass))
	if !ok {
		return nil, NewError(KindUnsupportedAssetClass, symbol,
			"unsupported asset class: "+string(assetClass), nil)
	}

	switch class {
	case models.AssetClassEquity:
		if g.equity == nil {
			return nil, NewError(KindUnsupportedAssetClass, symbol, "equity price source not configured", nil)
		}
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			return nil, NewError(KindMissingParameter, "", "symbol is required for equity lookups", nil)
		}
		return g.resolveSymbol(ctx, g.equity, g.equityCache, strings.ToUpper(symbol))

	case models.AssetClassCrypto:
		if g.crypto == nil {
			return nil, NewError(KindUnsupportedAssetClass, symbol, "crypto price source not configured", nil)
		}
		// Coin ids are lower-cased before lookup and before caching.
		coinID := strings.ToLower(strings.TrimSpace(symbol))
		if coinID == "" {
			return nil, NewError(KindMissingParameter, "", "coin id is required for crypto lookups", nil)
		}
		return g.resolveSymbol(ctx, g.crypto, g.cryptoCache, coinID)

	case models.AssetClassCommodity:
		if g.gold == nil {
			return nil, NewError(KindUnsupportedAssetClass, symbol, "commodity price source not configured", nil)
		}
		// The gold endpoint takes no symbol.
		return g.resolveSymbol(ctx, g.gold, g.goldCache, goldKey)

	case models.AssetClassMutualFund:
		if g.nav == nil {
			return nil, NewError(KindUnsupportedAssetClass, symbol, "mutual fund price source not configured", nil)
		}
		code := strings.TrimSpace(symbol)
		if code == "" {
			return nil, NewError(KindMissingParameter, "", "scheme code is required for mutual fund lookups", nil)
		}
		return g.resolveNAV(ctx, code)

	default:
		// fixed_income and retirement holdings are valued at cost; there is
		// no live source to dispatch to.
		return nil, NewError(KindUnsupportedAssetClass, symbol,
			"no price source for asset class "+string(class), nil)
	}
}

// resolveSymbol applies the uniform cache policy: fresh hit short-circuits
// the upstream; on fetch failure any existing entry (even stale) is served,
// marked stale; otherwise the failure propagates with its original kind.
func (g *Gateway) resolveSymbol(ctx context.Context, source interfaces.PriceSource, cache *SymbolCache, key string) (*models.PriceQuote, error) {
	if quote, ok := cache.GetFresh(key); ok {
		g.logger.Debug().Str("symbol", key).Msg("Price cache hit")
		return quote, nil
	}

	quote, err := g.fetchWithRetry(ctx, source, key)
	if err == nil {
		cache.Put(key, quote)
		return quote, nil
	}

	if KindOf(err).CacheFallback() {
		if stale, ok := cache.GetAny(key); ok {
			g.logger.Warn().
				Str("symbol", key).
				Str("kind", string(KindOf(err))).
				Time("cached_at", stale.FetchedAt).
				Msg("Serving stale cached price after fetch failure")
			stale.Stale = true
			return stale, nil
		}
	}

	return nil, err
}

// fetchWithRetry calls the source, retrying upstream failures with linear
// backoff up to maxFetchAttempts. RateLimited and NotFound are never
// retried; rate limits go straight to cache fallback.
func (g *Gateway) fetchWithRetry(ctx context.Context, source interfaces.PriceSource, key string) (*models.PriceQuote, error) {
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		quote, err := source.FetchPrice(ctx, key)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		if !KindOf(err).Retryable() {
			return nil, err
		}
		if attempt == maxFetchAttempts {
			break
		}

		g.logger.Debug().
			Str("symbol", key).
			Int("attempt", attempt).
			Err(err).
			Msg("Retrying price fetch")

		if err := g.sleep(ctx, retryDelay*time.Duration(attempt)); err != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// resolveNAV serves mutual fund lookups from the full-catalog cache,
// refetching the whole catalog when it goes stale.
func (g *Gateway) resolveNAV(ctx context.Context, code string) (*models.PriceQuote, error) {
	if g.catalog.Fresh() {
		if quote, ok := g.catalog.Lookup(code); ok {
			return quote, nil
		}
		// Fresh catalog without the code means the scheme doesn't exist.
		return nil, NewError(KindNotFound, code, "scheme code not found in NAV catalog", nil)
	}

	catalog, err := g.fetchCatalogWithRetry(ctx)
	if err == nil {
		g.catalog.Replace(catalog)
		if quote, ok := g.catalog.Lookup(code); ok {
			return quote, nil
		}
		return nil, NewError(KindNotFound, code, "scheme code not found in NAV catalog", nil)
	}

	if KindOf(err).CacheFallback() && g.catalog.Populated() {
		if stale, ok := g.catalog.Lookup(code); ok {
			g.logger.Warn().
				Str("scheme", code).
				Str("kind", string(KindOf(err))).
				Msg("Serving stale NAV after catalog fetch failure")
			stale.Stale = true
			return stale, nil
		}
	}

	return nil, err
}

func (g *Gateway) fetchCatalogWithRetry(ctx context.Context) (map[string]*models.PriceQuote, error) {
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		catalog, err := g.nav.FetchCatalog(ctx)
		if err == nil {
			return catalog, nil
		}
		lastErr = err

		if !KindOf(err).Retryable() {
			return nil, err
		}
		if attempt == maxFetchAttempts {
			break
		}

		if err := g.sleep(ctx, retryDelay*time.Duration(attempt)); err != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// Ensure Gateway implements PriceGateway
var _ interfaces.PriceGateway = (*Gateway)(nil)
