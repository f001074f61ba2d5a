package pricing

import (
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// cacheEntry pairs a quote with its fetch time. Entries are replaced whole,
// never mutated field by field, so concurrent writers to the same key can
// only race to last-writer-wins, never to a torn entry.
type cacheEntry struct {
	quote     models.PriceQuote
	fetchedAt time.Time
}

// SymbolCache is a per-symbol quote cache with a fixed freshness window.
// Safe for concurrent use.
type SymbolCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewSymbolCache creates a cache whose entries stay fresh for ttl.
func NewSymbolCache(ttl time.Duration) *SymbolCache {
	return &SymbolCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetFresh returns the cached quote for key if it is within the freshness
// window.
func (c *SymbolCache) GetFresh(key string) (*models.PriceQuote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	quote := entry.quote
	return &quote, true
}

// GetAny returns the cached quote for key regardless of age. Used only as a
// fallback when a fresh fetch fails.
func (c *SymbolCache) GetAny(key string) (*models.PriceQuote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	quote := entry.quote
	return &quote, true
}

// Put stores a quote under key, replacing any previous entry.
func (c *SymbolCache) Put(key string, quote *models.PriceQuote) {
	entry := &cacheEntry{quote: *quote, fetchedAt: quote.FetchedAt}
	if entry.fetchedAt.IsZero() {
		entry.fetchedAt = c.now()
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *SymbolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CatalogCache caches the full mutual fund code→NAV catalog. One fetch
// populates every entry; freshness applies to the catalog as a whole.
type CatalogCache struct {
	mu        sync.RWMutex
	catalog   map[string]*models.PriceQuote
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewCatalogCache creates a catalog cache whose contents stay fresh for ttl.
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Fresh returns true when the catalog has been fetched within the window.
func (c *CatalogCache) Fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl
}

// Lookup returns the cached quote for a scheme code, fresh or not, along
// with whether the catalog holds any data at all.
func (c *CatalogCache) Lookup(code string) (*models.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.catalog == nil {
		return nil, false
	}
	quote, ok := c.catalog[code]
	if !ok {
		return nil, false
	}
	cp := *quote
	return &cp, true
}

// Populated returns true once a catalog has been stored.
func (c *CatalogCache) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog != nil
}

// Replace swaps in a freshly fetched catalog.
func (c *CatalogCache) Replace(catalog map[string]*models.PriceQuote) {
	c.mu.Lock()
	c.catalog = catalog
	c.fetchedAt = c.now()
	c.mu.Unlock()
}

// Len returns the number of schemes in the catalog.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.catalog)
}
