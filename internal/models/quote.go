package models

import "time"

// PriceQuote is the normalized result of a price-source lookup. It is
// transient: consumed immediately to update a Holding, never persisted
// on its own.
type PriceQuote struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Price      float64    `json:"price"`
	Name       string     `json:"name,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	FetchedAt  time.Time  `json:"last_updated"`

	// Stale marks a quote served from an expired cache entry after a failed
	// upstream fetch. Callers use it to decide whether the holding's
	// last-updated timestamp should advance.
	Stale bool `json:"stale,omitempty"`
}
