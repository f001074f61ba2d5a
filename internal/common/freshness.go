// Package common provides shared utilities for Folio
package common

import "time"

// Freshness TTLs for data components
const (
	FreshnessCryptoQuote = 1 * time.Minute
	FreshnessEquityQuote = 15 * time.Minute
	FreshnessGoldQuote   = 15 * time.Minute
	FreshnessNAVCatalog  = 6 * time.Hour
)
