// Package models defines data structures for Folio
package models

import (
	"strings"
	"time"
)

// AssetClass categorizes an investment and drives price-source dispatch.
type AssetClass string

const (
	AssetClassEquity      AssetClass = "equity"
	AssetClassMutualFund  AssetClass = "mutual_fund"
	AssetClassCrypto      AssetClass = "crypto"
	AssetClassCommodity   AssetClass = "commodity"
	AssetClassFixedIncome AssetClass = "fixed_income"
	AssetClassRetirement  AssetClass = "retirement"
)

// ParseAssetClass normalizes a string to an AssetClass. Returns false for
// anything outside the closed enumeration.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch AssetClass(strings.ToLower(strings.TrimSpace(s))) {
	case AssetClassEquity:
		return AssetClassEquity, true
	case AssetClassMutualFund:
		return AssetClassMutualFund, true
	case AssetClassCrypto:
		return AssetClassCrypto, true
	case AssetClassCommodity:
		return AssetClassCommodity, true
	case AssetClassFixedIncome:
		return AssetClassFixedIncome, true
	case AssetClassRetirement:
		return AssetClassRetirement, true
	}
	return "", false
}

// Pricable returns true for asset classes that have a live price source.
// Fixed-income and retirement-scheme holdings are valued at cost.
func (a AssetClass) Pricable() bool {
	switch a {
	case AssetClassEquity, AssetClassMutualFund, AssetClassCrypto, AssetClassCommodity:
		return true
	}
	return false
}

// Holding represents one position a user owns.
type Holding struct {
	ID         string     `json:"id" badgerhold:"key"`
	Name       string     `json:"name"`
	AssetClass AssetClass `json:"asset_class"`
	Symbol     string     `json:"symbol,omitempty"` // empty means no live pricing
	Units      float64    `json:"units"`
	CostBasis  float64    `json:"cost_basis"` // per-unit purchase price
	TotalCost  float64    `json:"total_cost"`

	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
	Currency      string  `json:"currency,omitempty"`

	AcquiredAt  time.Time `json:"acquired_at"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplyPrice merges a new per-unit price into the holding, recomputing the
// valuation fields as a group. refreshedAt is recorded as LastUpdated only
// when the price came from a confirmed-fresh fetch; stale-served prices keep
// the previous timestamp so "last updated" keeps meaning "last confirmed".
func (h *Holding) ApplyPrice(price float64, currency string, refreshedAt time.Time, stale bool) {
	h.CurrentPrice = price
	h.CurrentValue = price * h.Units
	h.ProfitLoss = h.CurrentValue - h.TotalCost
	if h.TotalCost > 0 {
		h.ProfitLossPct = h.ProfitLoss / h.TotalCost * 100
	} else {
		h.ProfitLossPct = 0
	}
	if currency != "" {
		h.Currency = currency
	}
	if !stale {
		h.LastUpdated = refreshedAt
	}
}

// ReturnPct returns the holding's return percentage, 0 when TotalCost is 0.
func (h *Holding) ReturnPct() float64 {
	if h.TotalCost <= 0 {
		return 0
	}
	return (h.CurrentValue - h.TotalCost) / h.TotalCost * 100
}
