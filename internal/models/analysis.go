package models

import "time"

// ClassDistribution summarizes one asset class within the portfolio.
type ClassDistribution struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// Insights holds the generated textual observations, in the order the
// holdings and classes were processed.
type Insights struct {
	Overexposure           []string `json:"overexposure"`
	Underperformers        []string `json:"underperformers"`
	TopPerformers          []string `json:"top_performers"`
	RebalancingSuggestions []string `json:"rebalancing_suggestions"`
}

// MonthlyInvestment is one month's invested total, keyed YYYY-MM.
type MonthlyInvestment struct {
	Month    string  `json:"month"`
	Invested float64 `json:"invested"`
}

// PortfolioAnalysis is a derived, non-persisted snapshot of the current
// holding set. It is recomputed in full on each request.
type PortfolioAnalysis struct {
	TotalValue           float64                           `json:"total_value"`
	TotalCost            float64                           `json:"total_cost"`
	OverallReturn        float64                           `json:"overall_return"`
	OverallReturnPct     float64                           `json:"overall_return_pct"`
	TypeDistribution     map[AssetClass]*ClassDistribution `json:"type_distribution"`
	Insights             Insights                          `json:"insights"`
	MonthlyInvestments   []MonthlyInvestment               `json:"monthly_investments"`
	AvgMonthlyInvestment float64                           `json:"avg_monthly_investment"`
	HealthScore          int                               `json:"health_score"`
	GeneratedAt          time.Time                         `json:"generated_at"`
}

// PortfolioSnapshot records total portfolio value for one day, used for
// day-over-day portfolio change alerts.
type PortfolioSnapshot struct {
	Date      string    `json:"date" badgerhold:"key"` // YYYY-MM-DD (UTC)
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
