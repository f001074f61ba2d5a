package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// PriceGateway dispatches an (asset class, symbol) pair to the correct price
// source, applying caching and the uniform error taxonomy.
type PriceGateway interface {
	// Resolve returns the current quote for a symbol. Failures carry a
	// machine-distinguishable pricing.ErrorKind.
	Resolve(ctx context.Context, assetClass models.AssetClass, symbol string) (*models.PriceQuote, error)
}

// RefreshService runs price refreshes across all persisted holdings.
type RefreshService interface {
	// RefreshAll refreshes every holding with a symbol, isolating per-holding
	// failures, and returns the aggregated run result.
	RefreshAll(ctx context.Context) (*models.RefreshResult, error)

	// SnapshotAndNotify records today's total portfolio value and raises a
	// portfolio-level alert on a significant day-over-day change.
	SnapshotAndNotify(ctx context.Context) error
}

// AnalysisService computes derived portfolio metrics.
type AnalysisService interface {
	// Analyze recomputes the full portfolio analysis from current holdings.
	Analyze(ctx context.Context) (*models.PortfolioAnalysis, error)
}

// AlertService evaluates price deltas and manages the alert read model.
type AlertService interface {
	// EvaluatePriceChange creates and persists an alert when the move between
	// previousPrice and newPrice crosses the threshold. Returns nil when no
	// alert is warranted.
	EvaluatePriceChange(ctx context.Context, holdingID, name string, previousPrice, newPrice float64) (*models.Alert, error)

	// EvaluatePortfolioChange creates a portfolio-level alert when the
	// day-over-day total value change crosses the threshold.
	EvaluatePortfolioChange(ctx context.Context, previousValue, newValue float64, asOf time.Time) (*models.Alert, error)

	// ListAlerts returns alerts, optionally unread only, newest first.
	ListAlerts(ctx context.Context, unreadOnly bool) ([]*models.Alert, error)

	// MarkRead flags one alert as read. Fails when the id is unknown.
	MarkRead(ctx context.Context, id string) (*models.Alert, error)
}
