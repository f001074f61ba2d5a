package models

import "time"

// AlertKind identifies what triggered an alert.
type AlertKind string

const (
	AlertKindPriceChange   AlertKind = "price_change"
	AlertKindTargetReached AlertKind = "target_reached"
	AlertKindStopLoss      AlertKind = "stop_loss"
	AlertKindPortfolio     AlertKind = "portfolio_change"
)

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a notification about a significant value change. Alerts are
// append-only from the pipeline's perspective; marking read is the only
// mutation path.
type Alert struct {
	ID        string        `json:"id" badgerhold:"key"`
	HoldingID string        `json:"holding_id,omitempty"`
	Kind      AlertKind     `json:"kind"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	ChangePct float64       `json:"change_pct"`
	CreatedAt time.Time     `json:"created_at"`
	Read      bool          `json:"read"`
}
