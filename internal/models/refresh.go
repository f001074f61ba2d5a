package models

import "time"

// RefreshStatus classifies the outcome of one holding within a refresh run.
type RefreshStatus string

const (
	RefreshUpdated RefreshStatus = "updated"
	RefreshSkipped RefreshStatus = "skipped" // no symbol, not an error
	RefreshFailed  RefreshStatus = "failed"
)

// RefreshOutcome records what happened to one holding during a refresh run.
type RefreshOutcome struct {
	HoldingID string        `json:"holding_id"`
	Name      string        `json:"name"`
	Status    RefreshStatus `json:"status"`
	Stale     bool          `json:"stale,omitempty"` // priced from an expired cache entry
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// RefreshResult aggregates a whole refresh run. One bad symbol never aborts
// the rest; failures are recorded here alongside the successes.
type RefreshResult struct {
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Updated     int              `json:"updated"`
	Skipped     int              `json:"skipped"`
	Failed      int              `json:"failed"`
	Outcomes    []RefreshOutcome `json:"outcomes"`
}
