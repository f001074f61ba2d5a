// Package alert evaluates price deltas against notification thresholds and
// manages the alert read model.
package alert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	// AlertThresholdPct is the minimum absolute percentage move that raises
	// an alert.
	AlertThresholdPct = 5.0

	// CriticalThresholdPct is the absolute percentage move at which an alert
	// escalates from warning to critical.
	CriticalThresholdPct = 10.0
)

// Service implements AlertService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new alert service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// EvaluatePriceChange raises a price-change alert when the move between
// previousPrice and newPrice crosses the threshold. A zero previous price
// produces no alert (nothing to compare against).
func (s *Service) EvaluatePriceChange(ctx context.Context, holdingID, name string, previousPrice, newPrice float64) (*models.Alert, error) {
	if previousPrice == 0 {
		return nil, nil
	}

	changePct := (newPrice - previousPrice) / previousPrice * 100
	if math.Abs(changePct) < AlertThresholdPct {
		return nil, nil
	}

	direction := "increased"
	if changePct < 0 {
		direction = "decreased"
	}

	severity := models.SeverityWarning
	if math.Abs(changePct) >= CriticalThresholdPct {
		severity = models.SeverityCritical
	}

	alert := &models.Alert{
		ID:        uuid.New().String(),
		HoldingID: holdingID,
		Kind:      models.AlertKindPriceChange,
		Message:   fmt.Sprintf("%s has %s by %.2f%% today", name, direction, math.Abs(changePct)),
		Severity:  severity,
		ChangePct: changePct,
		CreatedAt: s.now(),
	}

	if err := s.storage.AlertStore().SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.logger.Info().
		Str("holding", name).
		Float64("change_pct", changePct).
		Str("severity", string(severity)).
		Msg("Price change alert raised")

	return alert, nil
}

// EvaluatePortfolioChange raises a portfolio-level alert when the
// day-over-day total value change crosses the threshold.
func (s *Service) EvaluatePortfolioChange(ctx context.Context, previousValue, newValue float64, asOf time.Time) (*models.Alert, error) {
	if previousValue == 0 {
		return nil, nil
	}

	changePct := (newValue - previousValue) / previousValue * 100
	if math.Abs(changePct) < AlertThresholdPct {
		return nil, nil
	}

	var message string
	if changePct > 0 {
		message = fmt.Sprintf("Your portfolio increased by %.2f%% since yesterday", changePct)
	} else {
		message = fmt.Sprintf("Your portfolio dropped by %.2f%% since yesterday", math.Abs(changePct))
	}

	severity := models.SeverityWarning
	if math.Abs(changePct) >= CriticalThresholdPct {
		severity = models.SeverityCritical
	}

	alert := &models.Alert{
		ID:        uuid.New().String(),
		Kind:      models.AlertKindPortfolio,
		Message:   message,
		Severity:  severity,
		ChangePct: changePct,
		CreatedAt: asOf,
	}

	if err := s.storage.AlertStore().SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	s.logger.Info().
		Float64("change_pct", changePct).
		Msg("Portfolio change alert raised")

	return alert, nil
}

// ListAlerts returns alerts, newest first.
func (s *Service) ListAlerts(ctx context.Context, unreadOnly bool) ([]*models.Alert, error) {
	return s.storage.AlertStore().ListAlerts(ctx, unreadOnly)
}

// MarkRead flags one alert as read. Unknown ids fail.
func (s *Service) MarkRead(ctx context.Context, id string) (*models.Alert, error) {
	return s.storage.AlertStore().MarkRead(ctx, id)
}

// Ensure Service implements AlertService
var _ interfaces.AlertService = (*Service)(nil)
