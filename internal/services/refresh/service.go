// Package refresh iterates persisted holdings, resolves current prices
// through the gateway, and merges updated valuations back into storage.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

// Service implements RefreshService.
type Service struct {
	storage interfaces.StorageManager
	gateway interfaces.PriceGateway
	alerts  interfaces.AlertService
	logger  *common.Logger
	workers int
	now     func() time.Time
}

// NewService creates a new refresh service. workers bounds how many price
// lookups run concurrently in one batch (respects upstream rate limits).
func NewService(
	storage interfaces.StorageManager,
	gateway interfaces.PriceGateway,
	alerts interfaces.AlertService,
	logger *common.Logger,
	workers int,
) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		storage: storage,
		gateway: gateway,
		alerts:  alerts,
		logger:  logger,
		workers: workers,
		now:     time.Now,
	}
}

// RefreshAll refreshes every holding that can be priced. Failures are
// isolated per holding: one bad symbol never aborts the rest of the batch.
// Cancelling ctx aborts remaining lookups; outcomes for completed holdings
// are still returned.
func (s *Service) RefreshAll(ctx context.Context) (*models.RefreshResult, error) {
	result := &models.RefreshResult{StartedAt: s.now()}

	holdings, err := s.storage.HoldingStore().ListHoldings(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make(chan *models.Holding)
	outcomes := make(chan models.RefreshOutcome)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range jobs {
				outcomes <- s.refreshHolding(ctx, h)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, h := range holdings {
			select {
			case <-ctx.Done():
				return
			case jobs <- h:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case models.RefreshUpdated:
			result.Updated++
		case models.RefreshSkipped:
			result.Skipped++
		case models.RefreshFailed:
			result.Failed++
		}
	}

	result.CompletedAt = s.now()

	s.logger.Info().
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("elapsed", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Holdings refresh complete")

	return result, nil
}

// refreshHolding resolves one holding's price and persists the merged
// valuation. Each holding is handled by exactly one worker per run, so the
// valuation fields are written as a group with no interleaving.
func (s *Service) refreshHolding(ctx context.Context, h *models.Holding) models.RefreshOutcome {
	outcome := models.RefreshOutcome{HoldingID: h.ID, Name: h.Name}

	// No symbol means no live pricing: skip without error, leaving the
	// prior valuation untouched.
	if h.Symbol == "" && h.AssetClass != models.AssetClassCommodity {
		outcome.Status = models.RefreshSkipped
		return outcome
	}
	if !h.AssetClass.Pricable() {
		outcome.Status = models.RefreshSkipped
		return outcome
	}

	quote, err := s.gateway.Resolve(ctx, h.AssetClass, h.Symbol)
	if err != nil {
		kind := pricing.KindOf(err)
		outcome.Status = models.RefreshFailed
		outcome.ErrorKind = string(kind)
		outcome.Error = err.Error()

		s.logger.Warn().
			Str("holding", h.Name).
			Str("symbol", h.Symbol).
			Str("kind", string(kind)).
			Msg("Price refresh failed for holding")
		return outcome
	}

	previousPrice := h.CurrentPrice
	h.ApplyPrice(quote.Price, quote.Currency, quote.FetchedAt, quote.Stale)

	if err := s.storage.HoldingStore().SaveHolding(ctx, h); err != nil {
		outcome.Status = models.RefreshFailed
		outcome.Error = err.Error()
		return outcome
	}

	if _, err := s.alerts.EvaluatePriceChange(ctx, h.ID, h.Name, previousPrice, quote.Price); err != nil {
		// Alert persistence failure shouldn't fail the holding update.
		s.logger.Warn().Err(err).Str("holding", h.Name).Msg("Failed to evaluate price alert")
	}

	outcome.Status = models.RefreshUpdated
	outcome.Stale = quote.Stale
	return outcome
}

// SnapshotAndNotify records today's total portfolio value and raises a
// portfolio-level alert when the day-over-day change crosses the threshold.
// Running it twice in one day overwrites the same snapshot.
func (s *Service) SnapshotAndNotify(ctx context.Context) error {
	holdings, err := s.storage.HoldingStore().ListHoldings(ctx)
	if err != nil {
		return err
	}

	var totalValue float64
	for _, h := range holdings {
		totalValue += h.CurrentValue
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	if prev, err := s.storage.SnapshotStore().GetSnapshot(ctx, yesterday); err == nil {
		if _, err := s.alerts.EvaluatePortfolioChange(ctx, prev.Value, totalValue, now); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to evaluate portfolio change alert")
		}
	}

	return s.storage.SnapshotStore().SaveSnapshot(ctx, &models.PortfolioSnapshot{
		Date:  today,
		Value: totalValue,
	})
}

// Ensure Service implements RefreshService
var _ interfaces.RefreshService = (*Service)(nil)
