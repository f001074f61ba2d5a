// Package analysis computes derived portfolio metrics from the current
// holding set. The computation is a pure function of the holdings, with no
// incremental updates and no caching of the derived view.
package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	// OverexposureThresholdPct flags any asset class above this share.
	OverexposureThresholdPct = 30.0

	// UnderperformerThresholdPct flags holdings returning below this.
	UnderperformerThresholdPct = -10.0

	// TopPerformerThresholdPct flags holdings returning above this.
	TopPerformerThresholdPct = 15.0

	// RebalanceDeviationPct is the allowed deviation from the ideal
	// per-class share before a rebalancing suggestion fires.
	RebalanceDeviationPct = 10.0
)

// Service implements AnalysisService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new analysis service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze recomputes the full portfolio analysis from current holdings.
func (s *Service) Analyze(ctx context.Context) (*models.PortfolioAnalysis, error) {
	holdings, err := s.storage.HoldingStore().ListHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	return Compute(holdings, s.now()), nil
}

// Compute derives the full analysis from a holding set. Insight lists
// preserve holding/class insertion order.
func Compute(holdings []*models.Holding, asOf time.Time) *models.PortfolioAnalysis {
	result := &models.PortfolioAnalysis{
		TypeDistribution: make(map[models.AssetClass]*models.ClassDistribution),
		Insights: models.Insights{
			Overexposure:           []string{},
			Underperformers:        []string{},
			TopPerformers:          []string{},
			RebalancingSuggestions: []string{},
		},
		GeneratedAt: asOf,
	}

	// Totals and per-class grouping, in holding order.
	classOrder := make([]models.AssetClass, 0)
	for _, h := range holdings {
		result.TotalValue += h.CurrentValue
		result.TotalCost += h.TotalCost

		dist, ok := result.TypeDistribution[h.AssetClass]
		if !ok {
			dist = &models.ClassDistribution{}
			result.TypeDistribution[h.AssetClass] = dist
			classOrder = append(classOrder, h.AssetClass)
		}
		dist.Value += h.CurrentValue
		dist.Count++
	}

	result.OverallReturn = result.TotalValue - result.TotalCost
	if result.TotalCost > 0 {
		result.OverallReturnPct = result.OverallReturn / result.TotalCost * 100
	}

	for _, class := range classOrder {
		dist := result.TypeDistribution[class]
		if result.TotalValue > 0 {
			dist.Percentage = dist.Value / result.TotalValue * 100
		}
	}

	// Overexposure: any class above the concentration threshold.
	for _, class := range classOrder {
		dist := result.TypeDistribution[class]
		if dist.Percentage > OverexposureThresholdPct {
			result.Insights.Overexposure = append(result.Insights.Overexposure,
				fmt.Sprintf("Your portfolio is heavily concentrated in %s (%.1f%%). Consider diversifying.",
					class, dist.Percentage))
		}
	}

	// Under/over performers, in holding order.
	for _, h := range holdings {
		returnPct := h.ReturnPct()
		if returnPct < UnderperformerThresholdPct {
			result.Insights.Underperformers = append(result.Insights.Underperformers,
				fmt.Sprintf("%s is underperforming with %.1f%% return. Consider reviewing this investment.",
					h.Name, returnPct))
		}
		if returnPct > TopPerformerThresholdPct {
			result.Insights.TopPerformers = append(result.Insights.TopPerformers,
				fmt.Sprintf("%s is performing well with %.1f%% return.", h.Name, returnPct))
		}
	}

	// Rebalancing: deviation from an equal split across present classes.
	if len(classOrder) > 0 {
		ideal := 100.0 / float64(len(classOrder))
		for _, class := range classOrder {
			dist := result.TypeDistribution[class]
			diff := dist.Percentage - ideal
			if math.Abs(diff) > RebalanceDeviationPct {
				action := "increasing"
				if diff > 0 {
					action = "reducing"
				}
				result.Insights.RebalancingSuggestions = append(result.Insights.RebalancingSuggestions,
					fmt.Sprintf("Consider %s your %s allocation by %.1f%% for better diversification.",
						action, class, math.Abs(diff)))
			}
		}
	}

	computeInvestmentCadence(holdings, result)
	result.HealthScore = healthScore(result.OverallReturnPct, result.TotalCost)

	return result
}

// computeInvestmentCadence fills the monthly invested series and its average
// from holding acquisition dates.
func computeInvestmentCadence(holdings []*models.Holding, result *models.PortfolioAnalysis) {
	monthly := make(map[string]float64)
	for _, h := range holdings {
		if h.AcquiredAt.IsZero() {
			continue
		}
		monthly[h.AcquiredAt.Format("2006-01")] += h.TotalCost
	}
	if len(monthly) == 0 {
		return
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)

	var total float64
	for _, m := range months {
		result.MonthlyInvestments = append(result.MonthlyInvestments, models.MonthlyInvestment{
			Month:    m,
			Invested: monthly[m],
		})
		total += monthly[m]
	}
	result.AvgMonthlyInvestment = total / float64(len(months))
}

// healthScore grades the portfolio on a 0-100 scale: base 50, bonus for
// strong returns and for a substantial invested base.
func healthScore(returnPct, totalCost float64) int {
	score := 50
	if returnPct > TopPerformerThresholdPct {
		score += 25
	}
	if totalCost > 500000 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
