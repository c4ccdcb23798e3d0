package service

import (
	"context"
	"fmt"
	"math"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

// CostModel attributes advertising spend to a lead scope. Spend is in currency units.
type CostModel interface {
	Spend(ctx context.Context, criteria models.LeadCriteria) (float64, error)
}

// ZeroCostModel reports no spend. It is the default until an ad-spend source is wired in.
type ZeroCostModel struct{}

// Spend always returns 0.
func (ZeroCostModel) Spend(context.Context, models.LeadCriteria) (float64, error) {
	return 0, nil
}

type leadCounter interface {
	Count(ctx context.Context, criteria models.LeadCriteria) (int, error)
}

// StatsAggregator computes summary statistics over the full filter scope.
type StatsAggregator struct {
	counter leadCounter
	cost    CostModel
}

// NewStatsAggregator constructs a StatsAggregator; a nil cost model means ZeroCostModel.
func NewStatsAggregator(counter leadCounter, cost CostModel) *StatsAggregator {
	if cost == nil {
		cost = ZeroCostModel{}
	}
	return &StatsAggregator{counter: counter, cost: cost}
}

// Summarize counts the leads matching criteria and derives spend and cost per lead.
func (s *StatsAggregator) Summarize(ctx context.Context, criteria models.LeadCriteria) (models.ReportStats, error) {
	total, err := s.counter.Count(ctx, criteria)
	if err != nil {
		return models.ReportStats{}, err
	}
	spend, err := s.cost.Spend(ctx, criteria)
	if err != nil {
		return models.ReportStats{}, fmt.Errorf("compute spend: %w", err)
	}
	if spend < 0 || math.IsNaN(spend) || math.IsInf(spend, 0) {
		return models.ReportStats{}, fmt.Errorf("compute spend: invalid amount %v", spend)
	}

	stats := models.ReportStats{Total: total, TotalSpendCents: toCents(spend)}
	if total > 0 {
		stats.AverageCPLCents = toCents(spend / float64(total))
	}
	return stats, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
