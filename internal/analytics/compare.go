package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"llmobservatory/internal/apierr"
)

const (
	minComparedModels = 2
	maxComparedModels = 10
)

// CompareModels issues one aggregate query per model over the same
// time window and composes the fastest/cheapest/most-reliable summary.
func (p *Planner) CompareModels(ctx context.Context, models []string, q Query) (*ModelComparison, error) {
	if len(models) < minComparedModels {
		return nil, apierr.New(apierr.KindValidation, "at least 2 models are required for comparison")
	}
	if len(models) > maxComparedModels {
		return nil, apierr.New(apierr.KindValidation, "maximum 10 models can be compared at once")
	}
	if err := ValidateComplexity(q); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("models:compare:%s:%s:%s:%s",
		normalizeModelList(models), rfc3339OrEmpty(q.StartTime), rfc3339OrEmpty(q.EndTime), orAll(q.Environment))
	var cached ModelComparison
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	defer func() { p.metrics.QueryDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds()) }()

	var results []ModelComparisonResult
	for _, model := range models {
		row, err := p.modelMetrics(ctx, q, model)
		if err != nil {
			return nil, err
		}
		if row != nil {
			results = append(results, *row)
		}
	}

	summary := summarizeComparison(results)
	out := &ModelComparison{Models: results, Summary: summary}
	p.cacheSet(ctx, key, out, defaultCacheTTL)
	return out, nil
}

func (p *Planner) modelMetrics(ctx context.Context, q Query, model string) (*ModelComparisonResult, error) {
	var (
		provider     string
		avgDuration  float64
		totalCost    float64
		requestCount int64
		successCount int64
		totalTokens  int64
	)
	err := p.pg.QueryRow(ctx, modelMetricsTemplate, q.StartTime, q.EndTime, model).
		Scan(&provider, &model, &avgDuration, &totalCost, &requestCount, &successCount, &totalTokens)
	if err != nil {
		if err == pgx.ErrNoRows {
			// The GROUP BY collapses to zero rows when the model had no
			// traffic in the window; skip it instead of failing the
			// whole comparison.
			return nil, nil
		}
		return nil, apierr.Wrap(apierr.KindQuery, "query model metrics for "+model, err)
	}
	if requestCount == 0 {
		return nil, nil
	}

	windowSeconds := q.EndTime.Sub(q.StartTime).Seconds()
	throughput := 0.0
	if windowSeconds > 0 {
		throughput = float64(requestCount) / windowSeconds
	}
	successRate := float64(successCount) / float64(requestCount)
	avgCost := totalCost / float64(requestCount)

	return &ModelComparisonResult{
		Model:    model,
		Provider: provider,
		Metrics: ModelMetrics{
			AvgLatencyMs:  avgDuration,
			AvgCostUSD:    avgCost,
			TotalCostUSD:  totalCost,
			SuccessRate:   successRate,
			RequestCount:  requestCount,
			TotalTokens:   totalTokens,
			ThroughputRPS: throughput,
		},
	}, nil
}

// summarizeComparison picks the min-latency model as fastest, the
// min-cost-per-request model as cheapest, and the max-success-rate
// model as most reliable, then emits heuristic recommendations.
func summarizeComparison(results []ModelComparisonResult) ModelComparisonSummary {
	if len(results) == 0 {
		return ModelComparisonSummary{}
	}
	fastest, cheapest, reliable := results[0], results[0], results[0]
	for _, r := range results[1:] {
		if r.Metrics.AvgLatencyMs < fastest.Metrics.AvgLatencyMs {
			fastest = r
		}
		if r.Metrics.AvgCostUSD < cheapest.Metrics.AvgCostUSD {
			cheapest = r
		}
		if r.Metrics.SuccessRate > reliable.Metrics.SuccessRate {
			reliable = r
		}
	}

	var recs []string
	for _, r := range results {
		if r.Metrics.AvgCostUSD > 0.01 {
			recs = append(recs, fmt.Sprintf(
				"%s averages $%.4f per request; consider a cheaper model for non-critical traffic", r.Model, r.Metrics.AvgCostUSD))
		}
		if r.Metrics.SuccessRate < 0.95 {
			recs = append(recs, fmt.Sprintf(
				"%s has a success rate of %.1f%%; investigate error patterns before scaling usage", r.Model, r.Metrics.SuccessRate*100))
		}
	}

	return ModelComparisonSummary{
		FastestModel:      fastest.Model,
		CheapestModel:     cheapest.Model,
		MostReliableModel: reliable.Model,
		Recommendations:   recs,
	}
}

// OptimizationRecommendations analyzes usage patterns over the window
// and produces cost/performance/quality recommendations plus an overall
// score in [0, 1].
func (p *Planner) OptimizationRecommendations(ctx context.Context, q Query) (*OptimizationRecommendations, error) {
	if err := ValidateComplexity(q); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("optimization:recommendations:%s:%s:%s:%s:%s",
		rfc3339OrEmpty(q.StartTime), rfc3339OrEmpty(q.EndTime), orAll(q.Provider), orAll(q.Model), q.Granularity)
	var cached OptimizationRecommendations
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	defer func() {
		p.metrics.QueryDuration.WithLabelValues("recommendations").Observe(time.Since(start).Seconds())
	}()

	analytics, err := p.CostAnalytics(ctx, q)
	if err != nil {
		return nil, err
	}

	costRecs := costRecommendations(analytics)
	perfRecs := performanceRecommendations(analytics)
	qualityRecs := qualityRecommendations(analytics)

	score := optimizationScore(len(costRecs), len(perfRecs), len(qualityRecs))
	out := &OptimizationRecommendations{
		CostOptimizations:        costRecs,
		PerformanceOptimizations: perfRecs,
		QualityOptimizations:     qualityRecs,
		OverallScore:             score,
	}
	p.cacheSet(ctx, key, out, recommendationCacheTTL)
	return out, nil
}

func costRecommendations(a *CostAnalytics) []Recommendation {
	var recs []Recommendation
	if a.AvgCostPerRequest > 0.01 {
		savings := a.TotalCost * 0.3
		recs = append(recs, Recommendation{
			Title:            "Switch high-volume calls to a cheaper model",
			Description:      fmt.Sprintf("Average cost per request is $%.4f across %d requests", a.AvgCostPerRequest, a.RequestCount),
			Impact:           ImpactHigh,
			PotentialSavings: &savings,
			Effort:           EffortMedium,
			Priority:         1,
		})
	}
	if a.TotalCost > 1000 {
		recs = append(recs, Recommendation{
			Title:       "Review high spend period",
			Description: fmt.Sprintf("Total cost of $%.2f in the selected window exceeds the alerting threshold", a.TotalCost),
			Impact:      ImpactMedium,
			Effort:      EffortLow,
			Priority:    2,
		})
	}
	return recs
}

func performanceRecommendations(a *CostAnalytics) []Recommendation {
	if a.RequestCount == 0 {
		return nil
	}
	var recs []Recommendation
	if len(a.TimeSeries) > 0 {
		recs = append(recs, Recommendation{
			Title:       "Cache repeated prompts",
			Description: "Implement a read-through cache for frequently repeated prompt prefixes to reduce request volume",
			Impact:      ImpactMedium,
			Effort:      EffortMedium,
			Priority:    3,
		})
	}
	return recs
}

func qualityRecommendations(a *CostAnalytics) []Recommendation {
	if a.RequestCount == 0 {
		return nil
	}
	return []Recommendation{{
		Title:       "Add retry logic for transient failures",
		Description: "Pair tail-sampled error spans with automatic retries to reduce user-visible failures",
		Impact:      ImpactLow,
		Effort:      EffortLow,
		Priority:    4,
	}}
}

// optimizationScore is a simple heuristic: fewer open recommendations
// scores higher, capped to [0, 1].
func optimizationScore(cost, perf, quality int) float64 {
	total := cost + perf + quality
	score := 1.0 - float64(total)*0.1
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
