// Package analytics implements the read-side query planner: granularity
// selection between continuous-aggregate tables and the raw hypertable,
// percentile fallback policy, cache-through via internal/cache, response
// shaping, and the model-comparison operation.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"llmobservatory/internal/apierr"
)

func errValidation(msg string) error {
	return apierr.New(apierr.KindValidation, msg)
}

// Granularity is one of the allowed query bucket widths.
type Granularity string

const (
	Granularity1Min Granularity = "1min"
	Granularity1Hour Granularity = "1hour"
	Granularity1Day  Granularity = "1day"
	GranularityRaw   Granularity = "raw"
)

func (g Granularity) table() string {
	switch g {
	case Granularity1Min:
		return "llm_traces_1m"
	case Granularity1Hour:
		return "llm_traces_1h"
	case Granularity1Day:
		return "llm_traces_1d"
	default:
		return "llm_traces"
	}
}

// percentilesComputable reports whether percentiles are served at this
// granularity without the DowngradeForPercentiles opt-in. For raw and
// 1-minute queries the planner computes them with a PERCENTILE_CONT scan
// of the raw spans; coarser granularities return null percentiles unless
// the caller opts into that scan.
func (g Granularity) percentilesComputable() bool {
	return g == GranularityRaw || g == Granularity1Min
}

// Query is the common parameter set for analytics endpoints, mirroring
// the time-range + dimension filters used across the planner.
type Query struct {
	StartTime   time.Time
	EndTime     time.Time
	Provider    string
	Model       string
	Environment string
	UserID      string
	Granularity Granularity
	// Percentiles requests P50/P95/P99 latency in the response.
	Percentiles bool
	// DowngradeForPercentiles opts into scanning raw spans when the
	// chosen granularity is coarser than 1-minute, instead of returning
	// null percentiles. Default false.
	DowngradeForPercentiles bool
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

// CacheKey reproduces the deterministic cache key format used across the
// analytics endpoints: "prefix:start:end:provider|all:model|all:environment|all:granularity".
func (q Query) CacheKey(prefix string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		prefix,
		rfc3339OrEmpty(q.StartTime),
		rfc3339OrEmpty(q.EndTime),
		orAll(q.Provider),
		orAll(q.Model),
		orAll(q.Environment),
		string(q.Granularity),
	)
}

func rfc3339OrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// TimeSeriesPoint is one bucket of the cost/performance time series.
type TimeSeriesPoint struct {
	Bucket            time.Time `json:"bucket"`
	Provider          string    `json:"provider,omitempty"`
	Model             string    `json:"model,omitempty"`
	TotalCostUSD      float64   `json:"total_cost_usd"`
	PromptCostUSD     float64   `json:"prompt_cost_usd"`
	CompletionCostUSD float64   `json:"completion_cost_usd"`
	RequestCount      int64     `json:"request_count"`
}

// CostAnalytics is the response for the cost time-series operation.
type CostAnalytics struct {
	TotalCost         float64           `json:"total_cost"`
	PromptCost        float64           `json:"prompt_cost"`
	CompletionCost    float64           `json:"completion_cost"`
	RequestCount      int64             `json:"request_count"`
	AvgCostPerRequest float64           `json:"avg_cost_per_request"`
	TimeSeries        []TimeSeriesPoint `json:"time_series"`
}

// BreakdownItem is one row of a breakdown response, carrying its share
// of the total.
type BreakdownItem struct {
	Dimension    string  `json:"dimension"`
	TotalCost    float64 `json:"total_cost"`
	RequestCount int64   `json:"request_count"`
	Percentage   float64 `json:"percentage"`
}

// CostBreakdown groups cost by model, provider, and user, plus the same
// time series as CostAnalytics.
type CostBreakdown struct {
	ByModel    []BreakdownItem   `json:"by_model"`
	ByProvider []BreakdownItem   `json:"by_provider"`
	ByUser     []BreakdownItem   `json:"by_user"`
	ByTime     []TimeSeriesPoint `json:"by_time"`
}

// PerformanceDataPoint is one bucket of the latency time series.
type PerformanceDataPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	AvgLatencyMs   float64   `json:"avg_latency_ms"`
	MinLatencyMs   float64   `json:"min_latency_ms"`
	MaxLatencyMs   float64   `json:"max_latency_ms"`
	RequestCount   int64     `json:"request_count"`
	TotalTokens    int64     `json:"total_tokens"`
}

// PercentileMetrics carries P50/P95/P99 latency. Fields are nil when
// the percentile policy downgraded to annotation instead of raw-span
// scan.
type PercentileMetrics struct {
	P50 *float64 `json:"p50"`
	P95 *float64 `json:"p95"`
	P99 *float64 `json:"p99"`
}

// PerformanceAnalytics is the response for the latency time-series
// operation, annotated when percentiles could not be computed from the
// chosen granularity's pre-rolled table.
type PerformanceAnalytics struct {
	Percentiles PercentileMetrics       `json:"percentiles"`
	TimeSeries  []PerformanceDataPoint   `json:"time_series"`
	Notes       []string                 `json:"notes,omitempty"`
}

// ModelMetrics is the per-model row of a comparison response.
type ModelMetrics struct {
	AvgLatencyMs  float64  `json:"avg_latency_ms"`
	P95LatencyMs  *float64 `json:"p95_latency_ms"`
	AvgCostUSD    float64  `json:"avg_cost_usd"`
	TotalCostUSD  float64  `json:"total_cost_usd"`
	SuccessRate   float64  `json:"success_rate"`
	RequestCount  int64    `json:"request_count"`
	TotalTokens   int64    `json:"total_tokens"`
	ThroughputRPS float64  `json:"throughput_rps"`
}

// ModelComparisonResult pairs one compared model with its metrics.
type ModelComparisonResult struct {
	Model    string       `json:"model"`
	Provider string       `json:"provider"`
	Metrics  ModelMetrics `json:"metrics"`
}

// ModelComparisonSummary picks the standout model per dimension and
// carries heuristic recommendations.
type ModelComparisonSummary struct {
	FastestModel      string   `json:"fastest_model"`
	CheapestModel     string   `json:"cheapest_model"`
	MostReliableModel string   `json:"most_reliable_model"`
	Recommendations   []string `json:"recommendations"`
}

// ModelComparison is the full response for the model-comparison
// operation.
type ModelComparison struct {
	Models  []ModelComparisonResult `json:"models"`
	Summary ModelComparisonSummary  `json:"summary"`
}

// ImpactLevel and EffortLevel grade a Recommendation.
type ImpactLevel string
type EffortLevel string

const (
	ImpactHigh   ImpactLevel = "high"
	ImpactMedium ImpactLevel = "medium"
	ImpactLow    ImpactLevel = "low"

	EffortHigh   EffortLevel = "high"
	EffortMedium EffortLevel = "medium"
	EffortLow    EffortLevel = "low"
)

// Recommendation is one actionable optimization suggestion.
type Recommendation struct {
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Impact            ImpactLevel `json:"impact"`
	PotentialSavings  *float64    `json:"potential_savings"`
	Effort            EffortLevel `json:"effort"`
	Priority          int         `json:"priority"`
}

// OptimizationRecommendations is the response for the recommendations
// operation.
type OptimizationRecommendations struct {
	CostOptimizations        []Recommendation `json:"cost_optimizations"`
	PerformanceOptimizations []Recommendation `json:"performance_optimizations"`
	QualityOptimizations     []Recommendation `json:"quality_optimizations"`
	OverallScore              float64          `json:"overall_score"`
}

// ValidateComplexity enforces the query-complexity limits: time range
// bounded to 90 days, and is the single gate every planner entry point
// must pass before issuing SQL.
func ValidateComplexity(q Query) error {
	if q.StartTime.IsZero() || q.EndTime.IsZero() {
		return errValidation("start_time and end_time are required")
	}
	if q.EndTime.Before(q.StartTime) {
		return errValidation("end_time must not precede start_time")
	}
	if q.EndTime.Sub(q.StartTime) > 90*24*time.Hour {
		return errValidation("time range exceeds maximum of 90 days")
	}
	return nil
}

// ValidateGroupByColumns rejects a breakdown request whose group-by
// cardinality exceeds the 10-column cap.
func ValidateGroupByColumns(columns []string) error {
	if len(columns) > 10 {
		return errValidation("group-by cardinality exceeds maximum of 10 columns")
	}
	return nil
}

func normalizeModelList(models []string) string {
	return strings.Join(models, ",")
}
