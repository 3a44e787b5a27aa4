package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmobservatory/internal/apierr"
)

func TestCacheKeyFormat(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	q := Query{StartTime: start, EndTime: end, Provider: "openai", Model: "gpt-4", Granularity: Granularity1Hour}

	key := q.CacheKey("cost")
	assert.Contains(t, key, "cost:")
	assert.Contains(t, key, "openai")
	assert.Contains(t, key, "gpt-4")
	assert.Contains(t, key, "all") // environment defaults to "all"
	assert.Contains(t, key, "1hour")
}

func TestCacheKeyDefaultsToAllWhenUnset(t *testing.T) {
	q := Query{Granularity: GranularityRaw}
	key := q.CacheKey("performance")
	assert.Equal(t, "performance:::all:all:all:raw", key)
}

func TestValidateComplexityRejectsLongRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := Query{StartTime: start, EndTime: start.AddDate(0, 0, 91)}
	err := ValidateComplexity(q)
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestValidateComplexityAcceptsWithinRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := Query{StartTime: start, EndTime: start.AddDate(0, 0, 89)}
	assert.NoError(t, ValidateComplexity(q))
}

func TestValidateComplexityRejectsMissingRange(t *testing.T) {
	err := ValidateComplexity(Query{})
	require.Error(t, err)
}

func TestValidateGroupByColumnsRejectsOverCap(t *testing.T) {
	cols := make([]string, 11)
	err := ValidateGroupByColumns(cols)
	require.Error(t, err)
}

func TestShapeBreakdownPercentagesSumToTotal(t *testing.T) {
	items := []BreakdownItem{
		{Dimension: "gpt-4", TotalCost: 30, RequestCount: 10},
		{Dimension: "claude-3-opus", TotalCost: 70, RequestCount: 20},
	}
	shapeBreakdown(items, 100)

	var sum float64
	for _, it := range items {
		sum += it.Percentage
	}
	assert.InDelta(t, 100, sum, 0.01)
	assert.InDelta(t, 30, items[0].Percentage, 0.001)
	assert.InDelta(t, 70, items[1].Percentage, 0.001)
}

func TestShapeBreakdownZeroTotalLeavesZeroPercentage(t *testing.T) {
	items := []BreakdownItem{{Dimension: "gpt-4", TotalCost: 0, RequestCount: 0}}
	shapeBreakdown(items, 0)
	assert.Equal(t, float64(0), items[0].Percentage)
}

func TestGranularityTableMapping(t *testing.T) {
	assert.Equal(t, "llm_traces_1m", Granularity1Min.table())
	assert.Equal(t, "llm_traces_1h", Granularity1Hour.table())
	assert.Equal(t, "llm_traces_1d", Granularity1Day.table())
	assert.Equal(t, "llm_traces", GranularityRaw.table())
}

func TestPercentilesComputableByGranularity(t *testing.T) {
	p := &Planner{}
	assert.True(t, GranularityRaw.percentilesComputable())
	assert.True(t, Granularity1Min.percentilesComputable())
	assert.False(t, Granularity1Hour.percentilesComputable())
	assert.False(t, Granularity1Day.percentilesComputable())
	_ = p
}

func TestSummarizeComparisonPicksExtremes(t *testing.T) {
	results := []ModelComparisonResult{
		{Model: "gpt-4", Metrics: ModelMetrics{AvgLatencyMs: 800, AvgCostUSD: 0.03, SuccessRate: 0.97}},
		{Model: "gpt-4o-mini", Metrics: ModelMetrics{AvgLatencyMs: 200, AvgCostUSD: 0.001, SuccessRate: 0.99}},
		{Model: "claude-3-opus", Metrics: ModelMetrics{AvgLatencyMs: 1200, AvgCostUSD: 0.05, SuccessRate: 0.90}},
	}
	summary := summarizeComparison(results)
	assert.Equal(t, "gpt-4o-mini", summary.FastestModel)
	assert.Equal(t, "gpt-4o-mini", summary.CheapestModel)
	assert.Equal(t, "gpt-4o-mini", summary.MostReliableModel)
	assert.NotEmpty(t, summary.Recommendations)
}

func TestOptimizationScoreClampedToRange(t *testing.T) {
	assert.Equal(t, 1.0, optimizationScore(0, 0, 0))
	assert.InDelta(t, 0.7, optimizationScore(1, 1, 1), 0.001)
	assert.Equal(t, 0.0, optimizationScore(100, 0, 0))
}

func TestBuildFilterPushesDownAllowedDimensions(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	q := Query{StartTime: start, EndTime: end, Provider: "openai", Model: "gpt-4", Environment: "production", UserID: "u1"}

	f := buildFilter(q, true)
	assert.Contains(t, f.sql, "ts >=")
	assert.Contains(t, f.sql, "environment = $5")
	assert.Contains(t, f.sql, "user_id = $6")
	assert.Len(t, f.args, 6)

	bucketFilter := buildFilter(q, false)
	assert.Contains(t, bucketFilter.sql, "bucket >=")
	assert.NotContains(t, bucketFilter.sql, "environment")
}
