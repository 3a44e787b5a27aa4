package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"llmobservatory/internal/apierr"
	"llmobservatory/internal/cache"
	"llmobservatory/internal/observability"
)

// maxResultRows is the query-complexity cap on projected rows.
const maxResultRows = 100_000

// defaultCacheTTL and recommendationCacheTTL mirror the TTLs used across
// the analytics endpoints; recommendations get half the normal TTL.
const (
	defaultCacheTTL        = time.Hour
	recommendationCacheTTL = defaultCacheTTL / 2
)

// Planner selects among continuous-aggregate tables and the raw
// hypertable, applies the percentile-downgrade policy, pushes filters
// into SQL, and serves responses through a read-through cache.
type Planner struct {
	pg      *pgxpool.Pool
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewPlanner constructs a Planner over pg, cached through c.
func NewPlanner(pg *pgxpool.Pool, c *cache.Cache, m *observability.Metrics) *Planner {
	return &Planner{pg: pg, cache: c, metrics: m}
}

func (p *Planner) cacheGet(ctx context.Context, key string, out any) bool {
	raw, ok := p.cache.Get(ctx, key)
	if !ok {
		p.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		p.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	p.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (p *Planner) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	p.cache.Set(ctx, key, string(b), ttl)
}

// CostAnalytics runs the cost time-series operation: granularity
// selection, filter pushdown, cache-through.
func (p *Planner) CostAnalytics(ctx context.Context, q Query) (*CostAnalytics, error) {
	if err := ValidateComplexity(q); err != nil {
		return nil, err
	}
	key := q.CacheKey("cost")
	var cached CostAnalytics
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	defer func() { p.metrics.QueryDuration.WithLabelValues("analytics").Observe(time.Since(start).Seconds()) }()

	raw := q.Granularity == GranularityRaw
	filter := buildFilter(q, raw)
	sql := renderTemplate(costTimeSeriesTemplate, q.Granularity.table(), filter.sql, "")

	rows, err := p.pg.Query(ctx, sql, filter.args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "query cost time series", err)
	}
	defer rows.Close()

	var series []TimeSeriesPoint
	var totalCost, promptCost, completionCost float64
	var requestCount int64
	for rows.Next() {
		var pt TimeSeriesPoint
		if err := rows.Scan(&pt.Bucket, &pt.Provider, &pt.Model, &pt.TotalCostUSD,
			&pt.PromptCostUSD, &pt.CompletionCostUSD, &pt.RequestCount); err != nil {
			return nil, apierr.Wrap(apierr.KindQuery, "scan cost time series row", err)
		}
		series = append(series, pt)
		totalCost += pt.TotalCostUSD
		promptCost += pt.PromptCostUSD
		completionCost += pt.CompletionCostUSD
		requestCount += pt.RequestCount
		if len(series) > maxResultRows {
			return nil, apierr.New(apierr.KindValidation, "result exceeds maximum projected rows")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "iterate cost time series", err)
	}

	avg := 0.0
	if requestCount > 0 {
		avg = totalCost / float64(requestCount)
	}
	result := &CostAnalytics{
		TotalCost:         totalCost,
		PromptCost:        promptCost,
		CompletionCost:    completionCost,
		RequestCount:      requestCount,
		AvgCostPerRequest: avg,
		TimeSeries:        series,
	}
	p.cacheSet(ctx, key, result, defaultCacheTTL)
	return result, nil
}

// CostBreakdown runs the breakdown operation over model, provider, and
// user dimensions, shaping each row with its percentage of the total.
func (p *Planner) CostBreakdown(ctx context.Context, q Query) (*CostBreakdown, error) {
	if err := ValidateComplexity(q); err != nil {
		return nil, err
	}
	key := q.CacheKey("cost:breakdown")
	var cached CostBreakdown
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	defer func() { p.metrics.QueryDuration.WithLabelValues("analytics").Observe(time.Since(start).Seconds()) }()

	raw := q.Granularity == GranularityRaw
	byModel, err := p.breakdownByDimension(ctx, q, raw, "model")
	if err != nil {
		return nil, err
	}
	byProvider, err := p.breakdownByDimension(ctx, q, raw, "provider")
	if err != nil {
		return nil, err
	}
	// user_id is only present on raw spans; none of the continuous
	// aggregates (including the 1-minute rollup) carry it.
	var byUser []BreakdownItem
	if raw {
		byUser, err = p.breakdownByDimension(ctx, q, raw, "user_id")
		if err != nil {
			return nil, err
		}
	}

	series, err := p.rawTimeSeries(ctx, q, raw)
	if err != nil {
		return nil, err
	}

	result := &CostBreakdown{ByModel: byModel, ByProvider: byProvider, ByUser: byUser, ByTime: series}
	p.cacheSet(ctx, key, result, defaultCacheTTL)
	return result, nil
}

func (p *Planner) breakdownByDimension(ctx context.Context, q Query, raw bool, dimension string) ([]BreakdownItem, error) {
	filter := buildFilter(q, raw)
	sql := renderTemplate(costBreakdownTemplate, q.Granularity.table(), filter.sql, dimension)

	rows, err := p.pg.Query(ctx, sql, filter.args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "query cost breakdown", err)
	}
	defer rows.Close()

	var items []BreakdownItem
	var total float64
	for rows.Next() {
		var it BreakdownItem
		if err := rows.Scan(&it.Dimension, &it.TotalCost, &it.RequestCount); err != nil {
			return nil, apierr.Wrap(apierr.KindQuery, "scan cost breakdown row", err)
		}
		items = append(items, it)
		total += it.TotalCost
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "iterate cost breakdown", err)
	}

	shapeBreakdown(items, total)
	return items, nil
}

// shapeBreakdown is the "response shaping" pass: every row gets its
// percentage of the total, so sum(percentage) lands in [99.99, 100.01]
// whenever total > 0.
func shapeBreakdown(items []BreakdownItem, total float64) {
	if total <= 0 {
		return
	}
	for i := range items {
		items[i].Percentage = (items[i].TotalCost / total) * 100
	}
}

func (p *Planner) rawTimeSeries(ctx context.Context, q Query, raw bool) ([]TimeSeriesPoint, error) {
	filter := buildFilter(q, raw)
	sql := renderTemplate(costTimeSeriesTemplate, q.Granularity.table(), filter.sql, "")
	rows, err := p.pg.Query(ctx, sql, filter.args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "query breakdown time series", err)
	}
	defer rows.Close()

	var series []TimeSeriesPoint
	for rows.Next() {
		var pt TimeSeriesPoint
		if err := rows.Scan(&pt.Bucket, &pt.Provider, &pt.Model, &pt.TotalCostUSD,
			&pt.PromptCostUSD, &pt.CompletionCostUSD, &pt.RequestCount); err != nil {
			return nil, apierr.Wrap(apierr.KindQuery, "scan breakdown time series row", err)
		}
		series = append(series, pt)
	}
	return series, rows.Err()
}

// PerformanceAnalytics runs the latency time-series operation,
// implementing the percentile-fallback policy: at granularities coarser
// than 1-minute the default is to return null percentiles annotated
// with a downgrade note, unless the caller opted into a raw-span scan.
func (p *Planner) PerformanceAnalytics(ctx context.Context, q Query) (*PerformanceAnalytics, error) {
	if err := ValidateComplexity(q); err != nil {
		return nil, err
	}
	key := q.CacheKey("performance")
	var cached PerformanceAnalytics
	if p.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	defer func() { p.metrics.QueryDuration.WithLabelValues("analytics").Observe(time.Since(start).Seconds()) }()

	raw := q.Granularity == GranularityRaw
	filter := buildFilter(q, raw)
	sql := renderTemplate(performanceTimeSeriesTemplate, q.Granularity.table(), filter.sql, "")

	rows, err := p.pg.Query(ctx, sql, filter.args...)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "query performance time series", err)
	}
	defer rows.Close()

	var series []PerformanceDataPoint
	for rows.Next() {
		var pt PerformanceDataPoint
		if err := rows.Scan(&pt.Timestamp, &pt.AvgLatencyMs, &pt.MinLatencyMs, &pt.MaxLatencyMs,
			&pt.RequestCount, &pt.TotalTokens); err != nil {
			return nil, apierr.Wrap(apierr.KindQuery, "scan performance time series row", err)
		}
		series = append(series, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindQuery, "iterate performance time series", err)
	}

	result := &PerformanceAnalytics{TimeSeries: series}
	if q.Percentiles {
		pct, notes, err := p.resolvePercentiles(ctx, q, raw)
		if err != nil {
			return nil, err
		}
		result.Percentiles = pct
		result.Notes = notes
	}

	p.cacheSet(ctx, key, result, defaultCacheTTL)
	return result, nil
}

// resolvePercentiles implements the percentile policy from the query
// planner's design: percentiles require ordered-set aggregation over
// raw spans. Raw and 1-minute granularity always compute them via a
// raw-span scan. At anything coarser the default policy (a) is to
// return nulls with an annotation; DowngradeForPercentiles opts into
// policy (b), a raw-span scan.
func (p *Planner) resolvePercentiles(ctx context.Context, q Query, raw bool) (PercentileMetrics, []string, error) {
	if raw || q.Granularity.percentilesComputable() {
		return p.scanPercentiles(ctx, q)
	}
	if q.DowngradeForPercentiles {
		return p.scanPercentiles(ctx, q)
	}
	return PercentileMetrics{}, []string{
		"percentiles unavailable at " + string(q.Granularity) + " granularity; null until downgraded to a raw-span scan",
	}, nil
}

func (p *Planner) scanPercentiles(ctx context.Context, q Query) (PercentileMetrics, []string, error) {
	filter := buildFilter(q, true)
	sql := renderTemplate(percentilesTemplate, "llm_traces", filter.sql, "")
	var pct PercentileMetrics
	err := p.pg.QueryRow(ctx, sql, filter.args...).Scan(&pct.P50, &pct.P95, &pct.P99)
	if err != nil && err != pgx.ErrNoRows {
		return PercentileMetrics{}, nil, apierr.Wrap(apierr.KindQuery, "scan percentiles", err)
	}
	return pct, nil, nil
}
