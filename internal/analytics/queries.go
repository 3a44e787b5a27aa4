package analytics

import (
	"strconv"
	"strings"
)

// SQL query templates, parameterized by {table}, {where_clause}, and
// {dimension} placeholders filled in by renderTemplate from buildFilter's output.
// {table} is always resolved from Granularity.table() so callers never
// interpolate caller-controlled strings into the template itself.
const (
	costTimeSeriesTemplate = `
SELECT
	bucket,
	provider,
	model,
	COALESCE(SUM(total_cost_usd), 0) AS total_cost_usd,
	COALESCE(SUM(prompt_cost_usd), 0) AS prompt_cost_usd,
	COALESCE(SUM(completion_cost_usd), 0) AS completion_cost_usd,
	SUM(request_count) AS request_count
FROM {table}
{where_clause}
GROUP BY bucket, provider, model
ORDER BY bucket`

	costBreakdownTemplate = `
SELECT
	{dimension} AS dimension,
	COALESCE(SUM(total_cost_usd), 0) AS total_cost_usd,
	SUM(request_count) AS request_count
FROM {table}
{where_clause}
GROUP BY {dimension}
ORDER BY total_cost_usd DESC
LIMIT 20`

	performanceTimeSeriesTemplate = `
SELECT
	bucket,
	AVG(avg_duration_ms) AS avg_duration_ms,
	MIN(min_duration_ms) AS min_duration_ms,
	MAX(max_duration_ms) AS max_duration_ms,
	SUM(request_count) AS request_count,
	COALESCE(SUM(total_tokens), 0) AS total_tokens
FROM {table}
{where_clause}
GROUP BY bucket
ORDER BY bucket`

	percentilesTemplate = `
SELECT
	PERCENTILE_CONT(0.50) WITHIN GROUP (ORDER BY duration_ms) AS p50,
	PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY duration_ms) AS p95,
	PERCENTILE_CONT(0.99) WITHIN GROUP (ORDER BY duration_ms) AS p99
FROM llm_traces
{where_clause}`

	modelMetricsTemplate = `
SELECT
	provider,
	model,
	AVG(duration_ms) AS avg_duration_ms,
	COALESCE(SUM(total_cost_usd), 0) AS total_cost_usd,
	COUNT(*) AS request_count,
	SUM(CASE WHEN status_code = 'OK' THEN 1 ELSE 0 END) AS success_count,
	SUM(total_tokens) AS total_tokens
FROM llm_traces
WHERE ts >= $1 AND ts <= $2 AND model = $3
GROUP BY provider, model`

	totalCostTemplate = `
SELECT COALESCE(SUM(total_cost_usd), 0) AS total
FROM {table}
{where_clause}`
)

// filterClause builds the WHERE clause for the allowed pushdown
// dimensions {provider, model, environment, user_id, time-range}. args
// is the positional bind list the caller should pass to the executed
// query alongside the clause. environment and user_id are bound only
// when raw is true: the continuous-aggregate tables have no such
// columns, so queries against them are not filtered on those two.
type filterClause struct {
	sql  string
	args []any
}

func buildFilter(q Query, raw bool) filterClause {
	var conds []string
	var args []any
	n := 0
	bind := func(v any) string {
		n++
		args = append(args, v)
		return placeholder(n)
	}

	timeCol := "bucket"
	if raw {
		timeCol = "ts"
	}
	conds = append(conds, timeCol+" >= "+bind(q.StartTime))
	conds = append(conds, timeCol+" <= "+bind(q.EndTime))

	if q.Provider != "" {
		conds = append(conds, "provider = "+bind(q.Provider))
	}
	if q.Model != "" {
		conds = append(conds, "model = "+bind(q.Model))
	}
	if raw {
		if q.Environment != "" {
			conds = append(conds, "environment = "+bind(q.Environment))
		}
		if q.UserID != "" {
			conds = append(conds, "user_id = "+bind(q.UserID))
		}
	}

	return filterClause{sql: "WHERE " + strings.Join(conds, " AND "), args: args}
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func renderTemplate(tmpl, table, whereClause, dimension string) string {
	r := strings.NewReplacer("{table}", table, "{where_clause}", whereClause, "{dimension}", dimension)
	return r.Replace(tmpl)
}
