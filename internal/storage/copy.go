package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"llmobservatory/internal/apierr"
)

// uniqueViolationCode is the Postgres SQLSTATE for a primary-key/unique
// constraint violation.
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
// A retried append-only batch that collides on its generated UUID primary
// key observes this instead of success; the writer treats it as success
// since the earlier delivery already persisted the row.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}

func copyErr(op string, err error) error {
	if isUniqueViolation(err) {
		return err
	}
	return apierr.Wrap(apierr.KindQuery, op, err)
}

// CopyWriter issues pgx.CopyFrom bulk loads, one per entity table, using
// the binary wire protocol instead of parameterized INSERT.
type CopyWriter struct {
	pg *pgxpool.Pool
}

// NewCopyWriter constructs a CopyWriter over the given pool.
func NewCopyWriter(pg *pgxpool.Pool) *CopyWriter {
	return &CopyWriter{pg: pg}
}

// WriteTraces upserts trace metadata rows via a temp-table COPY + merge,
// since COPY itself cannot express ON CONFLICT. Traces are few relative
// to spans, so the extra round-trip is acceptable.
func (c *CopyWriter) WriteTraces(ctx context.Context, rows []Trace) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := c.pg.Begin(ctx)
	if err != nil {
		return copyErr("begin traces copy", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE TEMP TABLE traces_staging (LIKE traces INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return copyErr("create traces staging table", err)
	}

	cols := []string{"trace_id", "service_name", "root_span_name", "start_time", "end_time",
		"duration_ms", "span_count", "conversation_id", "user_id", "created_at"}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"traces_staging"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.TraceID, r.ServiceName, r.RootSpanName, r.StartTime, r.EndTime,
				r.DurationMs, r.SpanCount, r.ConversationID, r.UserID, r.CreatedAt}, nil
		}))
	if err != nil {
		return copyErr("copy traces to staging", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO traces SELECT * FROM traces_staging
		ON CONFLICT (trace_id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			duration_ms = EXCLUDED.duration_ms,
			span_count = EXCLUDED.span_count
	`)
	if err != nil {
		return copyErr("merge traces staging", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return copyErr("commit traces copy", err)
	}
	return nil
}

// WriteSpans bulk-loads enriched spans into the hypertable. Append-only;
// a retried span_id is rejected by the primary key.
func (c *CopyWriter) WriteSpans(ctx context.Context, rows []TraceSpan) error {
	if len(rows) == 0 {
		return nil
	}
	cols := []string{"span_id", "trace_id", "parent_span_id", "ts", "provider", "model",
		"status_code", "duration_ms", "ttft_ms", "prompt_tokens", "completion_tokens",
		"total_tokens", "total_cost_usd", "prompt_cost_usd", "completion_cost_usd",
		"input", "output", "conversation_id", "user_id", "environment", "tags",
		"attributes", "created_at"}
	_, err := c.pg.CopyFrom(ctx, pgx.Identifier{"llm_traces"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.SpanID, r.TraceID, r.ParentSpanID, r.Timestamp, r.Provider, r.Model,
				r.StatusCode, r.DurationMs, r.TTFTMs, r.PromptTokens, r.CompletionTokens,
				r.TotalTokens, r.TotalCostUSD, r.PromptCostUSD, r.CompletionCostUSD,
				r.Input, r.Output, r.ConversationID, r.UserID, r.Environment, r.Tags,
				r.Attributes, r.CreatedAt}, nil
		}))
	if err != nil {
		return copyErr("copy spans", err)
	}
	return nil
}

// WriteEvents bulk-loads trace events. Append-only, primary key is a
// generated UUID fixed at buffer time.
func (c *CopyWriter) WriteEvents(ctx context.Context, rows []TraceEvent) error {
	if len(rows) == 0 {
		return nil
	}
	cols := []string{"event_id", "trace_id", "span_id", "name", "ts", "attributes"}
	_, err := c.pg.CopyFrom(ctx, pgx.Identifier{"trace_events"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.EventID, r.TraceID, r.SpanID, r.Name, r.Timestamp, r.Attributes}, nil
		}))
	if err != nil {
		return copyErr("copy trace events", err)
	}
	return nil
}

// WriteMetrics upserts metric series metadata, the same staging-table
// pattern as WriteTraces.
func (c *CopyWriter) WriteMetrics(ctx context.Context, rows []Metric) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := c.pg.Begin(ctx)
	if err != nil {
		return copyErr("begin metrics copy", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE TEMP TABLE metrics_staging (LIKE metrics INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return copyErr("create metrics staging table", err)
	}

	cols := []string{"metric_name", "service_name", "type", "unit", "description", "created_at"}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"metrics_staging"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.MetricName, r.ServiceName, string(r.Type), r.Unit, r.Description, r.CreatedAt}, nil
		}))
	if err != nil {
		return copyErr("copy metrics to staging", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO metrics SELECT * FROM metrics_staging
		ON CONFLICT (metric_name, service_name) DO UPDATE SET
			unit = EXCLUDED.unit,
			description = EXCLUDED.description
	`)
	if err != nil {
		return copyErr("merge metrics staging", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return copyErr("commit metrics copy", err)
	}
	return nil
}

// WriteDataPoints bulk-loads metric samples. Append-only, primary key is
// a generated UUID fixed at buffer time.
func (c *CopyWriter) WriteDataPoints(ctx context.Context, rows []MetricDataPoint) error {
	if len(rows) == 0 {
		return nil
	}
	cols := []string{"data_point_id", "metric_name", "service_name", "ts", "value", "attributes"}
	_, err := c.pg.CopyFrom(ctx, pgx.Identifier{"metric_data_points"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.DataPointID, r.MetricName, r.ServiceName, r.Timestamp, r.Value, r.Attributes}, nil
		}))
	if err != nil {
		return copyErr("copy metric data points", err)
	}
	return nil
}

// WriteLogs bulk-loads log records. Append-only, primary key is a
// generated UUID fixed at buffer time.
func (c *CopyWriter) WriteLogs(ctx context.Context, rows []LogRecord) error {
	if len(rows) == 0 {
		return nil
	}
	cols := []string{"id", "ts", "observed_ts", "severity_number", "severity_text", "body",
		"service_name", "trace_id", "span_id", "trace_flags", "attributes",
		"resource_attributes", "scope_name", "scope_version", "scope_attributes", "created_at"}
	_, err := c.pg.CopyFrom(ctx, pgx.Identifier{"logs"}, cols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ID, r.Timestamp, r.ObservedTimestamp, r.SeverityNumber, r.SeverityText,
				r.Body, r.ServiceName, r.TraceID, r.SpanID, r.TraceFlags, r.Attributes,
				r.ResourceAttributes, r.ScopeName, r.ScopeVersion, r.ScopeAttributes, r.CreatedAt}, nil
		}))
	if err != nil {
		return copyErr("copy logs", err)
	}
	return nil
}
