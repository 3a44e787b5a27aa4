// Package storage holds the row-level entities, schema, and batching
// writers that persist enriched spans, metrics, and logs into the
// time-series store, plus the pool that backs them.
package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Trace is the metadata row for one trace, upserted idempotently on
// redelivery (primary key: trace_id).
type Trace struct {
	TraceID        string
	ServiceName    string
	RootSpanName   string
	StartTime      time.Time
	EndTime        time.Time
	DurationMs     float64
	SpanCount      int
	ConversationID *string
	UserID         *string
	CreatedAt      time.Time
}

// TraceSpan is one enriched LLM span row in the hypertable, keyed by
// (timestamp, trace_id, span_id). Append-only: a redelivered span_id is
// rejected by the primary key and the unique-violation is treated as
// success by the writer.
type TraceSpan struct {
	SpanID             string
	TraceID            string
	ParentSpanID       *string
	Timestamp          time.Time
	Provider           string
	Model              string
	StatusCode         string
	DurationMs         float64
	TTFTMs             *float64
	PromptTokens       *int64
	CompletionTokens   *int64
	TotalTokens        *int64
	TotalCostUSD       *float64
	PromptCostUSD      *float64
	CompletionCostUSD  *float64
	Input              json.RawMessage
	Output             json.RawMessage
	ConversationID     *string
	UserID             *string
	Environment        *string
	Tags               []string
	Attributes         json.RawMessage
	CreatedAt          time.Time
}

// TraceEvent is a point-in-time event attached to a span. Append-only,
// primary key is a generated UUID fixed at buffer time.
type TraceEvent struct {
	EventID    uuid.UUID
	TraceID    string
	SpanID     string
	Name       string
	Timestamp  time.Time
	Attributes json.RawMessage
}

// MetricType discriminates the kind of a Metric series.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is the metadata row for one named metric series, upserted
// idempotently (primary key: metric_name, service_name).
type Metric struct {
	MetricName  string
	ServiceName string
	Type        MetricType
	Unit        string
	Description string
	CreatedAt   time.Time
}

// MetricDataPoint is one sample for a Metric series. Append-only,
// primary key is a generated UUID fixed at buffer time.
type MetricDataPoint struct {
	DataPointID uuid.UUID
	MetricName  string
	ServiceName string
	Timestamp   time.Time
	Value       float64
	Attributes  json.RawMessage
}

// LogSeverity mirrors the OTLP severity number range, bucketed into six
// named levels.
type LogSeverity int32

const (
	LogSeverityTrace LogSeverity = 1
	LogSeverityDebug LogSeverity = 5
	LogSeverityInfo  LogSeverity = 9
	LogSeverityWarn  LogSeverity = 13
	LogSeverityError LogSeverity = 17
	LogSeverityFatal LogSeverity = 21
)

// ParseSeverity buckets a raw OTLP severity number into one of the six
// named levels, defaulting to Info for values outside the defined range.
func ParseSeverity(n int32) LogSeverity {
	switch {
	case n >= 1 && n <= 4:
		return LogSeverityTrace
	case n >= 5 && n <= 8:
		return LogSeverityDebug
	case n >= 9 && n <= 12:
		return LogSeverityInfo
	case n >= 13 && n <= 16:
		return LogSeverityWarn
	case n >= 17 && n <= 20:
		return LogSeverityError
	case n >= 21 && n <= 24:
		return LogSeverityFatal
	default:
		return LogSeverityInfo
	}
}

// LogRecord is one log record row. Append-only, primary key is a
// generated UUID fixed at buffer time.
type LogRecord struct {
	ID                 uuid.UUID
	Timestamp          time.Time
	ObservedTimestamp  time.Time
	SeverityNumber     int32
	SeverityText       string
	Body               string
	ServiceName        string
	TraceID            *string
	SpanID             *string
	TraceFlags         *int32
	Attributes         json.RawMessage
	ResourceAttributes json.RawMessage
	ScopeName          *string
	ScopeVersion       *string
	ScopeAttributes    json.RawMessage
	CreatedAt          time.Time
}

// IsError reports whether the record is at Error severity or above.
func (r LogRecord) IsError() bool {
	return r.SeverityNumber >= int32(LogSeverityError)
}
