package span

// Span represents a single LLM operation (request/response) as an
// OpenTelemetry span, enriched with LLM-specific fields.
type Span struct {
	SpanID        string                 `json:"span_id"`
	TraceID       string                 `json:"trace_id"`
	ParentSpanID  *string                `json:"parent_span_id,omitempty"`
	Name          string                 `json:"name"`
	Provider      Provider               `json:"provider"`
	Model         string                 `json:"model"`
	Input         Input                  `json:"input"`
	Output        *Output                `json:"output,omitempty"`
	TokenUsage    *TokenUsage            `json:"token_usage,omitempty"`
	Cost          *Cost                  `json:"cost,omitempty"`
	Latency       Latency                `json:"latency"`
	Metadata      Metadata               `json:"metadata"`
	Status        Status                 `json:"status"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Events        []Event                `json:"events,omitempty"`
}

// IsSuccess reports whether the span completed without error.
func (s *Span) IsSuccess() bool { return s.Status == StatusOk }

// IsError reports whether the span represents a failed operation.
func (s *Span) IsError() bool { return s.Status == StatusError }

// TotalTokens returns the total token count, if token usage was recorded.
func (s *Span) TotalTokens() (uint32, bool) {
	if s.TokenUsage == nil {
		return 0, false
	}
	return s.TokenUsage.TotalTokens, true
}

// TotalCostUSD returns the total cost, if it was computed.
func (s *Span) TotalCostUSD() (float64, bool) {
	if s.Cost == nil {
		return 0, false
	}
	return s.Cost.AmountUSD, true
}

// DurationMs returns the recorded call duration.
func (s *Span) DurationMs() uint64 { return s.Latency.TotalMs }
