// Package span defines the canonical in-memory representation of a single
// LLM call, following OpenTelemetry GenAI semantic conventions.
package span

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the LLM vendor that served a span. It mirrors a tagged
// union: every known provider is a constant, and Custom names carry through
// in the unexported name field for anything else.
type Provider struct {
	kind kind
	name string
}

type kind uint8

const (
	kindOpenAI kind = iota
	kindAnthropic
	kindGoogle
	kindMistral
	kindCohere
	kindSelfHosted
	kindCustom
)

var (
	ProviderOpenAI     = Provider{kind: kindOpenAI}
	ProviderAnthropic  = Provider{kind: kindAnthropic}
	ProviderGoogle     = Provider{kind: kindGoogle}
	ProviderMistral    = Provider{kind: kindMistral}
	ProviderCohere     = Provider{kind: kindCohere}
	ProviderSelfHosted = Provider{kind: kindSelfHosted}
)

// CustomProvider builds a Provider for a vendor not in the known set.
func CustomProvider(name string) Provider {
	return Provider{kind: kindCustom, name: name}
}

// String returns the canonical lowercase form used as the SQL provider
// column value and in cache keys.
func (p Provider) String() string {
	switch p.kind {
	case kindOpenAI:
		return "openai"
	case kindAnthropic:
		return "anthropic"
	case kindGoogle:
		return "google"
	case kindMistral:
		return "mistral"
	case kindCohere:
		return "cohere"
	case kindSelfHosted:
		return "self-hosted"
	case kindCustom:
		return p.name
	default:
		return "unknown"
	}
}

// ProviderFromString parses the canonical form back into a Provider. Unknown
// strings become a Custom provider rather than an error, since the column is
// free-form at the storage layer.
func ProviderFromString(s string) Provider {
	switch strings.ToLower(s) {
	case "openai":
		return ProviderOpenAI
	case "anthropic":
		return ProviderAnthropic
	case "google":
		return ProviderGoogle
	case "mistral":
		return ProviderMistral
	case "cohere":
		return ProviderCohere
	case "self-hosted":
		return ProviderSelfHosted
	default:
		return CustomProvider(s)
	}
}

func (p Provider) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Provider) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*p = ProviderFromString(s)
	return nil
}

// TokenUsage reports token counts for a completed LLM call.
type TokenUsage struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
}

// NewTokenUsage constructs TokenUsage, deriving TotalTokens as the invariant
// requires.
func NewTokenUsage(promptTokens, completionTokens uint32) TokenUsage {
	return TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// Cost reports the monetary cost of an LLM call.
type Cost struct {
	AmountUSD      float64  `json:"amount_usd"`
	Currency       string   `json:"currency"`
	PromptCost     *float64 `json:"prompt_cost,omitempty"`
	CompletionCost *float64 `json:"completion_cost,omitempty"`
}

// NewCost builds a total-only Cost.
func NewCost(amountUSD float64) Cost {
	return Cost{AmountUSD: amountUSD, Currency: "USD"}
}

// NewCostWithBreakdown builds a Cost carrying the prompt/completion split;
// AmountUSD is always their sum.
func NewCostWithBreakdown(promptCost, completionCost float64) Cost {
	return Cost{
		AmountUSD:      promptCost + completionCost,
		Currency:       "USD",
		PromptCost:     &promptCost,
		CompletionCost: &completionCost,
	}
}

// Metadata carries caller-supplied context and free-form tags.
type Metadata struct {
	UserID      *string           `json:"user_id,omitempty"`
	SessionID   *string           `json:"session_id,omitempty"`
	RequestID   *uuid.UUID        `json:"request_id,omitempty"`
	Environment *string           `json:"environment,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Latency holds the timing of a call. TotalMs is derived from start/end at
// construction and never recomputed afterward.
type Latency struct {
	TotalMs   uint64    `json:"total_ms"`
	TTFTMs    *uint64   `json:"ttft_ms,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// NewLatency builds Latency from a start/end pair. end is clamped to start
// if it precedes it, keeping the end >= start invariant and TotalMs >= 0.
func NewLatency(start, end time.Time) Latency {
	if end.Before(start) {
		end = start
	}
	return Latency{
		TotalMs:   uint64(end.Sub(start).Milliseconds()),
		StartTime: start,
		EndTime:   end,
	}
}

// WithTTFT sets time-to-first-token on a copy of l.
func (l Latency) WithTTFT(ttftMs uint64) Latency {
	l.TTFTMs = &ttftMs
	return l
}

// Status mirrors the OpenTelemetry span status enum.
type Status string

const (
	StatusOk     Status = "OK"
	StatusError  Status = "ERROR"
	StatusUnset  Status = "UNSET"
)

// Event is a timestamped occurrence recorded during span execution.
type Event struct {
	Name       string                 `json:"name"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}
