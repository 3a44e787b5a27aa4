package span

import "fmt"

// Builder assembles a Span with required-field validation. Construct it with
// NewBuilder (which defaults the status to StatusUnset), chain the setters
// and call Build.
type Builder struct {
	spanID       *string
	traceID      *string
	parentSpanID *string
	name         *string
	provider     *Provider
	model        *string
	input        *Input
	output       *Output
	tokenUsage   *TokenUsage
	cost         *Cost
	latency      *Latency
	metadata     *Metadata
	status       Status
	attributes   map[string]interface{}
	events       []Event
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{status: StatusUnset} }

func (b *Builder) SpanID(id string) *Builder { b.spanID = &id; return b }

func (b *Builder) TraceID(id string) *Builder { b.traceID = &id; return b }

func (b *Builder) ParentSpanID(id string) *Builder { b.parentSpanID = &id; return b }

func (b *Builder) Name(name string) *Builder { b.name = &name; return b }

func (b *Builder) ProviderIs(p Provider) *Builder { b.provider = &p; return b }

func (b *Builder) Model(model string) *Builder { b.model = &model; return b }

func (b *Builder) Input(input Input) *Builder { b.input = &input; return b }

func (b *Builder) Output(output Output) *Builder { b.output = &output; return b }

func (b *Builder) TokenUsage(usage TokenUsage) *Builder { b.tokenUsage = &usage; return b }

func (b *Builder) Cost(cost Cost) *Builder { b.cost = &cost; return b }

func (b *Builder) Latency(latency Latency) *Builder { b.latency = &latency; return b }

func (b *Builder) Metadata(metadata Metadata) *Builder { b.metadata = &metadata; return b }

func (b *Builder) Status(status Status) *Builder { b.status = status; return b }

func (b *Builder) Attribute(key string, value interface{}) *Builder {
	if b.attributes == nil {
		b.attributes = make(map[string]interface{})
	}
	b.attributes[key] = value
	return b
}

func (b *Builder) Event(event Event) *Builder {
	b.events = append(b.events, event)
	return b
}

// Build validates required fields and returns the assembled Span. It reports
// the first missing required field rather than a generic "invalid span"
// message, since the caller is almost always an ingest handler that wants to
// reject the request with a precise reason.
func (b *Builder) Build() (*Span, error) {
	switch {
	case b.spanID == nil || *b.spanID == "":
		return nil, fmt.Errorf("span: span_id is required")
	case b.traceID == nil || *b.traceID == "":
		return nil, fmt.Errorf("span: trace_id is required")
	case b.name == nil:
		return nil, fmt.Errorf("span: name is required")
	case b.provider == nil:
		return nil, fmt.Errorf("span: provider is required")
	case b.model == nil:
		return nil, fmt.Errorf("span: model is required")
	case b.input == nil:
		return nil, fmt.Errorf("span: input is required")
	case b.latency == nil:
		return nil, fmt.Errorf("span: latency is required")
	}

	metadata := Metadata{}
	if b.metadata != nil {
		metadata = *b.metadata
	}

	if b.tokenUsage != nil {
		expected := b.tokenUsage.PromptTokens + b.tokenUsage.CompletionTokens
		if b.tokenUsage.TotalTokens != expected {
			return nil, fmt.Errorf("span: token_usage.total_tokens must equal prompt_tokens + completion_tokens")
		}
	}

	if b.cost != nil && b.cost.PromptCost != nil && b.cost.CompletionCost != nil {
		sum := *b.cost.PromptCost + *b.cost.CompletionCost
		if diff := sum - b.cost.AmountUSD; diff > 1e-9 || diff < -1e-9 {
			return nil, fmt.Errorf("span: cost.amount_usd must equal prompt_cost + completion_cost")
		}
	}

	return &Span{
		SpanID:       *b.spanID,
		TraceID:      *b.traceID,
		ParentSpanID: b.parentSpanID,
		Name:         *b.name,
		Provider:     *b.provider,
		Model:        *b.model,
		Input:        *b.input,
		Output:       b.output,
		TokenUsage:   b.tokenUsage,
		Cost:         b.cost,
		Latency:      *b.latency,
		Metadata:     metadata,
		Status:       b.status,
		Attributes:   b.attributes,
		Events:       b.events,
	}, nil
}
