package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmobservatory/internal/pricing"
	"llmobservatory/internal/span"
)

func buildSpanWithUsage(t *testing.T, model string, usage *span.TokenUsage, preset *span.Cost) *span.Span {
	t.Helper()
	now := time.Now()
	b := span.NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(span.ProviderOpenAI).
		Model(model).Input(span.TextInput("x")).Latency(span.NewLatency(now, now)).Status(span.StatusOk)
	if usage != nil {
		b = b.TokenUsage(*usage)
	}
	if preset != nil {
		b = b.Cost(*preset)
	}
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestCostCalculationGPT4Breakdown(t *testing.T) {
	calc := NewCostCalculator(pricing.Default(), true)
	usage := span.NewTokenUsage(1000, 500)
	s := buildSpanWithUsage(t, "gpt-4", &usage, nil)

	out, err := calc.Process(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, out.Cost)
	assert.InDelta(t, 0.06, out.Cost.AmountUSD, 1e-9)
	require.NotNil(t, out.Cost.PromptCost)
	assert.InDelta(t, 0.03, *out.Cost.PromptCost, 1e-9)
	assert.InDelta(t, 0.03, *out.Cost.CompletionCost, 1e-9)
}

func TestCostCalculationTotalOnly(t *testing.T) {
	calc := NewCostCalculator(pricing.Default(), false)
	usage := span.NewTokenUsage(1000, 500)
	s := buildSpanWithUsage(t, "gpt-4", &usage, nil)

	out, err := calc.Process(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, out.Cost)
	assert.InDelta(t, 0.06, out.Cost.AmountUSD, 1e-9)
	assert.Nil(t, out.Cost.PromptCost)
}

func TestCostCalculationNoopWhenAlreadySet(t *testing.T) {
	calc := NewCostCalculator(pricing.Default(), true)
	usage := span.NewTokenUsage(1000, 500)
	preset := span.NewCost(0.99)
	s := buildSpanWithUsage(t, "gpt-4", &usage, &preset)

	out, err := calc.Process(context.Background(), s)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, out.Cost.AmountUSD, 1e-9)
}

func TestCostCalculationNoopWithoutTokenUsage(t *testing.T) {
	calc := NewCostCalculator(pricing.Default(), true)
	s := buildSpanWithUsage(t, "gpt-4", nil, nil)

	out, err := calc.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, out.Cost)
}

func TestCostCalculationUnknownModelLeavesCostNil(t *testing.T) {
	calc := NewCostCalculator(pricing.Default(), true)
	usage := span.NewTokenUsage(100, 100)
	s := buildSpanWithUsage(t, "some-unreleased-model", &usage, nil)

	out, err := calc.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, out.Cost)
}
