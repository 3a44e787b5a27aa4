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

func TestPipelineRedactsThenCostsThenSamples(t *testing.T) {
	pipeline := New(
		NewPIIRedactor(Mask),
		NewCostCalculator(pricing.Default(), true),
		NewHeadSampler(1.0),
		NewTailSampler(),
	)

	now := time.Now()
	usage := span.NewTokenUsage(1000, 500)
	s, err := span.NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(span.ProviderOpenAI).
		Model("gpt-4").
		Input(span.TextInput("contact alice@example.com")).
		TokenUsage(usage).
		Latency(span.NewLatency(now, now.Add(6*time.Second))).
		Status(span.StatusOk).
		Build()
	require.NoError(t, err)

	out, err := pipeline.Process(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "contact [EMAIL]", out.Input.Prompt)
	assert.InDelta(t, 0.06, out.Cost.AmountUSD, 1e-9)
}

func TestPipelineDropsViaHeadSampler(t *testing.T) {
	pipeline := New(
		NewPIIRedactor(Mask),
		NewCostCalculator(pricing.Default(), true),
		NewHeadSampler(0.0),
		NewTailSampler(),
	)

	now := time.Now()
	s, err := span.NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(span.ProviderOpenAI).
		Model("gpt-4").Input(span.TextInput("hi")).
		Latency(span.NewLatency(now, now)).Status(span.StatusOk).Build()
	require.NoError(t, err)

	out, err := pipeline.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestPipelineDropsOrdinaryViaTailSampler(t *testing.T) {
	pipeline := New(
		NewPIIRedactor(Mask),
		NewCostCalculator(pricing.Default(), true),
		NewTailSampler(),
	)

	now := time.Now()
	s, err := span.NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(span.ProviderOpenAI).
		Model("gpt-4").Input(span.TextInput("hi")).
		Latency(span.NewLatency(now, now.Add(100*time.Millisecond))).Status(span.StatusOk).Build()
	require.NoError(t, err)

	out, err := pipeline.Process(context.Background(), s)
	require.NoError(t, err)
	assert.Nil(t, out)
}
