package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmobservatory/internal/span"
)

func TestHeadSamplerAlways(t *testing.T) {
	s := NewHeadSampler(1.0)
	assert.True(t, s.ShouldSample())
}

func TestHeadSamplerNever(t *testing.T) {
	s := NewHeadSampler(0.0)
	assert.False(t, s.ShouldSample())
}

func TestHeadSamplerProbability(t *testing.T) {
	s := NewHeadSampler(0.5)
	sampled := 0
	for i := 0; i < 10000; i++ {
		if s.ShouldSample() {
			sampled++
		}
	}
	frac := float64(sampled) / 10000.0
	assert.True(t, frac >= 0.48 && frac <= 0.52, "expected ~0.5, got %f", frac)
}

func buildSamplerSpan(t *testing.T, status span.Status, totalMs uint64, cost *float64) *span.Span {
	t.Helper()
	start := time.Now()
	end := start.Add(time.Duration(totalMs) * time.Millisecond)
	b := span.NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(span.ProviderOpenAI).
		Model("gpt-4").Input(span.TextInput("x")).Latency(span.NewLatency(start, end)).Status(status)
	if cost != nil {
		c := span.NewCost(*cost)
		b = b.Cost(c)
	}
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestTailSamplerAdmitsError(t *testing.T) {
	ts := NewTailSampler()
	s := buildSamplerSpan(t, span.StatusError, 10, nil)
	assert.True(t, ts.ShouldSample(s))
}

func TestTailSamplerAdmitsSlow(t *testing.T) {
	ts := NewTailSampler().WithSlowThresholdMs(1000)
	s := buildSamplerSpan(t, span.StatusOk, 2000, nil)
	assert.True(t, ts.ShouldSample(s))
}

func TestTailSamplerAdmitsExpensive(t *testing.T) {
	ts := NewTailSampler().WithExpensiveThresholdUSD(0.5)
	cost := 1.5
	s := buildSamplerSpan(t, span.StatusOk, 10, &cost)
	assert.True(t, ts.ShouldSample(s))
}

func TestTailSamplerRejectsOrdinary(t *testing.T) {
	ts := NewTailSampler()
	cost := 0.01
	s := buildSamplerSpan(t, span.StatusOk, 100, &cost)
	assert.False(t, ts.ShouldSample(s))
}
