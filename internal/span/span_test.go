package span

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderRequiredFields(t *testing.T) {
	now := time.Now()
	latency := NewLatency(now, now)

	_, err := NewBuilder().Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "span_id is required")

	_, err = NewBuilder().SpanID("s1").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace_id is required")

	s, err := NewBuilder().
		SpanID("s1").
		TraceID("t1").
		Name("llm.completion").
		ProviderIs(ProviderOpenAI).
		Model("gpt-4").
		Input(TextInput("hello")).
		Latency(latency).
		Status(StatusOk).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "s1", s.SpanID)
	assert.True(t, s.IsSuccess())
}

func TestBuilderRejectsInconsistentTokenUsage(t *testing.T) {
	now := time.Now()
	_, err := NewBuilder().
		SpanID("s1").TraceID("t1").Name("n").ProviderIs(ProviderOpenAI).
		Model("gpt-4").Input(TextInput("hi")).Latency(NewLatency(now, now)).
		TokenUsage(TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 999}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_tokens")
}

func TestLatencyClampsEndBeforeStart(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Second)
	l := NewLatency(now, earlier)
	assert.Equal(t, uint64(0), l.TotalMs)
	assert.True(t, l.EndTime.Equal(l.StartTime))
}

func TestProviderRoundTrip(t *testing.T) {
	assert.Equal(t, "openai", ProviderOpenAI.String())
	assert.Equal(t, "self-hosted", ProviderSelfHosted.String())
	assert.Equal(t, "vertex-custom", CustomProvider("vertex-custom").String())
	assert.Equal(t, ProviderAnthropic, ProviderFromString("Anthropic"))
}

func TestInputJSONRoundTrip(t *testing.T) {
	in := ChatInput([]ChatMessage{{Role: "user", Content: "hi"}})
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Input
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, InputKindChat, out.Kind)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "hi", out.Messages[0].Content)
	assert.Empty(t, out.Prompt)
}

func TestSpanJSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	s, err := NewBuilder().
		SpanID("s1").TraceID("t1").Name("llm.completion").
		ProviderIs(ProviderAnthropic).Model("claude-3-5-sonnet-20241022").
		Input(TextInput("hello")).Latency(NewLatency(now, now)).
		Status(StatusOk).Build()
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out Span
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, s.SpanID, out.SpanID)
	assert.Equal(t, s.Provider.String(), out.Provider.String())
	assert.Equal(t, s.Input.Kind, out.Input.Kind)
}
