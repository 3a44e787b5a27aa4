package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateGPT4(t *testing.T) {
	cat := Default()
	promptCost, completionCost, total, err := cat.Calculate("gpt-4", 1000, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, promptCost, 1e-9)
	assert.InDelta(t, 0.03, completionCost, 1e-9)
	assert.InDelta(t, 0.06, total, 1e-9)
}

func TestCalculateClaudeSonnet(t *testing.T) {
	cat := Default()
	_, _, total, err := cat.Calculate("claude-3-5-sonnet-20241022", 1000, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.018, total, 1e-9)
}

func TestCalculateUnknownModel(t *testing.T) {
	cat := Default()
	_, _, _, err := cat.Calculate("some-unreleased-model", 10, 10)
	require.Error(t, err)
	var unknown *UnknownModelError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "some-unreleased-model", unknown.Model)
}

func TestClassifyFamily(t *testing.T) {
	assert.Equal(t, FamilyOpus, ClassifyFamily("claude-3-opus-20240229"))
	assert.Equal(t, FamilySonnet, ClassifyFamily("claude-3-5-sonnet-20241022"))
	assert.Equal(t, FamilyHaiku, ClassifyFamily("claude-3-haiku-20240307"))
	assert.Equal(t, FamilyUnknown, ClassifyFamily("some-new-model"))
}

func TestCustomCatalog(t *testing.T) {
	cat := New([]Entry{{Model: "local-llama", PromptCostPer1k: 0, CompletionCostPer1k: 0}})
	_, _, total, err := cat.Calculate("local-llama", 5000, 5000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, ok := cat.Lookup("gpt-4")
	assert.False(t, ok)
}
