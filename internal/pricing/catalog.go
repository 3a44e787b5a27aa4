// Package pricing holds the process-wide model→price catalog used by the
// cost-calculation processor stage.
package pricing

import (
	"fmt"
	"strings"
)

// Entry is one pricing catalog row.
type Entry struct {
	Model               string
	PromptCostPer1k     float64
	CompletionCostPer1k float64
}

// Catalog is an immutable model → Entry lookup table. The zero value is not
// usable; construct with New or Default.
type Catalog struct {
	entries map[string]Entry
}

// UnknownModelError reports a pricing lookup miss. It is non-fatal to
// callers: the cost processor treats it as "leave cost unset and continue".
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("pricing: unknown model %q", e.Model)
}

// New builds a Catalog from an explicit entry list, built once at process
// start and never mutated afterward.
func New(entries []Entry) *Catalog {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Model] = e
	}
	return &Catalog{entries: m}
}

// Default returns the catalog embedded at compile time, seeded with
// publicly documented per-1k-token pricing for the major hosted providers.
func Default() *Catalog {
	return New(defaultEntries)
}

// defaultEntries is the embedded pricing data. Prices are USD per 1000
// tokens. This is not a hot-reloadable table: updating pricing means editing
// this slice and redeploying.
var defaultEntries = []Entry{
	{Model: "gpt-4", PromptCostPer1k: 0.03, CompletionCostPer1k: 0.06},
	{Model: "gpt-4-32k", PromptCostPer1k: 0.06, CompletionCostPer1k: 0.12},
	{Model: "gpt-4-turbo", PromptCostPer1k: 0.01, CompletionCostPer1k: 0.03},
	{Model: "gpt-4o", PromptCostPer1k: 0.005, CompletionCostPer1k: 0.015},
	{Model: "gpt-4o-mini", PromptCostPer1k: 0.00015, CompletionCostPer1k: 0.0006},
	{Model: "gpt-3.5-turbo", PromptCostPer1k: 0.0005, CompletionCostPer1k: 0.0015},

	{Model: "claude-3-opus-20240229", PromptCostPer1k: 0.015, CompletionCostPer1k: 0.075},
	{Model: "claude-3-sonnet-20240229", PromptCostPer1k: 0.003, CompletionCostPer1k: 0.015},
	{Model: "claude-3-haiku-20240307", PromptCostPer1k: 0.00025, CompletionCostPer1k: 0.00125},
	{Model: "claude-3-5-sonnet-20241022", PromptCostPer1k: 0.003, CompletionCostPer1k: 0.015},
	{Model: "claude-3-5-haiku-20241022", PromptCostPer1k: 0.0008, CompletionCostPer1k: 0.004},
	{Model: "claude-sonnet-4.5", PromptCostPer1k: 0.003, CompletionCostPer1k: 0.015},

	{Model: "gemini-1.5-pro", PromptCostPer1k: 0.00125, CompletionCostPer1k: 0.005},
	{Model: "gemini-1.5-flash", PromptCostPer1k: 0.000075, CompletionCostPer1k: 0.0003},

	{Model: "mistral-large-latest", PromptCostPer1k: 0.002, CompletionCostPer1k: 0.006},
	{Model: "mistral-small-latest", PromptCostPer1k: 0.0002, CompletionCostPer1k: 0.0006},

	{Model: "command-r-plus", PromptCostPer1k: 0.0025, CompletionCostPer1k: 0.01},
}

// Calculate returns the prompt, completion, and total cost for the given
// model and token counts. A miss returns *UnknownModelError; callers must
// treat this as non-fatal and leave cost unset.
func (c *Catalog) Calculate(model string, promptTokens, completionTokens uint32) (promptCost, completionCost, total float64, err error) {
	entry, ok := c.entries[model]
	if !ok {
		return 0, 0, 0, &UnknownModelError{Model: model}
	}
	promptCost = (float64(promptTokens) / 1000.0) * entry.PromptCostPer1k
	completionCost = (float64(completionTokens) / 1000.0) * entry.CompletionCostPer1k
	return promptCost, completionCost, promptCost + completionCost, nil
}

// Lookup returns the raw catalog entry for model, if present.
func (c *Catalog) Lookup(model string) (Entry, bool) {
	e, ok := c.entries[model]
	return e, ok
}

// Family classifies a model name by substring heuristic when it isn't an
// exact catalog hit. This is advisory only: Calculate never consults it,
// and it never fabricates a price.
type Family string

const (
	FamilyOpus    Family = "opus"
	FamilySonnet  Family = "sonnet"
	FamilyHaiku   Family = "haiku"
	FamilyGPT4    Family = "gpt-4"
	FamilyGPT35   Family = "gpt-3.5"
	FamilyUnknown Family = "unknown"
)

// ClassifyFamily applies the substring heuristic used throughout the
// original pricing engine: exact catalog membership is checked elsewhere,
// this only buckets a model name into a coarse family for advisory purposes.
func ClassifyFamily(model string) Family {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "opus"):
		return FamilyOpus
	case strings.Contains(m, "sonnet"):
		return FamilySonnet
	case strings.Contains(m, "haiku"):
		return FamilyHaiku
	case strings.Contains(m, "gpt-4"):
		return FamilyGPT4
	case strings.Contains(m, "gpt-3.5"):
		return FamilyGPT35
	default:
		return FamilyUnknown
	}
}
