package processor

import (
	"context"

	"llmobservatory/internal/pricing"
	"llmobservatory/internal/span"
)

// CostCalculator is the second pipeline stage: it fills span.Cost from the
// pricing catalog when token usage is present and cost hasn't already been
// set upstream. It never drops a span and never fails the pipeline — an
// unknown model just leaves cost unset.
type CostCalculator struct {
	catalog          *pricing.Catalog
	includeBreakdown bool
}

// NewCostCalculator builds a calculator against catalog. includeBreakdown
// controls whether Cost carries the prompt/completion split or a total-only
// amount.
func NewCostCalculator(catalog *pricing.Catalog, includeBreakdown bool) *CostCalculator {
	return &CostCalculator{catalog: catalog, includeBreakdown: includeBreakdown}
}

func (c *CostCalculator) Name() string { return "cost_calculation" }

// Process implements Stage.
func (c *CostCalculator) Process(_ context.Context, s *span.Span) (*span.Span, error) {
	if s.Cost != nil {
		return s, nil
	}
	if s.TokenUsage == nil {
		return s, nil
	}

	promptCost, completionCost, total, err := c.catalog.Calculate(
		s.Model, s.TokenUsage.PromptTokens, s.TokenUsage.CompletionTokens,
	)
	if err != nil {
		// Unknown model: recoverable, leave cost unset and continue.
		return s, nil
	}

	if c.includeBreakdown {
		cost := span.NewCostWithBreakdown(promptCost, completionCost)
		s.Cost = &cost
	} else {
		cost := span.NewCost(total)
		s.Cost = &cost
	}
	return s, nil
}
