// Package processor implements the span enrichment pipeline: PII redaction,
// cost calculation, and head/tail sampling, composed in a fixed order.
package processor

import (
	"context"

	"llmobservatory/internal/span"
)

// Stage processes a span, potentially modifying or dropping it. Returning a
// nil span with a nil error drops the span; a non-nil error is a fatal
// pipeline failure the caller must decide how to handle (nack upstream).
// PII, cost, and the samplers never return an error — only drop or forward.
type Stage interface {
	Process(ctx context.Context, s *span.Span) (*span.Span, error)
	Name() string
}

// Pipeline runs a fixed-order sequence of Stages over a span. C2's contract:
// PII redaction -> cost calculation -> head sampling -> tail sampling.
type Pipeline struct {
	stages []Stage
}

// New builds a Pipeline from stages in the order they should run.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process runs every stage in order, stopping early if a stage drops the
// span (returns nil, nil) or fails fatally (returns a non-nil error).
func (p *Pipeline) Process(ctx context.Context, s *span.Span) (*span.Span, error) {
	for _, stage := range p.stages {
		var err error
		s, err = stage.Process(ctx, s)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, nil
		}
	}
	return s, nil
}
