package processor

import (
	"context"
	"math/rand"

	"llmobservatory/internal/span"
)

// HeadSampler is a stateless probabilistic filter keyed off a configured
// rate, applied with no knowledge of the eventual outcome. r >= 1 passes
// everything; r <= 0 drops everything.
type HeadSampler struct {
	rate float64
}

// NewHeadSampler builds a HeadSampler with the given rate in [0, 1].
func NewHeadSampler(rate float64) *HeadSampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &HeadSampler{rate: rate}
}

func (h *HeadSampler) Name() string { return "head_sampler" }

// ShouldSample draws from a uniform distribution against the configured
// rate.
func (h *HeadSampler) ShouldSample() bool {
	if h.rate >= 1.0 {
		return true
	}
	if h.rate <= 0.0 {
		return false
	}
	return rand.Float64() < h.rate
}

// Process implements Stage. Samplers never fail; they only drop.
func (h *HeadSampler) Process(_ context.Context, s *span.Span) (*span.Span, error) {
	if h.ShouldSample() {
		return s, nil
	}
	return nil, nil
}

// TailSampler is a content-aware filter applied after enrichment. It admits
// a span iff ANY configured predicate matches: the decision function is the
// OR of error/slow/expensive, never an AND.
type TailSampler struct {
	alwaysSampleErrors    bool
	slowThresholdMs       uint64
	expensiveThresholdUSD float64
}

// NewTailSampler builds a TailSampler with its default thresholds: always
// sample errors, slow threshold 5000ms, expensive threshold $1.00.
func NewTailSampler() *TailSampler {
	return &TailSampler{
		alwaysSampleErrors:    true,
		slowThresholdMs:       5000,
		expensiveThresholdUSD: 1.0,
	}
}

func (t *TailSampler) WithSampleErrors(sample bool) *TailSampler {
	t.alwaysSampleErrors = sample
	return t
}

func (t *TailSampler) WithSlowThresholdMs(thresholdMs uint64) *TailSampler {
	t.slowThresholdMs = thresholdMs
	return t
}

func (t *TailSampler) WithExpensiveThresholdUSD(thresholdUSD float64) *TailSampler {
	t.expensiveThresholdUSD = thresholdUSD
	return t
}

func (t *TailSampler) Name() string { return "tail_sampler" }

// ShouldSample reports whether s satisfies at least one admit-criterion.
func (t *TailSampler) ShouldSample(s *span.Span) bool {
	if t.alwaysSampleErrors && s.IsError() {
		return true
	}
	if s.DurationMs() >= t.slowThresholdMs {
		return true
	}
	if cost, ok := s.TotalCostUSD(); ok && cost >= t.expensiveThresholdUSD {
		return true
	}
	return false
}

// Process implements Stage.
func (t *TailSampler) Process(_ context.Context, s *span.Span) (*span.Span, error) {
	if t.ShouldSample(s) {
		return s, nil
	}
	return nil, nil
}
