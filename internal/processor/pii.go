package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"llmobservatory/internal/span"
)

// RedactionStrategy selects how a matched PII substring is rewritten.
type RedactionStrategy int

const (
	// Mask replaces the match with a fixed placeholder ([EMAIL], etc).
	Mask RedactionStrategy = iota
	// Hash replaces the match with a short hex digest of itself.
	Hash
	// Remove deletes the match entirely.
	Remove
)

// Pattern identifies one PII category detected by the redactor.
type Pattern int

const (
	PatternEmail Pattern = iota
	PatternPhone
	PatternSSN
	PatternCreditCard
	PatternIPAddress
)

// patternDef pairs a regex with its mask placeholder. Order here is the
// fixed redaction order: email is applied before phone/credit-card so an
// email address containing digits is masked as [EMAIL] first rather than
// being partially claimed by a digit-sequence pattern.
type patternDef struct {
	pattern     Pattern
	regex       *regexp.Regexp
	placeholder string
}

var defaultPatternDefs = []patternDef{
	{PatternEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{PatternPhone, regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`), "[PHONE]"},
	{PatternSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{PatternCreditCard, regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "[CC]"},
	{PatternIPAddress, regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), "[IP]"},
}

// PIIRedactor is the first pipeline stage: it applies regex-based PII
// detection to every text-bearing field of a span's input and output.
// Non-text modalities (image/audio parts) pass through untouched. This
// stage never drops a span.
type PIIRedactor struct {
	strategy RedactionStrategy
	defs     []patternDef
}

// NewPIIRedactor builds a redactor with the default pattern set (email,
// phone, SSN, credit card, IP, in that fixed order) and the given strategy.
func NewPIIRedactor(strategy RedactionStrategy) *PIIRedactor {
	return &PIIRedactor{strategy: strategy, defs: defaultPatternDefs}
}

// WithPatterns restricts the redactor to a subset of patterns, preserving
// the fixed relative order defined by defaultPatternDefs.
func (r *PIIRedactor) WithPatterns(patterns ...Pattern) *PIIRedactor {
	want := make(map[Pattern]bool, len(patterns))
	for _, p := range patterns {
		want[p] = true
	}
	filtered := make([]patternDef, 0, len(patterns))
	for _, d := range defaultPatternDefs {
		if want[d.pattern] {
			filtered = append(filtered, d)
		}
	}
	r.defs = filtered
	return r
}

func (r *PIIRedactor) Name() string { return "pii_redaction" }

// Process implements Stage.
func (r *PIIRedactor) Process(_ context.Context, s *span.Span) (*span.Span, error) {
	s.Input = r.redactInput(s.Input)
	if s.Output != nil {
		redacted := *s.Output
		redacted.Content = r.redactText(s.Output.Content)
		s.Output = &redacted
	}
	return s, nil
}

func (r *PIIRedactor) redactInput(in span.Input) span.Input {
	switch in.Kind {
	case span.InputKindText:
		in.Prompt = r.redactText(in.Prompt)
	case span.InputKindChat:
		messages := make([]span.ChatMessage, len(in.Messages))
		for i, m := range in.Messages {
			m.Content = r.redactText(m.Content)
			messages[i] = m
		}
		in.Messages = messages
	case span.InputKindMultimodal:
		parts := make([]span.ContentPart, len(in.Parts))
		for i, p := range in.Parts {
			if p.Kind == span.ContentPartText {
				p.Text = r.redactText(p.Text)
			}
			parts[i] = p
		}
		in.Parts = parts
	}
	return in
}

func (r *PIIRedactor) redactText(text string) string {
	redacted := text
	for _, d := range r.defs {
		redacted = r.redactPattern(redacted, d)
	}
	return redacted
}

func (r *PIIRedactor) redactPattern(text string, d patternDef) string {
	switch r.strategy {
	case Remove:
		return d.regex.ReplaceAllString(text, "")
	case Hash:
		return d.regex.ReplaceAllStringFunc(text, func(match string) string {
			sum := sha256.Sum256([]byte(match))
			return "[" + hex.EncodeToString(sum[:6]) + "]"
		})
	default: // Mask
		return d.regex.ReplaceAllString(text, d.placeholder)
	}
}
