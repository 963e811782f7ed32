package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/raglab/docquery/internal/core/ports"
)

// CompressionUpscalingExpander rewrites out-of-band queries before retrieval:
// very short questions are enriched with related terms, overly long ones are
// condensed. Questions inside the word bounds pass through untouched.
type CompressionUpscalingExpander struct {
	generator ports.AnswerGenerator
	minWords  int
	maxWords  int
}

func NewCompressionUpscalingExpander(generator ports.AnswerGenerator, minWords, maxWords int) *CompressionUpscalingExpander {
	if minWords <= 0 {
		minWords = 10
	}
	if maxWords <= minWords {
		maxWords = minWords * 5
	}
	return &CompressionUpscalingExpander{
		generator: generator,
		minWords:  minWords,
		maxWords:  maxWords,
	}
}

func (e *CompressionUpscalingExpander) Expand(ctx context.Context, query string) (string, error) {
	words := len(strings.Fields(query))
	switch {
	case words == 0:
		return query, nil
	case words < e.minWords:
		return e.rewrite(ctx, upscalePrompt(query))
	case words > e.maxWords:
		return e.rewrite(ctx, compressPrompt(query, e.maxWords))
	default:
		return query, nil
	}
}

func (e *CompressionUpscalingExpander) rewrite(ctx context.Context, prompt string) (string, error) {
	out, err := e.generator.GenerateFromPrompt(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	return stripQuotes(out), nil
}

func upscalePrompt(query string) string {
	return fmt.Sprintf(`Rewrite the search query below into a richer search query.
Add synonyms and closely related domain terms. Keep the original intent.
Reply with the rewritten query only, no explanation.

Query: %s`, query)
}

func compressPrompt(query string, maxWords int) string {
	return fmt.Sprintf(`Condense the search query below to at most %d words.
Keep the key terms and the original intent.
Reply with the condensed query only, no explanation.

Query: %s`, maxWords, query)
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// NoopExpander passes the query through. Used when expansion is disabled.
type NoopExpander struct{}

func (NoopExpander) Expand(_ context.Context, query string) (string, error) {
	return query, nil
}
