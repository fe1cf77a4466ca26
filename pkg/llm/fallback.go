package llm

import (
	"context"
	"strings"
)

// FallbackProvider produces a structured textual response without any
// model backing it (§4.9: "a rule-based fallback produces a structured
// textual summary... when no LLM is configured"). It never errors.
type FallbackProvider struct{}

var _ Provider = FallbackProvider{}

func (FallbackProvider) Name() string { return "fallback" }

// Complete echoes the trimmed prompt back rather than attempting
// generation, cut to the first opts.MaxTokens words when a limit is set.
// It does not summarize; the conversation package builds its own
// rule-based opportunity summary instead of calling this.
func (FallbackProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "No context available to answer this question.", nil
	}
	if opts.MaxTokens > 0 {
		words := strings.Fields(trimmed)
		if len(words) > opts.MaxTokens {
			trimmed = strings.Join(words[:opts.MaxTokens], " ")
		}
	}
	return trimmed, nil
}
