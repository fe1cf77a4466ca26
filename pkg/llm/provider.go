// Package llm provides the LLMProvider capability C9 is built on (§4.9):
// a single complete(prompt, options) operation, a Gemini-backed
// implementation grounded on the teacher's provider adapters, and a
// rule-based fallback used when no LLM is configured.
package llm

import "context"

// Options bounds one completion call (§4.9: "strict max-tokens and
// temperature set in config").
type Options struct {
	MaxTokens      int
	Temperature    float64
	StopSequences  []string
	SystemPrompt   string
}

// Provider is the capability C9 invokes for text generation.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// Name identifies the provider for metrics labels (§6 llm_latency_ms{provider}).
	Name() string
}
