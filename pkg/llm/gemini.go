package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider over Google's Gemini models, grounded
// directly on the teacher's GeminiProvider adapter.
type GeminiProvider struct {
	APIKey string
	Model  string // default "gemini-2.0-flash-exp"
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("llm: gemini: no API key configured")
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("llm: gemini: creating client: %w", err)
	}

	temp := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if len(opts.StopSequences) > 0 {
		config.StopSequences = opts.StopSequences
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.SystemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("llm: gemini: generation: %w", err)
	}

	return result.Text(), nil
}
