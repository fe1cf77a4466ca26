package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"google.golang.org/genai"
)

// GeminiProvider implements ModelProvider over Gemini's embedding and
// generation models, following the same genai.NewClient/GenerateContent
// shape as pkg/llm.GeminiProvider (there is no embedding call in the
// retrieved corpus to ground against directly, so this mirrors the
// generation call with an EmbedContent counterpart from the same SDK).
type GeminiProvider struct {
	APIKey         string
	Model          string // generation model, default "gemini-2.0-flash-exp"
	EmbeddingModel string // default "text-embedding-004"
}

var _ ModelProvider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Neural() bool { return true }

func (p *GeminiProvider) client(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.APIKey, Backend: genai.BackendGeminiAPI})
}

func (p *GeminiProvider) embeddingModel() string {
	if p.EmbeddingModel != "" {
		return p.EmbeddingModel
	}
	return "text-embedding-004"
}

func (p *GeminiProvider) generationModel() string {
	if p.Model != "" {
		return p.Model
	}
	return "gemini-2.0-flash-exp"
}

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic: gemini: client: %w", err)
	}
	result, err := client.Models.EmbedContent(ctx, p.embeddingModel(), genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("semantic: gemini: embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("semantic: gemini: embed: empty response")
	}
	values := result.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// classification is the JSON shape all three classify prompts below request
// back from the model, so a single completion-then-parse helper can serve
// all of them.
type classification struct {
	Intent   string  `json:"intent"`
	Clarity  float64 `json:"clarity"`
	Emotion  string  `json:"emotion"`
	Polarity float64 `json:"polarity"`
	Strength float64 `json:"strength"`
	Entities []struct {
		Text   string  `json:"text"`
		Kind   string  `json:"kind"`
		Weight float64 `json:"weight"`
	} `json:"entities"`
}

func (p *GeminiProvider) complete(ctx context.Context, instruction, text string) (classification, error) {
	client, err := p.client(ctx)
	if err != nil {
		return classification{}, fmt.Errorf("semantic: gemini: client: %w", err)
	}
	prompt := instruction + "\n\nText:\n" + text
	result, err := client.Models.GenerateContent(ctx, p.generationModel(), genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return classification{}, fmt.Errorf("semantic: gemini: classify: %w", err)
	}
	raw := strings.TrimSpace(result.Text())
	var out classification
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// Gemini's JSON mode still occasionally emits a trailing comma or
		// unescaped quote; repair before giving up on the classification.
		repaired, repairErr := jsonrepair.RepairJSON(raw)
		if repairErr != nil {
			return classification{}, fmt.Errorf("semantic: gemini: parsing classification: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &out); err != nil {
			return classification{}, fmt.Errorf("semantic: gemini: parsing repaired classification: %w", err)
		}
	}
	return out, nil
}

func (p *GeminiProvider) ClassifyIntent(ctx context.Context, text string) (string, float64, error) {
	c, err := p.complete(ctx, `Classify this text's intent as one of: question, complaint, request, announcement, opinion, other. Reply as JSON {"intent": "...", "clarity": 0.0-1.0}.`, text)
	if err != nil {
		return "", 0, err
	}
	return c.Intent, c.Clarity, nil
}

func (p *GeminiProvider) ClassifyEmotion(ctx context.Context, text string) (string, float64, float64, error) {
	c, err := p.complete(ctx, `Classify this text's dominant emotion. Reply as JSON {"emotion": "...", "polarity": -1.0..1.0, "strength": 0.0-1.0}.`, text)
	if err != nil {
		return "", 0, 0, err
	}
	return c.Emotion, c.Polarity, c.Strength, nil
}

func (p *GeminiProvider) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	c, err := p.complete(ctx, `Extract named entities relevant to a business, weighting companies/products/technologies above people/places. Reply as JSON {"entities": [{"text": "...", "kind": "company|product|technology|person|place|other", "weight": 0.0-1.0}]}.`, text)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = Entity{Text: e.Text, Kind: e.Kind, Weight: e.Weight}
	}
	return out, nil
}
