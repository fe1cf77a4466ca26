// Package semantic implements the Semantic Analysis Engine (C4): NLP
// scoring of a text for business context, intent, sentiment, entities,
// coherence, and innovation potential (§4.3). All neural work is delegated
// to a pluggable ModelProvider capability; a lexical FallbackProvider lets
// the engine degrade gracefully with no models loaded.
package semantic

import "context"

// Entity is one recognized named entity, weighted by business relevance
// (companies/products/technologies weigh more than persons/places, §4.3).
type Entity struct {
	Text   string
	Kind   string // "company", "product", "technology", "person", "place", "other"
	Weight float64
}

// ModelProvider is the capability exposing embeddings and classifications
// (§4.3, §6). Implementations may be neural (an API-backed embedding/LLM
// service) or, for FallbackProvider, purely lexical.
type ModelProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	ClassifyIntent(ctx context.Context, text string) (intent string, clarity float64, err error)
	ClassifyEmotion(ctx context.Context, text string) (emotion string, polarity float64, strength float64, err error)
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
	// Neural reports whether this provider is backed by real models; the
	// engine flags SemanticScore.Confidence low when it is not (§4.3).
	Neural() bool
}
