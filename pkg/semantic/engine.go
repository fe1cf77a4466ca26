package semantic

import (
	"context"
	"math"
	"sort"
	"strings"

	"luciq/pkg/signal"
)

// contextExemplar is a fixed business-context exemplar text, one per tag,
// embedded once at construction and compared against via cosine similarity
// (§4.3 context_relevance).
type contextExemplar struct {
	tag  signal.BusinessContext
	text string
}

var contextExemplars = []contextExemplar{
	{signal.ContextSaaS, "subscription software product for businesses recurring revenue pricing tiers"},
	{signal.ContextFintech, "payments banking finance money transfers lending investing fintech"},
	{signal.ContextDevTools, "developer tools cli sdk api framework build pipeline ci cd"},
	{signal.ContextProductivity, "productivity task management to-do notes calendar time tracking"},
	{signal.ContextEcommerce, "online store shopping cart checkout inventory ecommerce retail"},
	{signal.ContextHealthTech, "health medical patient clinic wellness fitness healthcare"},
	{signal.ContextEdTech, "education learning students courses teaching school edtech"},
	{signal.ContextMarketplace, "marketplace buyers sellers listings platform matching two-sided"},
	{signal.ContextSecurity, "security authentication encryption vulnerability compliance privacy"},
	{signal.ContextData, "data analytics pipeline warehouse etl dashboard metrics reporting"},
}

// noveltyLexicon is the curated novelty-cue lexicon for innovation_potential
// (§4.3).
var noveltyLexicon = []string{
	"first", "new way", "alternative to", "never seen", "reinvent", "rethink",
	"unlike any", "novel approach", "groundbreaking", "from scratch",
}

// Engine is the C4 capability.
type Engine struct {
	provider         ModelProvider
	exemplarVectors  map[signal.BusinessContext][]float64
}

// New constructs an Engine bound to the given ModelProvider. A nil provider
// defaults to the lexical FallbackProvider (§4.3's graceful-degradation
// contract).
func New(ctx context.Context, provider ModelProvider) *Engine {
	if provider == nil {
		provider = NewFallbackProvider()
	}
	e := &Engine{provider: provider, exemplarVectors: make(map[signal.BusinessContext][]float64)}
	for _, ex := range contextExemplars {
		v, err := provider.Embed(ctx, ex.text)
		if err == nil {
			e.exemplarVectors[ex.tag] = v
		}
	}
	return e
}

// Analyze scores one text. §4.3's public operation.
func (e *Engine) Analyze(ctx context.Context, text string) (signal.SemanticScore, error) {
	scores, err := e.AnalyzeBatch(ctx, []string{text})
	if err != nil {
		return signal.SemanticScore{}, err
	}
	return scores[0], nil
}

// AnalyzeBatch scores a batch of texts. Batch size >= 16 is preferred
// (§4.3) but any size is accepted.
func (e *Engine) AnalyzeBatch(ctx context.Context, texts []string) ([]signal.SemanticScore, error) {
	embeddings, err := e.provider.EmbedBatch(ctx, texts)
	if err != nil {
		// Model unavailable: degrade to the lexical fallback rather than
		// fail the batch (§7 ModelUnavailable).
		fb := NewFallbackProvider()
		embeddings, _ = fb.EmbedBatch(ctx, texts)
	}

	out := make([]signal.SemanticScore, len(texts))
	for i, text := range texts {
		out[i] = e.analyzeOne(ctx, text, embeddings[i])
	}
	return out, nil
}

func (e *Engine) analyzeOne(ctx context.Context, text string, embedding []float64) signal.SemanticScore {
	contextRelevance, contexts := e.scoreContext(embedding)
	intent, clarity, _ := e.provider.ClassifyIntent(ctx, text)
	emotion, polarity, strength, _ := e.provider.ClassifyEmotion(ctx, text)
	entities, _ := e.provider.ExtractEntities(ctx, text)

	entityRichness := scoreEntities(entities)
	coherence := e.coherence(ctx, text)
	concepts := keyConcepts(entities, text)
	innovation := innovationPotential(text, concepts)

	confidence := 1.0
	if !e.provider.Neural() {
		confidence = 0.5
	}

	return signal.SemanticScore{
		ContextRelevance:    contextRelevance,
		IntentClarity:       clarity,
		SentimentStrength:   strength,
		SentimentPolarity:   polarity,
		EntityRichness:      entityRichness,
		SemanticCoherence:   coherence,
		InnovationPotential: innovation,
		DominantIntent:      signal.Intent(intent),
		DominantEmotion:     signal.Emotion(emotion),
		BusinessContexts:    contexts,
		KeyConcepts:         concepts,
		Confidence:          confidence,
	}
}

func (e *Engine) scoreContext(embedding []float64) (float64, []signal.BusinessContext) {
	type hit struct {
		tag   signal.BusinessContext
		score float64
	}
	var hits []hit
	for _, ex := range contextExemplars {
		vec, ok := e.exemplarVectors[ex.tag]
		if !ok {
			continue
		}
		sim := CosineSimilarity(embedding, vec)
		hits = append(hits, hit{ex.tag, sim})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	var tags []signal.BusinessContext
	top := 0.0
	for _, h := range hits {
		if h.score >= signal.ContextRelevanceThreshold {
			tags = append(tags, h.tag)
		}
	}
	if len(hits) > 0 {
		top = hits[0].score
	}
	return clamp01(top), tags
}

func scoreEntities(entities []Entity) float64 {
	if len(entities) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entities {
		sum += e.Weight
	}
	// Normalize with diminishing returns so richness saturates rather than
	// growing unbounded with entity count.
	return clamp01(1 - math.Exp(-sum/3))
}

// coherence is the average pairwise sentence-embedding similarity within
// the text; single-sentence texts score 1.0 (§4.3).
func (e *Engine) coherence(ctx context.Context, text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return 1.0
	}
	vectors, err := e.provider.EmbedBatch(ctx, sentences)
	if err != nil || len(vectors) < 2 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += CosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	return clamp01(sum / float64(pairs))
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func keyConcepts(entities []Entity, text string) []string {
	concepts := make([]string, 0, len(entities))
	seen := map[string]bool{}
	for _, e := range entities {
		key := strings.ToLower(e.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		concepts = append(concepts, e.Text)
		if len(concepts) >= 10 {
			break
		}
	}
	return concepts
}

// innovationPotential combines novelty-cue density with low repetition of
// key concepts against the text itself as a crude background-corpus proxy
// (§4.3): a concept mentioned only once, alongside novelty language, scores
// higher than one repeated many times (suggesting a well-established topic).
func innovationPotential(text string, concepts []string) float64 {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return 0
	}

	cueHits := 0
	for _, cue := range noveltyLexicon {
		if strings.Contains(lower, cue) {
			cueHits++
		}
	}
	cueDensity := clamp01(float64(cueHits) / 3.0)

	noveltyFromRepetition := 1.0
	if len(concepts) > 0 {
		var totalReps int
		for _, c := range concepts {
			totalReps += strings.Count(lower, strings.ToLower(c))
		}
		avgReps := float64(totalReps) / float64(len(concepts))
		if avgReps > 1 {
			noveltyFromRepetition = clamp01(1.0 / avgReps)
		}
	}

	return clamp01(0.6*cueDensity + 0.4*noveltyFromRepetition)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
