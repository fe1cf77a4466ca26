package semantic

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// FallbackProvider implements ModelProvider with lexical heuristics only,
// so the engine degrades gracefully when no neural models are loaded
// (§4.3). Embeddings are a hashed bag-of-words vector: not semantically
// meaningful in the way a trained sentence embedding is, but stable,
// deterministic, and good enough for cosine comparisons between two texts
// scored by the same provider.
type FallbackProvider struct {
	dims int
}

// NewFallbackProvider constructs the lexical fallback with a fixed
// embedding dimensionality.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{dims: 256}
}

func (f *FallbackProvider) Neural() bool { return false }

var tokenRe = regexp.MustCompile(`[a-z0-9']+`)

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Embed hashes each token into a fixed-size vector (the classic hashing
// trick), then L2-normalizes. Deterministic and allocation-light.
func (f *FallbackProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, f.dims)
	for _, tok := range tokenize(text) {
		idx := fnv32(tok) % uint32(f.dims)
		vec[idx] += 1
	}
	normalize(vec)
	return vec, nil
}

func (f *FallbackProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, _ := f.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

// CosineSimilarity is exported for reuse by C7's clustering, which needs
// the exact same metric over whatever ModelProvider produced the vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var intentKeywords = map[string][]string{
	"question":     {"?", "how do i", "how does", "anyone know", "does anyone", "what is", "why is"},
	"complaint":     {"hate that", "frustrated", "annoying", "wish there was", "sucks", "terrible", "worst"},
	"request":       {"please add", "feature request", "would be nice", "can you", "could we get"},
	"announcement":  {"launching", "we built", "announcing", "introducing", "just shipped", "released"},
	"opinion":       {"i think", "in my opinion", "imo", "honestly", "i believe"},
}

func (f *FallbackProvider) ClassifyIntent(ctx context.Context, text string) (string, float64, error) {
	lower := strings.ToLower(text)
	best := "other"
	bestScore := 0.0
	for intent, kws := range intentKeywords {
		hits := 0
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		score := float64(hits) / float64(len(kws))
		if strings.Contains(text, "?") && intent == "question" {
			score += 0.3
		}
		if score > bestScore {
			bestScore = score
			best = intent
		}
	}
	clarity := math.Min(1.0, 0.4+bestScore)
	if bestScore == 0 {
		clarity = 0.3
	}
	return best, clarity, nil
}

var emotionLexicon = map[string]struct {
	emotion  string
	polarity float64
}{
	"love": {"satisfaction", 0.8}, "great": {"satisfaction", 0.6}, "amazing": {"excitement", 0.8},
	"hate": {"anger", -0.8}, "frustrated": {"frustration", -0.7}, "annoying": {"frustration", -0.6},
	"wish": {"frustration", -0.3}, "excited": {"excitement", 0.7}, "curious": {"curiosity", 0.3},
	"terrible": {"anger", -0.8}, "awful": {"anger", -0.7}, "wondering": {"curiosity", 0.2},
	"disappointed": {"frustration", -0.6}, "wasting": {"frustration", -0.5},
}

func (f *FallbackProvider) ClassifyEmotion(ctx context.Context, text string) (string, float64, float64, error) {
	lower := strings.ToLower(text)
	best := "neutral"
	var bestPolarity float64
	var bestAbs float64
	for word, e := range emotionLexicon {
		if strings.Contains(lower, word) {
			if math.Abs(e.polarity) > bestAbs {
				bestAbs = math.Abs(e.polarity)
				best = e.emotion
				bestPolarity = e.polarity
			}
		}
	}
	return best, bestPolarity, bestAbs, nil
}

// businessEntityWeights weighs recognized entity kinds; companies/products/
// technologies weigh more than persons/places (§4.3).
var businessEntityWeights = map[string]float64{
	"company": 1.0, "product": 0.9, "technology": 0.8, "person": 0.4, "place": 0.3,
}

var knownTechnologies = map[string]bool{
	"api": true, "saas": true, "aws": true, "kubernetes": true, "postgres": true,
	"react": true, "python": true, "docker": true, "stripe": true, "graphql": true,
}

var capitalizedWordRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}\b`)

func (f *FallbackProvider) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	var entities []Entity
	seen := map[string]bool{}

	for _, tok := range tokenize(text) {
		if knownTechnologies[tok] && !seen[tok] {
			seen[tok] = true
			entities = append(entities, Entity{Text: tok, Kind: "technology", Weight: businessEntityWeights["technology"]})
		}
	}

	for _, m := range capitalizedWordRe.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, Entity{Text: m, Kind: "company", Weight: businessEntityWeights["company"]})
	}

	return entities, nil
}
