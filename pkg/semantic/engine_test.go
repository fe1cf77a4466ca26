package semantic

import (
	"context"
	"testing"
)

func TestNewDefaultsToFallbackProvider(t *testing.T) {
	e := New(context.Background(), nil)
	if e.provider.Neural() {
		t.Error("New(nil) provider reports Neural() = true")
	}
}

func TestNewPrecomputesExemplarVectors(t *testing.T) {
	e := New(context.Background(), NewFallbackProvider())
	if len(e.exemplarVectors) != len(contextExemplars) {
		t.Errorf("exemplarVectors has %d entries, want %d", len(e.exemplarVectors), len(contextExemplars))
	}
}

func TestAnalyzeLowConfidenceWithLexicalFallback(t *testing.T) {
	e := New(context.Background(), NewFallbackProvider())
	score, err := e.Analyze(context.Background(), "we are building a new SaaS pricing tool for startups")
	if err != nil {
		t.Fatalf("Analyze() = %v", err)
	}
	if score.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 with a non-neural provider", score.Confidence)
	}
}

func TestAnalyzeDetectsSaaSContext(t *testing.T) {
	e := New(context.Background(), NewFallbackProvider())
	score, err := e.Analyze(context.Background(), "subscription software pricing tiers for recurring revenue businesses")
	if err != nil {
		t.Fatalf("Analyze() = %v", err)
	}
	if score.ContextRelevance <= 0 {
		t.Errorf("ContextRelevance = %v, want > 0 for SaaS-like text", score.ContextRelevance)
	}
}

func TestAnalyzeBatchMatchesAnalyzeLength(t *testing.T) {
	e := New(context.Background(), NewFallbackProvider())
	scores, err := e.AnalyzeBatch(context.Background(), []string{"first text", "second text", "third"})
	if err != nil {
		t.Fatalf("AnalyzeBatch() = %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("AnalyzeBatch() returned %d scores, want 3", len(scores))
	}
}

func TestCoherenceSingleSentenceIsOne(t *testing.T) {
	e := New(context.Background(), NewFallbackProvider())
	if got := e.coherence(context.Background(), "just one sentence here"); got != 1.0 {
		t.Errorf("coherence(single sentence) = %v, want 1.0", got)
	}
}

func TestInnovationPotentialRewardsNoveltyCues(t *testing.T) {
	novel := innovationPotential("this is a groundbreaking novel approach, never seen before", nil)
	mundane := innovationPotential("this is a normal regular thing", nil)
	if novel <= mundane {
		t.Errorf("innovationPotential(novel)=%v should be > innovationPotential(mundane)=%v", novel, mundane)
	}
}

func TestScoreEntitiesEmptyIsZero(t *testing.T) {
	if got := scoreEntities(nil); got != 0 {
		t.Errorf("scoreEntities(nil) = %v, want 0", got)
	}
}

func TestScoreEntitiesSaturates(t *testing.T) {
	many := make([]Entity, 50)
	for i := range many {
		many[i] = Entity{Text: "x", Weight: 1}
	}
	if got := scoreEntities(many); got > 1.0 {
		t.Errorf("scoreEntities(many) = %v, want <= 1.0", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Hello there. How are you? I am fine!")
	if len(got) != 3 {
		t.Errorf("splitSentences() = %v (len %d), want 3 sentences", got, len(got))
	}
}

func TestKeyConceptsCapsAtTen(t *testing.T) {
	entities := make([]Entity, 20)
	for i := range entities {
		entities[i] = Entity{Text: string(rune('a' + i))}
	}
	got := keyConcepts(entities, "")
	if len(got) > 10 {
		t.Errorf("keyConcepts() returned %d concepts, want <= 10", len(got))
	}
}
