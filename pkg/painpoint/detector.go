// Package painpoint implements the Pain-Point Detection Engine (C5): a
// two-stage classifier producing PainPointAssessment (§4.4). The engine is
// side-effect-free and deterministic given its inputs and the bound
// ModelProvider's state.
package painpoint

import (
	"regexp"
	"sort"
	"strings"

	"luciq/pkg/signal"
)

var painLexicon = []string{
	"frustrated", "frustrating", "wish there was", "hate that", "wasting time",
	"so annoying", "can't stand", "tired of", "sick of", "no good alternative",
	"nothing works", "doesn't work well", "painful to", "struggle with",
}

var obligationModals = regexp.MustCompile(`(?i)\b(have to|need to|must|should|required to)\b`)

// Detector is the C5 capability.
type Detector struct{}

// New constructs a Detector.
func New() *Detector { return &Detector{} }

// problemTypeExemplars gives per-type keyword exemplars used for max-
// similarity assignment (§4.4). Kept lexical (not embedding-based) to avoid
// a second ModelProvider round-trip per signal; the keyword sets are drawn
// directly from the taxonomy's own vocabulary.
var problemTypeExemplars = map[signal.ProblemType][]string{
	signal.ProblemCost:           {"expensive", "pricing", "cost", "price", "afford", "$", "subscription fee"},
	signal.ProblemTime:           {"time-consuming", "slow", "takes forever", "manual", "tedious"},
	signal.ProblemUsability:      {"confusing", "hard to use", "clunky", "ux", "ui", "unintuitive"},
	signal.ProblemIntegration:    {"integrate", "integration", "api", "webhook", "doesn't connect", "sync"},
	signal.ProblemTrust:          {"trust", "scam", "unreliable", "data privacy", "security concern"},
	signal.ProblemDiscoverability: {"can't find", "discover", "hard to find", "visibility", "seo"},
	signal.ProblemPerformance:    {"slow", "lag", "crash", "performance", "downtime", "timeout"},
	signal.ProblemCompliance:     {"compliance", "regulation", "gdpr", "hipaa", "audit", "legal"},
}

// Detect classifies sig as a pain point or not, given its bound
// SemanticScore from C4 (§4.4 Stage B input).
func (d *Detector) Detect(sig signal.Signal, sem signal.SemanticScore, credibility float64) signal.PainPointAssessment {
	text := strings.ToLower(sig.Text())

	lexScore := d.lexicalScore(text)
	semScore := semanticScore(sem)
	intensity := clamp01(0.5*lexScore + 0.5*semScore)

	detected := intensity >= signal.PainDetectionThreshold

	problemType := classifyProblemType(text)
	urgency := urgencyFor(intensity)

	validation := clamp01(0.4*intensity + 0.3*sem.InnovationPotential + 0.3*credibility)
	revenueBand, complexityBand := coarseMap(sem.BusinessContexts, problemType)

	return signal.PainPointAssessment{
		Detected:     detected,
		Intensity:    intensity,
		ProblemType:  problemType,
		TargetMarket: inferTargetMarket(sem),
		Urgency:      urgency,
		Opportunity: signal.OpportunityAssessment{
			RevenuePotentialBand:     revenueBand,
			ImplementationComplexity: complexityBand,
			ValidationScore:          validation,
		},
	}
}

// lexicalScore is Stage A: pain lexicon density, question-mark density,
// and obligation modals (§4.4).
func (d *Detector) lexicalScore(lowerText string) float64 {
	hits := 0
	for _, phrase := range painLexicon {
		if strings.Contains(lowerText, phrase) {
			hits++
		}
	}
	lexiconDensity := clamp01(float64(hits) / 3.0)

	words := strings.Fields(lowerText)
	questionDensity := 0.0
	if len(words) > 0 {
		questionDensity = clamp01(float64(strings.Count(lowerText, "?")) / (float64(len(words)) / 20.0))
	}

	modalHits := len(obligationModals.FindAllString(lowerText, -1))
	modalDensity := clamp01(float64(modalHits) / 2.0)

	return clamp01(0.5*lexiconDensity + 0.25*questionDensity + 0.25*modalDensity)
}

// semanticScore is Stage B: intent + negative sentiment (§4.4).
func semanticScore(sem signal.SemanticScore) float64 {
	intentMatches := sem.DominantIntent == signal.IntentComplaint ||
		sem.DominantIntent == signal.IntentRequest ||
		sem.DominantIntent == signal.IntentQuestion

	if !intentMatches {
		return 0
	}
	if sem.SentimentStrength < 0.4 || sem.SentimentPolarity >= 0 {
		return sem.SentimentStrength * 0.3 // weak signal: intent matches but sentiment doesn't confirm negativity
	}
	return clamp01(sem.SentimentStrength)
}

func classifyProblemType(lowerText string) signal.ProblemType {
	best := signal.ProblemOther
	bestScore := 0.0
	for _, pt := range signal.AllProblemTypes {
		kws, ok := problemTypeExemplars[pt]
		if !ok {
			continue
		}
		hits := 0
		for _, kw := range kws {
			if strings.Contains(lowerText, kw) {
				hits++
			}
		}
		score := float64(hits) / float64(len(kws))
		if score > bestScore {
			bestScore = score
			best = pt
		}
	}
	return best
}

func urgencyFor(intensity float64) signal.Urgency {
	switch {
	case intensity >= 0.7:
		return signal.UrgencyHigh
	case intensity >= 0.45:
		return signal.UrgencyMedium
	default:
		return signal.UrgencyLow
	}
}

func inferTargetMarket(sem signal.SemanticScore) string {
	if len(sem.BusinessContexts) == 0 {
		return "general"
	}
	return string(sem.BusinessContexts[0])
}

// revenueTable and complexityTable are the small fixed tables mapping
// business_contexts x problem_type to coarse bands (§4.4).
var revenueTable = map[signal.BusinessContext]signal.Band{
	signal.ContextFintech:    signal.BandHigh,
	signal.ContextSaaS:       signal.BandHigh,
	signal.ContextEcommerce:  signal.BandMedium,
	signal.ContextMarketplace: signal.BandMedium,
	signal.ContextHealthTech: signal.BandHigh,
	signal.ContextDevTools:   signal.BandMedium,
	signal.ContextSecurity:   signal.BandHigh,
	signal.ContextData:       signal.BandMedium,
	signal.ContextEdTech:     signal.BandMedium,
	signal.ContextProductivity: signal.BandLow,
}

var complexityTable = map[signal.ProblemType]signal.Band{
	signal.ProblemCost:            signal.BandLow,
	signal.ProblemTime:            signal.BandMedium,
	signal.ProblemUsability:       signal.BandLow,
	signal.ProblemIntegration:     signal.BandHigh,
	signal.ProblemTrust:           signal.BandHigh,
	signal.ProblemDiscoverability: signal.BandMedium,
	signal.ProblemPerformance:     signal.BandHigh,
	signal.ProblemCompliance:      signal.BandHigh,
	signal.ProblemOther:           signal.BandUnknown,
}

func coarseMap(contexts []signal.BusinessContext, pt signal.ProblemType) (signal.Band, signal.Band) {
	revenue := signal.BandUnknown
	if len(contexts) > 0 {
		if b, ok := revenueTable[contexts[0]]; ok {
			revenue = b
		}
	}
	complexity := complexityTable[pt]
	return revenue, complexity
}

// ResolveConflictingProblemType applies the Open-Question resolution from
// §C: majority vote among detected members weighted by intensity, ties
// broken by the fixed taxonomy order.
func ResolveConflictingProblemType(assessments []signal.PainPointAssessment) signal.ProblemType {
	weights := make(map[signal.ProblemType]float64)
	for _, a := range assessments {
		if !a.Detected {
			continue
		}
		weights[a.ProblemType] += a.Intensity
	}
	if len(weights) == 0 {
		return signal.ProblemOther
	}

	type candidate struct {
		pt     signal.ProblemType
		weight float64
		order  int
	}
	var candidates []candidate
	for i, pt := range signal.AllProblemTypes {
		if w, ok := weights[pt]; ok {
			candidates = append(candidates, candidate{pt, w, i})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].order < candidates[j].order
	})
	return candidates[0].pt
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
