// Package fusion implements the Multi-Modal Fusion Orchestrator (C8):
// combining C2-C7 outputs into ranked Opportunities (§4.8).
package fusion

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"luciq/pkg/signal"
)

// Enrichment bundles the per-signal analysis outputs C8 reads (§4.8): the
// SemanticScore and PainPointAssessment attached by C4/C5.
type Enrichment struct {
	Semantic signal.SemanticScore
	Pain     signal.PainPointAssessment
}

// CredibilitySource is the capability C8 reads weight_multiplier from (C3).
type CredibilitySource interface {
	WeightFor(platform signal.Platform, authorRef string) float64
}

// Config bounds fusion behavior (§6 fusion.*).
type Config struct {
	TopK int
}

// DefaultConfig matches §4.8/§6's stated default.
func DefaultConfig() Config {
	return Config{TopK: signal.DefaultTopK}
}

// Orchestrator is the C8 capability.
type Orchestrator struct {
	cfg         Config
	credibility CredibilitySource
}

// New constructs an Orchestrator bound to a CredibilitySource.
func New(cfg Config, credibility CredibilitySource) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = signal.DefaultTopK
	}
	return &Orchestrator{cfg: cfg, credibility: credibility}
}

// Rank computes an Opportunity for each cluster and returns the top-K by
// composite_score descending (§4.8). Regeneration is idempotent on an
// unchanged input: same clusters/enrichment/patterns produce the same
// opportunities and ids.
func (o *Orchestrator) Rank(
	ctx context.Context,
	clusters []signal.SignalCluster,
	enrichment map[string]Enrichment,
	patterns map[string][]signal.TemporalPattern,
	generatedAt time.Time,
) []signal.Opportunity {
	opportunities := make([]signal.Opportunity, 0, len(clusters))
	for _, c := range clusters {
		opp := o.scoreCluster(c, enrichment, patterns[c.ClusterID], generatedAt)
		opportunities = append(opportunities, opp)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].CompositeScore != opportunities[j].CompositeScore {
			return opportunities[i].CompositeScore > opportunities[j].CompositeScore
		}
		return opportunities[i].OpportunityID < opportunities[j].OpportunityID
	})

	if len(opportunities) > o.cfg.TopK {
		opportunities = opportunities[:o.cfg.TopK]
	}
	return opportunities
}

func (o *Orchestrator) scoreCluster(
	c signal.SignalCluster,
	enrichment map[string]Enrichment,
	clusterPatterns []signal.TemporalPattern,
	generatedAt time.Time,
) signal.Opportunity {
	components := o.componentsFor(c, enrichment, clusterPatterns)
	composite := components.Composite()

	timing := marketTiming(components, clusterPatterns)
	risks := riskFactors(c, enrichment, components)

	title, summary := describe(c, enrichment)
	supporting := make([]string, len(c.Members))
	for i, m := range c.Members {
		supporting[i] = m.Key()
	}

	return signal.Opportunity{
		OpportunityID:     opportunityID(c.ClusterID),
		Title:             title,
		Summary:           summary,
		ClusterRef:        c.ClusterID,
		CompositeScore:    composite,
		Components:        components,
		MarketTiming:      timing,
		RiskFactors:       risks,
		SupportingSignals: supporting,
		GeneratedAt:       generatedAt,
	}
}

// componentsFor computes the six weighted sub-scores (§4.8).
func (o *Orchestrator) componentsFor(c signal.SignalCluster, enrichment map[string]Enrichment, clusterPatterns []signal.TemporalPattern) signal.OpportunityComponents {
	var semanticSum, innovationSum float64
	var painSum float64
	var painCount int
	var n int

	var credWeightedSum, credWeightTotal float64

	for _, m := range c.Members {
		e, ok := enrichment[m.Key()]
		if !ok {
			continue
		}
		n++
		semanticSum += e.Semantic.ContextRelevance
		innovationSum += e.Semantic.InnovationPotential
		if e.Pain.Detected {
			painSum += e.Pain.Intensity
			painCount++
		}

		engagementWeight := engagementWeightFor(m)
		credWeight := 0.0
		if o.credibility != nil {
			credWeight = o.credibility.WeightFor(m.Platform, m.AuthorRef)
		}
		credWeightedSum += engagementWeight * credWeight
		credWeightTotal += engagementWeight
	}

	semantic := 0.0
	innovation := 0.0
	if n > 0 {
		semantic = semanticSum / float64(n)
		innovation = innovationSum / float64(n)
	}
	painIntensity := 0.0
	if painCount > 0 {
		painIntensity = painSum / float64(painCount)
	}

	credibility := 0.0
	if credWeightTotal > 0 {
		credibility = clamp01((credWeightedSum / credWeightTotal) / 2.0)
	}

	momentum := 0.0
	emergenceProb := 0.0
	for _, p := range clusterPatterns {
		if (p.Tag == signal.PatternTrend || p.Tag == signal.PatternEmergence) && p.Strength > momentum {
			momentum = p.Strength
		}
		if p.Tag == signal.PatternEmergence {
			emergenceProb = p.Strength * p.Confidence
		}
	}

	return signal.OpportunityComponents{
		Semantic:             semantic,
		TemporalMomentum:     momentum,
		Innovation:           innovation,
		EmergenceProbability: emergenceProb,
		Credibility:          credibility,
		PainIntensity:        painIntensity,
	}
}

// engagementWeightFor gives higher weight to signals with more engagement
// data when blending platform credibility across members (§4.8 "engagement-
// weighted mean").
func engagementWeightFor(s signal.Signal) float64 {
	weight := 1.0
	if s.Engagement.Upvotes != nil {
		weight += float64(*s.Engagement.Upvotes)
	}
	if s.Engagement.Comments != nil {
		weight += float64(*s.Engagement.Comments) * 2 // comments signal deeper engagement than upvotes
	}
	return weight
}

// marketTiming applies the fixed mapping from §4.8. The too_early and now
// bands are as specified verbatim; past fires when the anomaly strength
// exceeds both momentum and emergence while momentum is below 0.3, without
// checking the trend's sign; early/late split the remaining cases by
// momentum, a judgment call recorded in DESIGN.md since the spec only says
// they "fill remaining bands."
func marketTiming(c signal.OpportunityComponents, patterns []signal.TemporalPattern) signal.MarketTiming {
	if c.EmergenceProbability < 0.2 && c.TemporalMomentum < 0.2 {
		return signal.TimingTooEarly
	}

	var anomalyStrength float64
	for _, p := range patterns {
		if p.Tag == signal.PatternAnomaly {
			anomalyStrength = p.Strength
		}
	}
	if anomalyStrength > c.TemporalMomentum && anomalyStrength > c.EmergenceProbability && c.TemporalMomentum < 0.3 {
		return signal.TimingPast
	}

	if c.TemporalMomentum >= 0.5 && c.EmergenceProbability >= 0.4 {
		return signal.TimingNow
	}

	if c.TemporalMomentum < 0.35 {
		return signal.TimingEarly
	}
	return signal.TimingLate
}

// riskFactors applies the small rule set from §4.8.
func riskFactors(c signal.SignalCluster, enrichment map[string]Enrichment, components signal.OpportunityComponents) []string {
	var risks []string

	if components.Credibility < 0.4 {
		risks = append(risks, "low_credibility")
	}
	if len(c.PlatformsCovered) <= 1 {
		risks = append(risks, "single_platform_coverage")
	}

	highComplexity := 0
	var positivePolarity, negativePolarity int
	for _, m := range c.Members {
		e, ok := enrichment[m.Key()]
		if !ok {
			continue
		}
		if e.Pain.Opportunity.ImplementationComplexity == signal.BandHigh {
			highComplexity++
		}
		if e.Semantic.SentimentPolarity > 0.2 {
			positivePolarity++
		} else if e.Semantic.SentimentPolarity < -0.2 {
			negativePolarity++
		}
	}
	if len(c.Members) > 0 && float64(highComplexity)/float64(len(c.Members)) >= 0.5 {
		risks = append(risks, "high_implementation_complexity")
	}
	if positivePolarity > 0 && negativePolarity > 0 {
		risks = append(risks, "contradicting_sentiment")
	}

	return risks
}

func describe(c signal.SignalCluster, enrichment map[string]Enrichment) (title, summary string) {
	problemCounts := map[signal.ProblemType]float64{}
	market := "general"
	for _, m := range c.Members {
		e, ok := enrichment[m.Key()]
		if !ok {
			continue
		}
		if e.Pain.Detected {
			problemCounts[e.Pain.ProblemType] += e.Pain.Intensity
		}
		if e.Pain.TargetMarket != "" {
			market = e.Pain.TargetMarket
		}
	}

	dominant := signal.ProblemOther
	best := 0.0
	for _, pt := range signal.AllProblemTypes {
		if problemCounts[pt] > best {
			best = problemCounts[pt]
			dominant = pt
		}
	}

	title = fmt.Sprintf("%s pain in %s (%d platforms)", dominant, market, len(c.PlatformsCovered))
	summary = fmt.Sprintf(
		"Cluster of %d signals across %d platforms, correlation=%s, dominant problem_type=%s, target_market=%s.",
		len(c.Members), len(c.PlatformsCovered), c.CorrelationType, dominant, market,
	)
	return title, summary
}

// opportunityID derives a stable id from cluster_id so regeneration is
// idempotent on unchanged input (§4.8).
func opportunityID(clusterID string) string {
	h := sha1.New()
	h.Write([]byte("opportunity:"))
	h.Write([]byte(clusterID))
	return "opp-" + hex.EncodeToString(h.Sum(nil))[:16]
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
