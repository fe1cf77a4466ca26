package signal

import "time"

// MarketTiming is a five-valued market-timing label (§4.8 and §C — the Open
// Question is resolved in favor of the spec's explicit five-way mapping).
type MarketTiming string

const (
	TimingTooEarly MarketTiming = "too_early"
	TimingEarly    MarketTiming = "early"
	TimingNow      MarketTiming = "now"
	TimingLate     MarketTiming = "late"
	TimingPast     MarketTiming = "past"
)

// OpportunityComponents holds the weighted sub-scores that compose an
// Opportunity's CompositeScore (§3, §4.8).
type OpportunityComponents struct {
	Semantic              float64 `json:"semantic"`
	TemporalMomentum      float64 `json:"temporal_momentum"`
	Innovation            float64 `json:"innovation"`
	EmergenceProbability  float64 `json:"emergence_probability"`
	Credibility           float64 `json:"credibility"`
	PainIntensity         float64 `json:"pain_intensity"`
}

// FusionWeights are the fixed weights for composing CompositeScore (§4.8).
// They sum to 1.0.
var FusionWeights = struct {
	Credibility          float64
	PainIntensity        float64
	TemporalMomentum     float64
	Semantic             float64
	EmergenceProbability float64
	Innovation           float64
}{
	Credibility:          0.25,
	PainIntensity:        0.20,
	TemporalMomentum:     0.20,
	Semantic:             0.15,
	EmergenceProbability: 0.10,
	Innovation:           0.10,
}

// Composite computes the weighted composite score from components, matching
// the documented weighted sum exactly.
func (c OpportunityComponents) Composite() float64 {
	return FusionWeights.Credibility*c.Credibility +
		FusionWeights.PainIntensity*c.PainIntensity +
		FusionWeights.TemporalMomentum*c.TemporalMomentum +
		FusionWeights.Semantic*c.Semantic +
		FusionWeights.EmergenceProbability*c.EmergenceProbability +
		FusionWeights.Innovation*c.Innovation
}

// Opportunity is the system's primary output (§3), emitted by C8.
type Opportunity struct {
	OpportunityID      string                `json:"opportunity_id"`
	Title              string                `json:"title"`
	Summary            string                `json:"summary"`
	ClusterRef         string                `json:"cluster_ref"`
	CompositeScore     float64               `json:"composite_score"`
	Components         OpportunityComponents `json:"components"`
	MarketTiming       MarketTiming          `json:"market_timing"`
	RiskFactors        []string              `json:"risk_factors"`
	SupportingSignals  []string              `json:"supporting_signals"`
	GeneratedAt        time.Time             `json:"generated_at"`
}

// DefaultTopK is the default number of opportunities returned per ranking
// run (§6, fusion.top_k).
const DefaultTopK = 20
