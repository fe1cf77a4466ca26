package fusion

import (
	"context"
	"testing"
	"time"

	"luciq/pkg/signal"
)

type fixedCredibility struct{ weight float64 }

func (f fixedCredibility) WeightFor(p signal.Platform, authorRef string) float64 { return f.weight }

func intPtr(v int) *int { return &v }

func TestRankSortsByCompositeDescending(t *testing.T) {
	o := New(DefaultConfig(), fixedCredibility{weight: 1.0})
	now := time.Now()

	strong := signal.SignalCluster{ClusterID: "strong", Members: []signal.Signal{{Platform: signal.PlatformReddit, ID: "1"}}, PlatformsCovered: []signal.Platform{signal.PlatformReddit}}
	weak := signal.SignalCluster{ClusterID: "weak", Members: []signal.Signal{{Platform: signal.PlatformGitHub, ID: "2"}}, PlatformsCovered: []signal.Platform{signal.PlatformGitHub}}

	enrichment := map[string]Enrichment{
		strong.Members[0].Key(): {Semantic: signal.SemanticScore{ContextRelevance: 0.9, InnovationPotential: 0.9}, Pain: signal.PainPointAssessment{Detected: true, Intensity: 0.9}},
		weak.Members[0].Key():   {Semantic: signal.SemanticScore{ContextRelevance: 0.1, InnovationPotential: 0.1}, Pain: signal.PainPointAssessment{Detected: false}},
	}

	opps := o.Rank(context.Background(), []signal.SignalCluster{weak, strong}, enrichment, nil, now)
	if len(opps) != 2 {
		t.Fatalf("Rank() returned %d opportunities, want 2", len(opps))
	}
	if opps[0].ClusterRef != "strong" {
		t.Errorf("top opportunity = %s, want the stronger cluster ranked first", opps[0].ClusterRef)
	}
	if opps[0].CompositeScore < opps[1].CompositeScore {
		t.Error("Rank() did not sort by CompositeScore descending")
	}
}

func TestRankRespectsTopK(t *testing.T) {
	cfg := Config{TopK: 1}
	o := New(cfg, fixedCredibility{weight: 1.0})
	now := time.Now()
	clusters := []signal.SignalCluster{
		{ClusterID: "a", Members: []signal.Signal{{Platform: signal.PlatformReddit, ID: "a1"}}},
		{ClusterID: "b", Members: []signal.Signal{{Platform: signal.PlatformGitHub, ID: "b1"}}},
	}
	opps := o.Rank(context.Background(), clusters, nil, nil, now)
	if len(opps) != 1 {
		t.Fatalf("Rank() with TopK=1 returned %d opportunities, want 1", len(opps))
	}
}

func TestOpportunityIDIsStable(t *testing.T) {
	if opportunityID("cluster-x") != opportunityID("cluster-x") {
		t.Error("opportunityID() not stable for the same cluster id")
	}
	if opportunityID("cluster-x") == opportunityID("cluster-y") {
		t.Error("opportunityID() collided for distinct cluster ids")
	}
}

func TestEngagementWeightForNoData(t *testing.T) {
	if got := engagementWeightFor(signal.Signal{}); got != 1.0 {
		t.Errorf("engagementWeightFor(no data) = %v, want 1.0 baseline", got)
	}
}

func TestEngagementWeightForWeighsCommentsMore(t *testing.T) {
	upvotesOnly := engagementWeightFor(signal.Signal{Engagement: signal.Engagement{Upvotes: intPtr(10)}})
	commentsOnly := engagementWeightFor(signal.Signal{Engagement: signal.Engagement{Comments: intPtr(10)}})
	if commentsOnly <= upvotesOnly {
		t.Errorf("10 comments (%v) should weigh more than 10 upvotes (%v)", commentsOnly, upvotesOnly)
	}
}

func TestMarketTimingTooEarly(t *testing.T) {
	c := signal.OpportunityComponents{EmergenceProbability: 0.1, TemporalMomentum: 0.1}
	if got := marketTiming(c, nil); got != signal.TimingTooEarly {
		t.Errorf("marketTiming() = %v, want %v", got, signal.TimingTooEarly)
	}
}

func TestMarketTimingNow(t *testing.T) {
	c := signal.OpportunityComponents{TemporalMomentum: 0.6, EmergenceProbability: 0.5}
	if got := marketTiming(c, nil); got != signal.TimingNow {
		t.Errorf("marketTiming() = %v, want %v", got, signal.TimingNow)
	}
}

func TestMarketTimingPast(t *testing.T) {
	c := signal.OpportunityComponents{TemporalMomentum: 0.25, EmergenceProbability: 0.25}
	patterns := []signal.TemporalPattern{{Tag: signal.PatternAnomaly, Strength: 0.9}}
	if got := marketTiming(c, patterns); got != signal.TimingPast {
		t.Errorf("marketTiming() = %v, want %v", got, signal.TimingPast)
	}
}

func TestMarketTimingEarlyLateSplit(t *testing.T) {
	early := signal.OpportunityComponents{TemporalMomentum: 0.3, EmergenceProbability: 0.25}
	late := signal.OpportunityComponents{TemporalMomentum: 0.4, EmergenceProbability: 0.25}
	if got := marketTiming(early, nil); got != signal.TimingEarly {
		t.Errorf("marketTiming(momentum=0.3) = %v, want %v", got, signal.TimingEarly)
	}
	if got := marketTiming(late, nil); got != signal.TimingLate {
		t.Errorf("marketTiming(momentum=0.4) = %v, want %v", got, signal.TimingLate)
	}
}

func TestRiskFactorsLowCredibility(t *testing.T) {
	c := signal.SignalCluster{PlatformsCovered: []signal.Platform{signal.PlatformReddit, signal.PlatformGitHub}}
	components := signal.OpportunityComponents{Credibility: 0.2}
	risks := riskFactors(c, nil, components)
	if !containsRisk(risks, "low_credibility") {
		t.Errorf("riskFactors() = %v, want low_credibility", risks)
	}
}

func TestRiskFactorsSinglePlatform(t *testing.T) {
	c := signal.SignalCluster{PlatformsCovered: []signal.Platform{signal.PlatformReddit}}
	risks := riskFactors(c, nil, signal.OpportunityComponents{Credibility: 0.9})
	if !containsRisk(risks, "single_platform_coverage") {
		t.Errorf("riskFactors() = %v, want single_platform_coverage", risks)
	}
}

func TestRiskFactorsContradictingSentiment(t *testing.T) {
	members := []signal.Signal{{Platform: signal.PlatformReddit, ID: "1"}, {Platform: signal.PlatformGitHub, ID: "2"}}
	c := signal.SignalCluster{Members: members, PlatformsCovered: []signal.Platform{signal.PlatformReddit, signal.PlatformGitHub}}
	enrichment := map[string]Enrichment{
		members[0].Key(): {Semantic: signal.SemanticScore{SentimentPolarity: 0.9}},
		members[1].Key(): {Semantic: signal.SemanticScore{SentimentPolarity: -0.9}},
	}
	risks := riskFactors(c, enrichment, signal.OpportunityComponents{Credibility: 0.9})
	if !containsRisk(risks, "contradicting_sentiment") {
		t.Errorf("riskFactors() = %v, want contradicting_sentiment", risks)
	}
}

func containsRisk(risks []string, want string) bool {
	for _, r := range risks {
		if r == want {
			return true
		}
	}
	return false
}

func TestDescribeUsesDominantProblemType(t *testing.T) {
	members := []signal.Signal{{Platform: signal.PlatformReddit, ID: "1"}, {Platform: signal.PlatformGitHub, ID: "2"}}
	c := signal.SignalCluster{Members: members, PlatformsCovered: []signal.Platform{signal.PlatformReddit, signal.PlatformGitHub}}
	enrichment := map[string]Enrichment{
		members[0].Key(): {Pain: signal.PainPointAssessment{Detected: true, ProblemType: signal.ProblemCost, TargetMarket: "saas"}},
		members[1].Key(): {Pain: signal.PainPointAssessment{Detected: true, ProblemType: signal.ProblemCost, TargetMarket: "saas"}},
	}
	title, summary := describe(c, enrichment)
	if title == "" || summary == "" {
		t.Fatal("describe() returned an empty title or summary")
	}
}
