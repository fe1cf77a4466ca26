package signal

import "testing"

func TestCompositeWeightsSumToOne(t *testing.T) {
	sum := FusionWeights.Credibility + FusionWeights.PainIntensity + FusionWeights.TemporalMomentum +
		FusionWeights.Semantic + FusionWeights.EmergenceProbability + FusionWeights.Innovation
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("fusion weights sum to %v, want 1.0", sum)
	}
}

func TestComposite(t *testing.T) {
	c := OpportunityComponents{
		Credibility:          1,
		PainIntensity:        1,
		TemporalMomentum:     1,
		Semantic:             1,
		EmergenceProbability: 1,
		Innovation:           1,
	}
	if got := c.Composite(); got < 0.999 || got > 1.001 {
		t.Fatalf("Composite() with all-1 components = %v, want ~1.0", got)
	}

	zero := OpportunityComponents{}
	if got := zero.Composite(); got != 0 {
		t.Fatalf("Composite() with all-zero components = %v, want 0", got)
	}
}

func TestCorrelationTypeFor(t *testing.T) {
	cases := []struct {
		sim  float64
		want CorrelationType
	}{
		{0.95, CorrelationIdentical},
		{0.90, CorrelationIdentical},
		{0.80, CorrelationSimilar},
		{0.70, CorrelationSimilar},
		{0.55, CorrelationRelated},
		{0.50, CorrelationRelated},
		{0.10, CorrelationDivergent},
	}
	for _, tc := range cases {
		if got := CorrelationTypeFor(tc.sim); got != tc.want {
			t.Errorf("CorrelationTypeFor(%v) = %v, want %v", tc.sim, got, tc.want)
		}
	}
}
