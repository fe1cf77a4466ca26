package quality

import (
	"testing"

	"luciq/pkg/signal"
)

func TestRollingBaselineZScoreNeedsTwoObservations(t *testing.T) {
	b := NewRollingBaseline()
	if _, ok := b.ZScore(signal.PlatformReddit, 10); ok {
		t.Error("ZScore() with no observations reported ok = true")
	}
	b.Observe(signal.PlatformReddit, 10)
	if _, ok := b.ZScore(signal.PlatformReddit, 10); ok {
		t.Error("ZScore() with a single observation reported ok = true")
	}
}

func TestRollingBaselineZScoreCentered(t *testing.T) {
	b := NewRollingBaseline()
	for _, v := range []float64{10, 20, 30} {
		b.Observe(signal.PlatformGitHub, v)
	}
	z, ok := b.ZScore(signal.PlatformGitHub, 20)
	if !ok {
		t.Fatal("ZScore() ok = false, want true")
	}
	if z < -0.01 || z > 0.01 {
		t.Errorf("ZScore(mean) = %v, want ~0", z)
	}
}

func TestRollingBaselineZScoreAboveMeanIsPositive(t *testing.T) {
	b := NewRollingBaseline()
	for _, v := range []float64{5, 10, 15} {
		b.Observe(signal.PlatformHackerNews, v)
	}
	z, ok := b.ZScore(signal.PlatformHackerNews, 100)
	if !ok {
		t.Fatal("ZScore() ok = false")
	}
	if z <= 0 {
		t.Errorf("ZScore(well above mean) = %v, want > 0", z)
	}
}

func TestRollingBaselineZeroVariance(t *testing.T) {
	b := NewRollingBaseline()
	b.Observe(signal.PlatformTwitter, 5)
	b.Observe(signal.PlatformTwitter, 5)
	if _, ok := b.ZScore(signal.PlatformTwitter, 5); ok {
		t.Error("ZScore() with zero variance reported ok = true")
	}
}

func TestRollingBaselineTracksPlatformsIndependently(t *testing.T) {
	b := NewRollingBaseline()
	for _, v := range []float64{1, 2, 3} {
		b.Observe(signal.PlatformReddit, v)
	}
	if _, ok := b.ZScore(signal.PlatformGitHub, 1); ok {
		t.Error("ZScore() for an unobserved platform reported ok = true")
	}
}
