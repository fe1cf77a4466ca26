package temporal

import (
	"testing"
	"time"

	"luciq/pkg/signal"
)

func TestToGridSumsIntoBuckets(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []TimedValue{
		{At: base, Value: 1},
		{At: base.Add(30 * time.Minute), Value: 1},
		{At: base.Add(time.Hour), Value: 1},
	}
	series := ToGrid(points, time.Hour)
	if len(series.Values) != 2 {
		t.Fatalf("ToGrid() produced %d buckets, want 2", len(series.Values))
	}
	if series.Values[0] != 2 {
		t.Errorf("bucket 0 = %v, want 2", series.Values[0])
	}
	if series.Values[1] != 1 {
		t.Errorf("bucket 1 = %v, want 1", series.Values[1])
	}
}

func TestToGridEmptyPoints(t *testing.T) {
	series := ToGrid(nil, time.Hour)
	if len(series.Values) != 0 {
		t.Errorf("ToGrid(nil) produced %d buckets, want 0", len(series.Values))
	}
}

func TestNewClampsInvalidConfig(t *testing.T) {
	e := New(Config{})
	if e.cfg.Window != 48 || e.cfg.EmergenceWindow != 24 || e.cfg.MinSamplesForSeasonalTrend != 8 {
		t.Errorf("New(Config{}) = %+v, want defaults", e.cfg)
	}
}

func TestDetectEmptySeries(t *testing.T) {
	e := New(DefaultConfig())
	if got := e.Detect("c1", Series{}); got != nil {
		t.Errorf("Detect(empty) = %v, want nil", got)
	}
}

func TestDetectConstantSeriesAllZero(t *testing.T) {
	e := New(DefaultConfig())
	values := make([]float64, 20)
	for i := range values {
		values[i] = 5
	}
	patterns := e.Detect("c1", Series{Values: values, Grid: time.Hour})
	if len(patterns) != 5 {
		t.Fatalf("Detect(constant) returned %d patterns, want 5", len(patterns))
	}
	for _, p := range patterns {
		if p.Strength != 0 || p.Confidence != 0 {
			t.Errorf("pattern %v on constant series = %+v, want zero strength/confidence", p.Tag, p)
		}
	}
}

func TestDetectShortSeriesOnlyAnomalyAndEmergence(t *testing.T) {
	e := New(DefaultConfig())
	values := []float64{1, 2, 1, 3, 2}
	patterns := e.Detect("c1", Series{Values: values, Grid: time.Hour})
	if len(patterns) != 4 {
		t.Fatalf("Detect(short) returned %d patterns, want 4", len(patterns))
	}
	var sawSeasonal, sawTrend bool
	for _, p := range patterns {
		if p.Tag == signal.PatternSeasonal {
			sawSeasonal = true
			if p.Strength != 0 {
				t.Errorf("seasonal strength on short series = %v, want 0", p.Strength)
			}
		}
		if p.Tag == signal.PatternTrend {
			sawTrend = true
		}
	}
	if !sawSeasonal || !sawTrend {
		t.Error("Detect(short) missing seasonal/trend zero-value placeholders")
	}
}

func TestDetectUpwardTrendDetected(t *testing.T) {
	e := New(DefaultConfig())
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	patterns := e.Detect("c1", Series{Values: values, Grid: time.Hour})
	var trendStrength float64
	for _, p := range patterns {
		if p.Tag == signal.PatternTrend {
			trendStrength = p.Strength
		}
	}
	if trendStrength <= 0.3 {
		t.Errorf("trend strength for a clean linear ramp = %v, want > 0.3", trendStrength)
	}
}

func TestEmergenceRequiresAcceleratingGrowth(t *testing.T) {
	e := New(DefaultConfig())
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 1
	}
	flatResult := e.emergence("c1", flat)
	if flatResult.Strength != 0 {
		t.Errorf("emergence on flat series = %v, want 0", flatResult.Strength)
	}

	accelerating := make([]float64, 30)
	for i := range accelerating {
		if i < 20 {
			accelerating[i] = 1
		} else {
			accelerating[i] = float64((i - 19) * (i - 19))
		}
	}
	accelResult := e.emergence("c1", accelerating)
	if accelResult.Strength <= 0 {
		t.Error("emergence on an accelerating tail reported zero strength")
	}
}

func TestEmergenceMatchesDocumentedScenario(t *testing.T) {
	e := New(DefaultConfig())
	values := []float64{0, 0, 0, 0, 1, 1, 2, 4, 8, 13}
	got := e.emergence("c1", values)
	if got.Strength < 0.6 {
		t.Errorf("emergence(%v).Strength = %v, want >= 0.6", values, got.Strength)
	}
}

func TestAnomalyFlagsOutlier(t *testing.T) {
	e := New(DefaultConfig())
	values := make([]float64, 60)
	for i := range values {
		values[i] = 10
	}
	values[55] = 1000 // sharp outlier
	got := e.anomaly("c1", values)
	if got.Strength <= 0 {
		t.Error("anomaly() on a series with a sharp outlier reported zero strength")
	}
}

func TestIsConstant(t *testing.T) {
	if !isConstant([]float64{5, 5, 5}) {
		t.Error("isConstant([5,5,5]) = false")
	}
	if isConstant([]float64{5, 6, 5}) {
		t.Error("isConstant([5,6,5]) = true")
	}
	if !isConstant(nil) {
		t.Error("isConstant(nil) = false, want true")
	}
}

func TestMeanAndVariance(t *testing.T) {
	if got := mean([]float64{1, 2, 3}); got != 2 {
		t.Errorf("mean() = %v, want 2", got)
	}
	if got := variance([]float64{1}); got != 0 {
		t.Errorf("variance(single value) = %v, want 0", got)
	}
	if got := variance([]float64{2, 4}); got != 2 {
		t.Errorf("variance([2,4]) = %v, want 2", got)
	}
}

func TestClamp01(t *testing.T) {
	if got := clamp01(-1); got != 0 {
		t.Errorf("clamp01(-1) = %v, want 0", got)
	}
	if got := clamp01(2); got != 1 {
		t.Errorf("clamp01(2) = %v, want 1", got)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median([3,1,2]) = %v, want 2", got)
	}
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("median([1,2,3,4]) = %v, want 2.5", got)
	}
	if got := median(nil); got != 0 {
		t.Errorf("median(nil) = %v, want 0", got)
	}
}
