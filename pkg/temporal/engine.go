// Package temporal implements the Temporal Pattern Engine (C6): seasonality,
// trend, cyclicality, anomaly, and emergence detection over a time-indexed
// signal stream (§4.5). No numerical/statistics library appears anywhere in
// the retrieved corpus (no gonum, no montanaflynn/stats), so this package is
// stdlib math/sort only — see DESIGN.md.
package temporal

import (
	"math"
	"time"

	"luciq/pkg/signal"
)

// Series is an ordered, evenly-spaced time series on a fixed grid. Building
// one from irregular timestamped events is ToGrid's job.
type Series struct {
	Grid   time.Duration
	Start  time.Time
	Values []float64
}

// ToGrid converts irregular (timestamp, value) observations to a fixed grid
// by summation, with gaps filled at 0 (§4.5).
func ToGrid(points []TimedValue, grid time.Duration) Series {
	if len(points) == 0 {
		return Series{Grid: grid}
	}
	minT, maxT := points[0].At, points[0].At
	for _, p := range points {
		if p.At.Before(minT) {
			minT = p.At
		}
		if p.At.After(maxT) {
			maxT = p.At
		}
	}
	n := int(maxT.Sub(minT)/grid) + 1
	if n < 1 {
		n = 1
	}
	values := make([]float64, n)
	for _, p := range points {
		idx := int(p.At.Sub(minT) / grid)
		if idx >= 0 && idx < n {
			values[idx] += p.Value
		}
	}
	return Series{Grid: grid, Start: minT, Values: values}
}

// TimedValue is one raw observation before gridding.
type TimedValue struct {
	At    time.Time
	Value float64
}

// Config bounds the engine's window sizes (§6 temporal.window, defaults
// from §4.5).
type Config struct {
	Window         int // rolling window for anomaly detection, default 48
	EmergenceWindow int // default 24
	MinSamplesForSeasonalTrend int // default 8
}

// DefaultConfig matches §4.5's stated defaults.
func DefaultConfig() Config {
	return Config{Window: 48, EmergenceWindow: 24, MinSamplesForSeasonalTrend: 8}
}

// Engine is the C6 capability.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = 48
	}
	if cfg.EmergenceWindow <= 0 {
		cfg.EmergenceWindow = 24
	}
	if cfg.MinSamplesForSeasonalTrend <= 0 {
		cfg.MinSamplesForSeasonalTrend = 8
	}
	return &Engine{cfg: cfg}
}

// Detect runs every detection over series for clusterID, returning the full
// set of TemporalPattern records (§4.5).
func (e *Engine) Detect(clusterID string, series Series) []signal.TemporalPattern {
	var patterns []signal.TemporalPattern

	n := len(series.Values)
	if n == 0 {
		return patterns
	}

	if isConstant(series.Values) {
		// §4.5/§8: constant series -> all-zero patterns, confidence 0, never NaN.
		for _, tag := range []signal.PatternTag{signal.PatternSeasonal, signal.PatternTrend, signal.PatternCyclical, signal.PatternAnomaly, signal.PatternEmergence} {
			patterns = append(patterns, signal.TemporalPattern{ClusterID: clusterID, Tag: tag, Strength: 0, Confidence: 0})
		}
		return patterns
	}

	if n < e.cfg.MinSamplesForSeasonalTrend {
		// §4.5 edge case: < 8 samples yields only anomaly/emergence slots;
		// seasonal/trend return zero strength/confidence.
		patterns = append(patterns,
			signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternSeasonal, Strength: 0, Confidence: 0},
			signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternTrend, Strength: 0, Confidence: 0},
		)
		patterns = append(patterns, e.anomaly(clusterID, series.Values))
		patterns = append(patterns, e.emergence(clusterID, series.Values))
		return patterns
	}

	seasonal, seasonalComponent := e.seasonality(clusterID, series)
	trend, residualAfterTrend := e.trend(clusterID, series.Values, seasonalComponent)
	cyclical := e.cyclicality(clusterID, residualAfterTrend)
	anomaly := e.anomaly(clusterID, series.Values)
	emergence := e.emergence(clusterID, series.Values)

	patterns = append(patterns, seasonal, trend, cyclical, anomaly, emergence)

	if fc := e.forecast(series, seasonalComponent, trend); fc != nil {
		for i := range patterns {
			if patterns[i].Tag == signal.PatternTrend {
				patterns[i].Forecast = fc
			}
		}
	}

	return patterns
}

func isConstant(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	first := xs[0]
	for _, x := range xs {
		if x != first {
			return false
		}
	}
	return true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs)-1)
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
