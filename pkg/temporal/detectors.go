package temporal

import (
	"math"
	"math/cmplx"
	"time"

	"luciq/pkg/signal"
)

// candidatePeriods are the dominant periods checked for seasonality (§4.5),
// expressed as a sample count given the series' grid.
func candidatePeriodsSamples(grid time.Duration) map[time.Duration]int {
	out := map[time.Duration]int{}
	for _, period := range []time.Duration{24 * time.Hour, 7 * 24 * time.Hour, 30 * 24 * time.Hour} {
		if grid <= 0 {
			continue
		}
		n := int(period / grid)
		if n > 1 {
			out[period] = n
		}
	}
	return out
}

// seasonality performs a simple additive seasonal decomposition for each
// candidate period with at least 2 full periods of data, picking the
// period whose seasonal component explains the most residual variance
// (§4.5). Returns the pattern plus the chosen seasonal component (aligned
// to series.Values) for downstream trend/cyclicality detrending.
func (e *Engine) seasonality(clusterID string, series Series) (signal.TemporalPattern, []float64) {
	values := series.Values
	n := len(values)

	periods := candidatePeriodsSamples(series.Grid)
	var bestPeriod time.Duration
	var bestComponent []float64
	bestStrength := 0.0
	var dominantPeriods []time.Duration

	totalVar := variance(values)
	if totalVar == 0 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternSeasonal, Strength: 0, Confidence: 0}, make([]float64, n)
	}

	for period, periodLen := range periods {
		if periodLen < 2 || n < periodLen*2 {
			continue
		}
		component := additiveSeasonalComponent(values, periodLen)
		residual := subtract(values, component)
		strength := clamp01(1 - variance(residual)/totalVar)
		if strength > bestStrength {
			bestStrength = strength
			bestPeriod = period
			bestComponent = component
		}
		if strength >= 0.2 {
			dominantPeriods = append(dominantPeriods, period)
		}
	}

	if bestComponent == nil {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternSeasonal, Strength: 0, Confidence: 0}, make([]float64, n)
	}

	confidence := clamp01(bestStrength)
	_ = bestPeriod
	return signal.TemporalPattern{
		ClusterID:       clusterID,
		Tag:             signal.PatternSeasonal,
		Strength:        clamp01(bestStrength),
		Confidence:      confidence,
		DominantPeriods: dominantPeriods,
	}, bestComponent
}

// additiveSeasonalComponent computes the mean value at each phase
// (index mod periodLen) across all full cycles, then tiles it back out to
// length len(values).
func additiveSeasonalComponent(values []float64, periodLen int) []float64 {
	phaseSum := make([]float64, periodLen)
	phaseCount := make([]int, periodLen)
	for i, v := range values {
		phase := i % periodLen
		phaseSum[phase] += v
		phaseCount[phase]++
	}
	phaseMean := make([]float64, periodLen)
	overall := mean(values)
	for i := range phaseSum {
		if phaseCount[i] > 0 {
			phaseMean[i] = phaseSum[i]/float64(phaseCount[i]) - overall
		}
	}
	component := make([]float64, len(values))
	for i := range values {
		component[i] = phaseMean[i%periodLen]
	}
	return component
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		bi := 0.0
		if i < len(b) {
			bi = b[i]
		}
		out[i] = a[i] - bi
	}
	return out
}

// trend fits OLS linear and quadratic models to the deseasonalized series,
// picking whichever has higher adjusted R² (§4.5). Returns the pattern and
// the residual after removing the chosen trend (for cyclicality).
func (e *Engine) trend(clusterID string, values []float64, seasonalComponent []float64) (signal.TemporalPattern, []float64) {
	deseasonalized := subtract(values, seasonalComponent)
	n := len(deseasonalized)
	if n < 2 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternTrend, Strength: 0, Confidence: 0}, deseasonalized
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	linFit, linR2 := olsLinear(x, deseasonalized)
	quadFit, quadR2 := olsQuadratic(x, deseasonalized)

	linAdjR2 := adjustedR2(linR2, n, 2)
	quadAdjR2 := adjustedR2(quadR2, n, 3)

	var fitted []float64
	var slope float64
	var chosenAdjR2 float64
	if quadAdjR2 > linAdjR2 {
		fitted = quadFit.values
		slope = quadFit.slopeAt(float64(n - 1))
		chosenAdjR2 = quadAdjR2
	} else {
		fitted = linFit.values
		slope = linFit.b1
		chosenAdjR2 = linAdjR2
	}

	residual := subtract(deseasonalized, fitted)

	sd := math.Sqrt(variance(deseasonalized))
	sdx := math.Sqrt(variance(x))
	standardizedSlope := 0.0
	if sd > 0 {
		standardizedSlope = slope * sdx / sd
	}
	strength := clamp01(math.Abs(standardizedSlope))
	confidence := clamp01(math.Max(chosenAdjR2, 0))

	return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternTrend, Strength: strength, Confidence: confidence}, residual
}

type linearFit struct {
	b0, b1 float64
	values []float64
}

func (f linearFit) slopeAt(x float64) float64 { return f.b1 }

func olsLinear(x, y []float64) (linearFit, float64) {
	n := float64(len(x))
	mx, my := mean(x), mean(y)
	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	b1 := 0.0
	if sxx != 0 {
		b1 = sxy / sxx
	}
	b0 := my - b1*mx
	fitted := make([]float64, len(x))
	for i := range x {
		fitted[i] = b0 + b1*x[i]
	}
	r2 := rSquared(y, fitted)
	_ = n
	return linearFit{b0: b0, b1: b1, values: fitted}, r2
}

type quadraticFit struct {
	b0, b1, b2 float64
	values     []float64
}

func (f quadraticFit) slopeAt(x float64) float64 { return f.b1 + 2*f.b2*x }

// olsQuadratic fits y = b0 + b1*x + b2*x^2 via the normal equations on
// centered x (numerically stabler than raw powers for long series).
func olsQuadratic(x, y []float64) (quadraticFit, float64) {
	n := len(x)
	if n < 3 {
		lf, r2 := olsLinear(x, y)
		return quadraticFit{b0: lf.b0, b1: lf.b1, values: lf.values}, r2
	}
	mx := mean(x)
	cx := make([]float64, n)
	for i := range x {
		cx[i] = x[i] - mx
	}

	var s0, s1, s2, s3, s4, sy0, sy1, sy2 float64
	s0 = float64(n)
	for i := range cx {
		xi := cx[i]
		xi2 := xi * xi
		s1 += xi
		s2 += xi2
		s3 += xi2 * xi
		s4 += xi2 * xi2
		sy0 += y[i]
		sy1 += xi * y[i]
		sy2 += xi2 * y[i]
	}

	// Solve the 3x3 normal-equations system [[s0,s1,s2],[s1,s2,s3],[s2,s3,s4]] * [a,b,c]^T = [sy0,sy1,sy2]^T
	a, b, c, ok := solve3x3(
		[3][3]float64{{s0, s1, s2}, {s1, s2, s3}, {s2, s3, s4}},
		[3]float64{sy0, sy1, sy2},
	)
	if !ok {
		lf, r2 := olsLinear(x, y)
		return quadraticFit{b0: lf.b0, b1: lf.b1, values: lf.values}, r2
	}

	fitted := make([]float64, n)
	for i := range cx {
		fitted[i] = a + b*cx[i] + c*cx[i]*cx[i]
	}
	r2 := rSquared(y, fitted)

	// Convert centered coefficients back to raw-x coefficients:
	// y = a + b(x-mx) + c(x-mx)^2 = (a - b*mx + c*mx^2) + (b - 2c*mx)x + c*x^2
	b0 := a - b*mx + c*mx*mx
	b1 := b - 2*c*mx
	b2 := c
	return quadraticFit{b0: b0, b1: b1, b2: b2, values: fitted}, r2
}

func solve3x3(m [3][3]float64, v [3]float64) (x, y, z float64, ok bool) {
	det := det3(m)
	if math.Abs(det) < 1e-9 {
		return 0, 0, 0, false
	}
	mx := m
	mx[0][0], mx[1][0], mx[2][0] = v[0], v[1], v[2]
	my := m
	my[0][1], my[1][1], my[2][1] = v[0], v[1], v[2]
	mz := m
	mz[0][2], mz[1][2], mz[2][2] = v[0], v[1], v[2]
	return det3(mx) / det, det3(my) / det, det3(mz) / det, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func rSquared(y, fitted []float64) float64 {
	totalVar := variance(y) * float64(len(y)-1)
	if totalVar == 0 {
		return 0
	}
	residual := subtract(y, fitted)
	var ssRes float64
	for _, r := range residual {
		ssRes += r * r
	}
	return clamp01(1 - ssRes/totalVar)
}

func adjustedR2(r2 float64, n, params int) float64 {
	if n-params-1 <= 0 {
		return r2
	}
	adj := 1 - (1-r2)*float64(n-1)/float64(n-params-1)
	if math.IsNaN(adj) || math.IsInf(adj, 0) {
		return r2
	}
	return adj
}

// cyclicality finds the dominant frequency via FFT of the residual, only
// reporting a pattern if the spectral peak exceeds 3x the median power
// (§4.5).
func (e *Engine) cyclicality(clusterID string, residual []float64) signal.TemporalPattern {
	n := len(residual)
	if n < 4 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternCyclical, Strength: 0, Confidence: 0}
	}

	power := fftPowerSpectrum(residual)
	// Ignore the DC component (index 0).
	if len(power) <= 1 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternCyclical, Strength: 0, Confidence: 0}
	}
	bins := power[1:]
	med := median(append([]float64(nil), bins...))

	peak := 0.0
	for _, p := range bins {
		if p > peak {
			peak = p
		}
	}
	if med <= 0 || peak < 3*med {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternCyclical, Strength: 0, Confidence: 0}
	}

	ratio := peak / med
	strength := clamp01(ratio / (ratio + 3)) // saturates smoothly above the 3x threshold
	confidence := clamp01(ratio / 10)
	return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternCyclical, Strength: strength, Confidence: confidence}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// fftPowerSpectrum computes |FFT(x)|^2 via a radix-2 Cooley-Tukey FFT,
// zero-padding x to the next power of two.
func fftPowerSpectrum(x []float64) []float64 {
	n := nextPowerOfTwo(len(x))
	if n < 2 {
		return nil
	}
	padded := make([]complex128, n)
	for i, v := range x {
		padded[i] = complex(v, 0)
	}
	fft(padded)

	half := n / 2
	power := make([]float64, half+1)
	for i := 0; i <= half; i++ {
		power[i] = cmplx.Abs(padded[i]) * cmplx.Abs(padded[i])
	}
	return power
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// fft is an in-place iterative radix-2 Cooley-Tukey FFT; len(a) must be a
// power of two.
func fft(a []complex128) {
	n := len(a)
	if n <= 1 {
		return
	}
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wlen := cmplx.Rect(1, angle)
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := a[i+j]
				v := a[i+j+length/2] * w
				a[i+j] = u + v
				a[i+j+length/2] = u - v
				w *= wlen
			}
		}
	}
}

// anomaly flags points with |z| > 3 against a rolling window (§4.5).
func (e *Engine) anomaly(clusterID string, values []float64) signal.TemporalPattern {
	window := e.cfg.Window
	if window > len(values) {
		window = len(values)
	}
	if window < 2 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternAnomaly, Strength: 0, Confidence: 0}
	}

	maxAbsZ := 0.0
	anomalies := 0
	for i := range values {
		start := i - window
		if start < 0 {
			start = 0
		}
		windowSlice := values[start:i]
		if len(windowSlice) < 2 {
			continue
		}
		m := mean(windowSlice)
		sd := math.Sqrt(variance(windowSlice))
		if sd == 0 {
			continue
		}
		z := (values[i] - m) / sd
		if math.Abs(z) > maxAbsZ {
			maxAbsZ = math.Abs(z)
		}
		if math.Abs(z) > 3 {
			anomalies++
		}
	}

	strength := clamp01(maxAbsZ / 6)
	confidence := 0.0
	if anomalies > 0 {
		confidence = clamp01(float64(anomalies) / float64(len(values)))
		if confidence < 0.3 {
			confidence = 0.3 // at least one confirmed anomaly is meaningful
		}
	}
	return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternAnomaly, Strength: strength, Confidence: confidence}
}

// emergence requires positive first AND second differences over a short
// recent window, with level >= 1.5x the trailing median (§4.5).
func (e *Engine) emergence(clusterID string, values []float64) signal.TemporalPattern {
	window := e.cfg.EmergenceWindow
	if window > len(values) {
		window = len(values)
	}
	if window < 3 {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternEmergence, Strength: 0, Confidence: 0}
	}

	recent := values[len(values)-window:]
	firstDiffs := diff(recent)
	secondDiffs := diff(firstDiffs)

	avgVelocity := mean(firstDiffs)
	avgAccel := mean(secondDiffs)

	trailing := values
	if len(values) > window {
		trailing = values[:len(values)-window]
	}
	trailingMedian := median(trailing)
	level := recent[len(recent)-1]

	positiveVelocity := avgVelocity > 0
	positiveAccel := avgAccel > 0
	levelCondition := trailingMedian == 0 && level > 0 || (trailingMedian > 0 && level >= 1.5*trailingMedian)

	if !(positiveVelocity && positiveAccel && levelCondition) {
		return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternEmergence, Strength: 0, Confidence: 0}
	}

	// Scale velocity/acceleration relative to the series' own pre-growth
	// baseline, not its peak: a small-count series that goes 1->2->4->8
	// doubles every step just as surely as a large-count one, so dividing
	// by the trailing level (floored at 1) keeps strength comparable across
	// both instead of collapsing small series toward zero.
	baseline := trailingMedian
	if len(trailing) == 0 {
		half := len(recent) / 2
		if half < 1 {
			half = 1
		}
		baseline = median(recent[:half])
	}
	baselineFloor := baseline
	if baselineFloor < 1 {
		baselineFloor = 1
	}
	velocityMag := clamp01(avgVelocity / baselineFloor)
	accelMag := clamp01(avgAccel / baselineFloor)
	strength := clamp01(0.6*velocityMag + 0.4*accelMag)
	confidence := clamp01(strength + 0.2)

	return signal.TemporalPattern{ClusterID: clusterID, Tag: signal.PatternEmergence, Strength: strength, Confidence: confidence}
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// forecast produces a short-horizon point forecast with an 80% band from
// the composed seasonal+trend decomposition; best-effort (§4.5) — returns
// nil rather than erroring if the inputs don't support one.
func (e *Engine) forecast(series Series, seasonalComponent []float64, trendPattern signal.TemporalPattern) *signal.Forecast {
	n := len(series.Values)
	if n < 4 {
		return nil
	}
	horizon := n
	if horizon > 2*n {
		horizon = 2 * n
	}

	deseasonalized := subtract(series.Values, seasonalComponent)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	fit, _ := olsLinear(x, deseasonalized)
	residual := subtract(deseasonalized, fit.values)
	se := math.Sqrt(variance(residual))
	band := 1.2815949 * se // 80% two-sided normal band

	periodLen := len(seasonalComponent)
	point := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		t := float64(n + h)
		trendVal := fit.b0 + fit.b1*t
		seasonalVal := 0.0
		if periodLen > 0 {
			seasonalVal = seasonalComponent[(n+h)%periodLen]
		}
		point[h] = trendVal + seasonalVal
		lower[h] = point[h] - band
		upper[h] = point[h] + band
	}

	return &signal.Forecast{
		HorizonSamples: horizon,
		PointEstimate:  point,
		LowerBand80:    lower,
		UpperBand80:    upper,
	}
}
