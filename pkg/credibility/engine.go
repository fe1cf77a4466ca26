// Package credibility implements the Source Credibility Engine (C3):
// per-platform and per-(platform, author) reliability state, updated from
// verification outcomes, and a weight multiplier applied at scoring time
// (§4.6). Per the design note in spec §9 ("treat C3 as an actor owning its
// rows"), Engine owns its state behind per-platform critical sections rather
// than exposing it as a package-level singleton — construct one at boot and
// pass it through dependencies, grounded on the teacher's sync.RWMutex-guarded
// store shape (pkg/core/knowledge/store.go).
package credibility

import (
	"math"
	"sync"
	"time"

	"luciq/pkg/signal"
)

// row is the mutable per-platform state. Reads take a copy under RLock;
// writes happen under the row's own Lock so verification writes for one
// platform never block reads of another (§4.6 concurrency).
type row struct {
	mu sync.RWMutex

	overall     float64
	reliability float64
	freshness   float64
	influence   float64
	consistency float64
	verification float64
	sampleSize  int

	authors map[string]*authorState

	lastFetchSuccess time.Time
	recentQualities  []float64 // last 30d overall quality samples, coarse ring
}

type authorState struct {
	seen, verTrue, verFalse int
	ema                     float64
	lastVerifiedAt          time.Time
}

// decayedEMA applies the §C half-life decay toward 0.5 as of now, so an
// author's influence fades once verifications stop arriving instead of
// staying pinned at its last observed value indefinitely.
func (a *authorState) decayedEMA(now time.Time) float64 {
	return signal.SourceReliability{EMAAccuracy: a.ema, LastVerifiedAt: a.lastVerifiedAt}.DecayedEMAAccuracy(now)
}

// Engine is the C3 capability: weight_for, score_for, record_verification.
type Engine struct {
	alpha float64 // verification EMA alpha (config: credibility.verification_alpha)

	mu   sync.RWMutex // guards the rows map itself (not its contents)
	rows map[signal.Platform]*row
}

// New constructs an Engine. seedOverrides lets config.credibility.seed_overrides
// replace the fixed base table for specific platforms.
func New(alpha float64, seedOverrides map[signal.Platform]float64) *Engine {
	if alpha <= 0 {
		alpha = 0.20
	}
	e := &Engine{alpha: alpha, rows: make(map[signal.Platform]*row)}
	for _, p := range signal.AllPlatforms {
		e.rows[p] = e.seedRow(p, seedOverrides)
	}
	return e
}

func (e *Engine) seedRow(p signal.Platform, overrides map[signal.Platform]float64) *row {
	overall := signal.PlatformSeedOverall[p]
	if v, ok := overrides[p]; ok {
		overall = v
	}
	return &row{
		overall:      overall,
		reliability:  overall,
		freshness:    0.8,
		influence:    0.6,
		consistency:  0.7,
		verification: 0.3,
		authors:      make(map[string]*authorState),
	}
}

// ensureRow returns the row for platform, seeding it on first access (§4.6
// "seed state is created on first access").
func (e *Engine) ensureRow(p signal.Platform) *row {
	e.mu.RLock()
	r, ok := e.rows[p]
	e.mu.RUnlock()
	if ok {
		return r
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok = e.rows[p]; ok {
		return r
	}
	r = e.seedRow(p, nil)
	e.rows[p] = r
	return r
}

// ScoreFor returns a consistent snapshot of a platform's credibility state.
func (e *Engine) ScoreFor(p signal.Platform) signal.PlatformCredibility {
	r := e.ensureRow(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return signal.PlatformCredibility{
		Platform:         p,
		Overall:          r.overall,
		Reliability:      r.reliability,
		Freshness:        r.freshness,
		Influence:        r.influence,
		Consistency:      r.consistency,
		Verification:     r.verification,
		WeightMultiplier: signal.WeightMultiplierFor(r.overall),
		SampleSize:       r.sampleSize,
	}
}

// WeightFor returns the [0.1, 2.0] multiplier for a platform, optionally
// blended with an author's reliability the same way C2's source_credibility
// dimension does (author adjustment kicks in only with enough history).
func (e *Engine) WeightFor(p signal.Platform, authorRef string) float64 {
	r := e.ensureRow(p)
	r.mu.RLock()
	defer r.mu.RUnlock()

	overall := r.overall
	if authorRef != "" {
		if a, ok := r.authors[authorRef]; ok && a.seen >= signal.MinPriorSignalsForAdjustment {
			overall = 0.5*overall + 0.5*a.decayedEMA(time.Now())
		}
	}
	return signal.WeightMultiplierFor(overall)
}

// SourceEMAAccuracy implements quality.CredibilitySource. The returned
// accuracy has the §C half-life decay applied, so an author who hasn't been
// re-verified in a while drifts back toward the neutral 0.5 rather than
// staying pinned at a stale value.
func (e *Engine) SourceEMAAccuracy(p signal.Platform, authorRef string) (float64, int, bool) {
	r := e.ensureRow(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.authors[authorRef]
	if !ok {
		return 0, 0, false
	}
	return a.decayedEMA(time.Now()), a.seen, true
}

// PlatformOverall implements quality.CredibilitySource.
func (e *Engine) PlatformOverall(p signal.Platform) float64 {
	r := e.ensureRow(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overall
}

// SourceSnapshot returns the persistable (platform, author_ref) reliability
// record, for callers that need to write it through to a Store after
// RecordVerification.
func (e *Engine) SourceSnapshot(p signal.Platform, authorRef string) (signal.SourceReliability, bool) {
	r := e.ensureRow(p)
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.authors[authorRef]
	if !ok {
		return signal.SourceReliability{}, false
	}
	return signal.SourceReliability{
		Platform:             p,
		AuthorRef:            authorRef,
		SignalsSeen:          a.seen,
		SignalsVerifiedTrue:  a.verTrue,
		SignalsVerifiedFalse: a.verFalse,
		EMAAccuracy:          a.ema,
		LastVerifiedAt:       a.lastVerifiedAt,
	}, true
}

// RecordVerification appends a verification outcome and updates derived
// credibility fields (§4.6). It is atomic per platform: concurrent
// verifications for different platforms never block each other, and a
// weight read never observes a torn write (bounded critical section).
func (e *Engine) RecordVerification(v signal.SignalVerification) {
	r := e.ensureRow(v.Platform)

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.authors[v.AuthorRef]
	if !ok {
		a = &authorState{ema: 0.5}
		r.authors[v.AuthorRef] = a
	}

	correct := v.PredictedPain == v.VerifiedPain
	outcome := 0.0
	if correct {
		outcome = 1.0
	}

	a.seen++
	if v.VerifiedPain {
		a.verTrue++
	} else {
		a.verFalse++
	}
	a.ema = ema(a.ema, outcome, e.alpha)
	a.lastVerifiedAt = v.VerifiedAt

	// platform reliability: EMA of active authors' ema_accuracy, alpha=0.05
	r.reliability = ema(r.reliability, a.ema, 0.05)

	r.verification = fractionVerified(r)
	r.sampleSize++

	r.overall = 0.40*r.reliability + 0.15*r.freshness + 0.15*r.influence +
		0.15*r.consistency + 0.15*r.verification
	clampRow(r)
}

func fractionVerified(r *row) float64 {
	if len(r.authors) == 0 {
		return r.verification
	}
	verified := 0
	for _, a := range r.authors {
		if a.seen > 0 {
			verified++
		}
	}
	return float64(verified) / float64(len(r.authors))
}

func clampRow(r *row) {
	if r.overall < 0 {
		r.overall = 0
	}
	if r.overall > 1 {
		r.overall = 1
	}
}

func ema(prev, sample, alpha float64) float64 {
	return alpha*sample + (1-alpha)*prev
}

// RecordFetchSuccess and RecordQualitySample feed the slow-moving freshness
// and consistency heuristics named in §4.6; they are driven by the pipeline
// orchestrator as signals flow through, not by verification alone.
func (e *Engine) RecordFetchSuccess(p signal.Platform, at time.Time) {
	r := e.ensureRow(p)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFetchSuccess = at
	hoursSince := time.Since(at).Hours()
	r.freshness = clamp01(1.0 - hoursSince/168.0)
}

func (e *Engine) RecordQualitySample(p signal.Platform, overall float64) {
	r := e.ensureRow(p)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentQualities = append(r.recentQualities, overall)
	const maxSamples = 500 // bounds memory; approximates a 30d window
	if len(r.recentQualities) > maxSamples {
		r.recentQualities = r.recentQualities[len(r.recentQualities)-maxSamples:]
	}
	r.consistency = clamp01(1.0 - coefficientOfVariation(r.recentQualities))
}

func coefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	stddev := math.Sqrt(variance)
	return stddev / mean
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
