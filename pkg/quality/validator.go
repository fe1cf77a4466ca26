// Package quality implements the Signal Quality Validator (C2): a
// six-dimensional quality score plus accept/reject gate (§4.2). The
// validator is pure given its inputs and the current credibility snapshot —
// calling it twice on the same batch with the same snapshot returns
// identical decisions.
package quality

import (
	"math"
	"regexp"
	"strings"
	"time"

	"luciq/pkg/signal"
)

// CredibilitySource supplies the one external input the validator needs
// from C3: a read-only snapshot of platform and source reliability.
type CredibilitySource interface {
	PlatformOverall(platform signal.Platform) float64
	SourceEMAAccuracy(platform signal.Platform, authorRef string) (ema float64, priorSignals int, ok bool)
}

// EngagementBaseline is a rolling per-platform engagement distribution used
// to z-score a signal's engagement (§4.2 engagement_validity).
type EngagementBaseline interface {
	ZScore(platform signal.Platform, value float64) (z float64, ok bool)
}

// Validator computes QualityScore and enforces the acceptance gate.
type Validator struct {
	Threshold   float64
	Credibility CredibilitySource
	Baseline    EngagementBaseline
}

// New constructs a Validator with the given threshold (default 0.60 per
// §4.2, overridable via config.Quality.Threshold).
func New(threshold float64, cred CredibilitySource, baseline EngagementBaseline) *Validator {
	if threshold <= 0 {
		threshold = signal.QualityThreshold
	}
	return &Validator{Threshold: threshold, Credibility: cred, Baseline: baseline}
}

// Score computes the full QualityScore for sig as of now.
func (v *Validator) Score(sig signal.Signal, now time.Time) signal.QualityScore {
	auth := v.authenticity(sig)
	fresh := freshness(sig, now)
	rel := relevance(sig)
	cred := v.sourceCredibility(sig)
	content := contentQuality(sig)
	eng := v.engagementValidity(sig)

	w := signal.QualityWeights
	overall := w.Authenticity*auth + w.Freshness*fresh + w.Relevance*rel +
		w.SourceCredibility*cred + w.ContentQuality*content + w.EngagementValidity*eng

	return signal.QualityScore{
		Authenticity:       auth,
		Freshness:          fresh,
		Relevance:          rel,
		SourceCredibility:  cred,
		ContentQuality:     content,
		EngagementValidity: eng,
		Overall:            overall,
		Accepted:           overall >= v.Threshold,
	}
}

// Batch runs Score over signals and returns only the accepted ones, in input
// order. It never raises for rejections. Signals that fail Validate are not
// scored. onReject is invoked for each rejection (with a zero QualityScore
// for a structurally invalid signal) so the caller can increment the
// signals_rejected_total{reason} metric.
func (v *Validator) Batch(signals []signal.Signal, now time.Time, onReject func(sig signal.Signal, score signal.QualityScore)) []signal.Signal {
	accepted := make([]signal.Signal, 0, len(signals))
	for _, sig := range signals {
		if err := sig.Validate(); err != nil {
			if onReject != nil {
				onReject(sig, signal.QualityScore{})
			}
			continue
		}
		score := v.Score(sig, now)
		if score.Accepted {
			accepted = append(accepted, sig)
		} else if onReject != nil {
			onReject(sig, score)
		}
	}
	return accepted
}

// --- dimension computations (§4.2) ---------------------------------------

var (
	urlPattern      = regexp.MustCompile(`https?://`)
	templatedPhrase = regexp.MustCompile(`(?i)(click here|check out my|buy now|limited time offer|don't miss out)`)
)

// authenticity combines engagement realism, anti-spam URL and exclamation
// density, and templated-phrase detection into a [0,1] score.
func (v *Validator) authenticity(sig signal.Signal) float64 {
	text := sig.Text()
	words := wordCount(text)
	score := 1.0

	if words > 0 {
		urlCount := len(urlPattern.FindAllString(text, -1))
		urlDensity := float64(urlCount) / float64(words)
		if urlDensity > 0.05 {
			score -= math.Min(0.5, urlDensity*5)
		}
	}

	if templatedPhrase.MatchString(text) {
		score -= 0.35
	}

	bangs := strings.Count(text, "!")
	if words > 0 && float64(bangs)/float64(words) > 0.03 {
		score -= 0.2
	}

	if !sig.Engagement.HasData() {
		score -= 0.05 // mild penalty: unverifiable engagement realism
	}

	return clamp01(score)
}

// freshness is exp(-age_hours/tau), tau=72 (§4.2).
func freshness(sig signal.Signal, now time.Time) float64 {
	const tau = 72.0
	ageHours := now.Sub(sig.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return clamp01(math.Exp(-ageHours / tau))
}

// businessRelevanceTerms is a lexical stand-in for the fixed
// "business/SaaS problem or product discussion" embedding prototype named
// in the glossary. Cosine similarity over a real sentence embedding is the
// production path (provided by semantic.ModelProvider); absent that model
// here, the validator uses a term-overlap heuristic against the same
// vocabulary so it degrades consistently with the fallback model.
var businessRelevanceTerms = map[string]float64{
	"startup": 1, "saas": 1, "product": 0.7, "customers": 0.8, "pricing": 0.8,
	"revenue": 0.9, "business": 0.9, "market": 0.7, "api": 0.6, "tool": 0.5,
	"alternative": 0.7, "workflow": 0.6, "subscription": 0.8, "founders": 0.8,
	"b2b": 0.9, "integration": 0.6, "platform": 0.6, "users": 0.6,
}

// relevance approximates cosine similarity between the signal text and the
// business-relevance prototype via weighted term overlap, clipped to [0,1].
func relevance(sig signal.Signal) float64 {
	text := strings.ToLower(sig.Text())
	if text == "" {
		return 0
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	var hit float64
	seen := map[string]bool{}
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if w, ok := businessRelevanceTerms[tok]; ok {
			hit += w
		}
	}
	norm := math.Sqrt(float64(len(businessRelevanceTerms)))
	return clamp01(hit / norm)
}

func (v *Validator) sourceCredibility(sig signal.Signal) float64 {
	base := 0.5
	if v.Credibility != nil {
		base = v.Credibility.PlatformOverall(sig.Platform)
	}
	if v.Credibility != nil {
		if ema, prior, ok := v.Credibility.SourceEMAAccuracy(sig.Platform, sig.AuthorRef); ok && prior >= signal.MinPriorSignalsForAdjustment {
			base = 0.5*base + 0.5*ema
		}
	}
	return clamp01(base)
}

// contentQuality is length-normalized type/token ratio (capped token
// window) times a readability floor (§4.2).
func contentQuality(sig signal.Signal) float64 {
	text := sig.Text()
	tokens := tokenize(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0
	}
	const capWindow = 200
	if len(tokens) > capWindow {
		tokens = tokens[:capWindow]
	}

	types := map[string]bool{}
	var totalLen int
	for _, t := range tokens {
		types[t] = true
		totalLen += len(t)
	}
	typeTokenRatio := float64(len(types)) / float64(len(tokens))

	avgWordLen := float64(totalLen) / float64(len(tokens))
	readabilityFloor := clamp01((avgWordLen - 2) / 6) // short/garbled text scores low

	lengthNorm := clamp01(float64(len(tokens)) / 40.0) // very short posts are penalized

	return clamp01(typeTokenRatio * math.Max(readabilityFloor, 0.3) * math.Max(lengthNorm, 0.4))
}

// engagementValidity z-scores this signal's engagement against a rolling
// per-platform baseline, compressed through a logistic into [0,1]. Signals
// with no engagement data score exactly 0.5 (§4.2, §8 boundary behavior).
func (v *Validator) engagementValidity(sig signal.Signal) float64 {
	if !sig.Engagement.HasData() {
		return 0.5
	}
	value := 0.0
	if sig.Engagement.Upvotes != nil {
		value += float64(*sig.Engagement.Upvotes)
	}
	if sig.Engagement.Comments != nil {
		value += float64(*sig.Engagement.Comments) * 2 // comments weigh more: active discussion
	}
	if sig.Engagement.Views != nil {
		value += float64(*sig.Engagement.Views) * 0.01
	}

	if v.Baseline == nil {
		return 0.5
	}
	z, ok := v.Baseline.ZScore(sig.Platform, value)
	if !ok {
		return 0.5
	}
	return logistic(z)
}

func logistic(z float64) float64 { return 1.0 / (1.0 + math.Exp(-z)) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

var tokenPattern = regexp.MustCompile(`[a-z0-9']+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
