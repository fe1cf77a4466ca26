// Package cluster implements the Cross-Platform Intelligence Engine (C7):
// agglomerative clustering of semantically similar signals across
// platforms (§4.7). No clustering or vector-math library appears anywhere
// in the retrieved corpus, so distance computation and linkage are stdlib
// math/sort only — see DESIGN.md.
package cluster

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"time"

	"luciq/pkg/semantic"
	"luciq/pkg/signal"
)

// Config bounds clustering behavior (§6 clustering.*).
type Config struct {
	Cut                   float64 // average-linkage cosine-distance cut, default 0.30
	UniversalMinPlatforms int     // default 3
	AlignmentWindow       time.Duration // default 14 days
	MaxTokensPerSignal    int           // embedding input cap, default 512
}

// DefaultConfig matches §4.7/§6's stated defaults.
func DefaultConfig() Config {
	return Config{Cut: 0.30, UniversalMinPlatforms: 3, AlignmentWindow: 14 * 24 * time.Hour, MaxTokensPerSignal: 512}
}

// Engine is the C7 capability.
type Engine struct {
	cfg      Config
	provider semantic.ModelProvider
}

// New constructs an Engine bound to provider (embeddings source). A nil
// provider defaults to the lexical fallback, same graceful-degradation
// contract as C4 (§4.3).
func New(cfg Config, provider semantic.ModelProvider) *Engine {
	if cfg.Cut <= 0 {
		cfg.Cut = 0.30
	}
	if cfg.UniversalMinPlatforms <= 0 {
		cfg.UniversalMinPlatforms = signal.UniversalMinPlatforms
	}
	if cfg.AlignmentWindow <= 0 {
		cfg.AlignmentWindow = 14 * 24 * time.Hour
	}
	if cfg.MaxTokensPerSignal <= 0 {
		cfg.MaxTokensPerSignal = 512
	}
	if provider == nil {
		provider = semantic.NewFallbackProvider()
	}
	return &Engine{cfg: cfg, provider: provider}
}

// Cluster groups sigs into SignalClusters via agglomerative clustering with
// cosine distance and an average-linkage cut (§4.7). Clustering is
// stateless per call.
func (e *Engine) Cluster(ctx context.Context, sigs []signal.Signal) ([]signal.SignalCluster, error) {
	if len(sigs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(sigs))
	for i, s := range sigs {
		texts[i] = capTokens(s.Text(), e.cfg.MaxTokensPerSignal)
	}

	embeddings, err := e.provider.EmbedBatch(ctx, texts)
	if err != nil {
		fb := semantic.NewFallbackProvider()
		embeddings, _ = fb.EmbedBatch(ctx, texts)
	}

	groups := agglomerativeCluster(embeddings, e.cfg.Cut)

	var clusters []signal.SignalCluster
	for _, group := range groups {
		members := make([]signal.Signal, len(group))
		memberVectors := make([][]float64, len(group))
		for i, idx := range group {
			members[i] = sigs[idx]
			memberVectors[i] = embeddings[idx]
		}

		meanSim := meanPairwiseSimilarity(memberVectors)
		if meanSim < 0.50 {
			continue // discarded per §4.7
		}

		platforms := platformsCovered(members)
		universal := len(platforms) >= e.cfg.UniversalMinPlatforms
		tight := e.tightTemporalAlignment(members, platforms)

		clusters = append(clusters, signal.SignalCluster{
			ClusterID:              clusterID(members),
			Members:                members,
			CorrelationType:        signal.CorrelationTypeFor(meanSim),
			MeanSimilarity:         meanSim,
			PlatformsCovered:       platforms,
			Universal:              universal,
			TightTemporalAlignment: tight,
		})
	}

	return clusters, nil
}

func capTokens(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text
	}
	return strings.Join(words[:maxTokens], " ")
}

// agglomerativeCluster performs average-linkage hierarchical clustering on
// embeddings, merging the closest pair of clusters (by average cosine
// distance between members) until the closest remaining pair exceeds cut.
// Returns each resulting group as a list of original indices.
func agglomerativeCluster(embeddings [][]float64, cut float64) [][]int {
	n := len(embeddings)
	if n == 0 {
		return nil
	}

	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}
	active := make(map[int]bool, n)
	for i := range groups {
		active[i] = true
	}

	distCache := map[[2]int]float64{}
	dist := func(a, b int) float64 {
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if d, ok := distCache[key]; ok {
			return d
		}
		d := avgLinkageDistance(groups[a], groups[b], embeddings)
		distCache[key] = d
		return d
	}

	for len(active) > 1 {
		bestA, bestB := -1, -1
		bestDist := cut
		var ids []int
		for id := range active {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				d := dist(ids[i], ids[j])
				if d <= bestDist {
					bestDist = d
					bestA, bestB = ids[i], ids[j]
				}
			}
		}
		if bestA == -1 {
			break // closest remaining pair exceeds the cut
		}

		groups[bestA] = append(groups[bestA], groups[bestB]...)
		delete(active, bestB)
		for key := range distCache {
			if key[0] == bestA || key[1] == bestA || key[0] == bestB || key[1] == bestB {
				delete(distCache, key)
			}
		}
	}

	var out [][]int
	for id := range active {
		sort.Ints(groups[id])
		out = append(out, groups[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func avgLinkageDistance(a, b []int, embeddings [][]float64) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += 1 - semantic.CosineSimilarity(embeddings[i], embeddings[j])
		}
	}
	return sum / float64(len(a)*len(b))
}

func meanPairwiseSimilarity(vectors [][]float64) float64 {
	n := len(vectors)
	if n <= 1 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += semantic.CosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	return sum / float64(pairs)
}

func platformsCovered(members []signal.Signal) []signal.Platform {
	seen := map[signal.Platform]bool{}
	var out []signal.Platform
	for _, m := range members {
		if !seen[m.Platform] {
			seen[m.Platform] = true
			out = append(out, m.Platform)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// tightTemporalAlignment computes the median time gap between each
// platform's first-appearing signal in the cluster, flagging true if that
// spread falls within the configured alignment window (§4.7).
func (e *Engine) tightTemporalAlignment(members []signal.Signal, platforms []signal.Platform) bool {
	if len(platforms) < 2 {
		return true
	}
	firstByPlatform := map[signal.Platform]time.Time{}
	for _, m := range members {
		t, ok := firstByPlatform[m.Platform]
		if !ok || m.CreatedAt.Before(t) {
			firstByPlatform[m.Platform] = m.CreatedAt
		}
	}
	var times []time.Time
	for _, t := range firstByPlatform {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	gaps := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]))
	}
	if len(gaps) == 0 {
		return true
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	medianGap := gaps[len(gaps)/2]
	return medianGap <= e.cfg.AlignmentWindow
}

var clusterStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "that": true,
	"this": true, "with": true, "have": true, "from": true, "they": true, "been": true,
	"will": true, "your": true, "about": true, "just": true, "into": true, "than": true,
}

var clusterTokenPattern = regexp.MustCompile(`[a-z0-9']+`)

// canonicalKeywords extracts a cluster's dominant vocabulary: tokens ranked
// by the number of members mentioning them, capped at n. Two clusters built
// from overlapping-but-not-identical signal sets converge on the same
// keyword set as long as the underlying topic's vocabulary dominates, which
// is what keeps clusterID comparable across re-clustering runs.
func canonicalKeywords(members []signal.Signal, n int) []string {
	freq := map[string]int{}
	for _, m := range members {
		seen := map[string]bool{}
		for _, tok := range clusterTokenPattern.FindAllString(strings.ToLower(m.Text()), -1) {
			if len(tok) <= 3 || clusterStopwords[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			freq[tok]++
		}
	}

	type termCount struct {
		term  string
		count int
	}
	ranked := make([]termCount, 0, len(freq))
	for term, count := range freq {
		ranked = append(ranked, termCount{term, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].term < ranked[j].term
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.term
	}
	sort.Strings(out)
	return out
}

// clusterID derives a stable id from the cluster's canonical keyword set,
// not member signal ids, so re-clustering runs that bring in new or
// overlapping signals for the same underlying trend produce a comparable id
// (§4.7) and the trend stays traceable across opportunity history (§3).
func clusterID(members []signal.Signal) string {
	h := sha1.New()
	for _, k := range canonicalKeywords(members, 12) {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
