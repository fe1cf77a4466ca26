package cluster

import (
	"context"
	"testing"
	"time"

	"luciq/pkg/semantic"
	"luciq/pkg/signal"
)

func mkSignal(platform signal.Platform, id, text string, at time.Time) signal.Signal {
	return signal.Signal{Platform: platform, ID: id, Title: text, CreatedAt: at, IngestedAt: at}
}

func TestClusterEmptyInput(t *testing.T) {
	e := New(DefaultConfig(), nil)
	got, err := e.Cluster(context.Background(), nil)
	if err != nil {
		t.Fatalf("Cluster(nil) = %v", err)
	}
	if got != nil {
		t.Errorf("Cluster(nil) = %v, want nil", got)
	}
}

func TestClusterGroupsIdenticalTextAcrossPlatforms(t *testing.T) {
	e := New(DefaultConfig(), semantic.NewFallbackProvider())
	now := time.Now()
	text := "we need a better pricing tool for saas startups"
	sigs := []signal.Signal{
		mkSignal(signal.PlatformReddit, "r1", text, now),
		mkSignal(signal.PlatformHackerNews, "h1", text, now.Add(time.Hour)),
		mkSignal(signal.PlatformGitHub, "g1", text, now.Add(2*time.Hour)),
	}

	clusters, err := e.Cluster(context.Background(), sigs)
	if err != nil {
		t.Fatalf("Cluster() = %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("Cluster() produced %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if len(c.Members) != 3 {
		t.Errorf("cluster has %d members, want 3", len(c.Members))
	}
	if !c.Universal {
		t.Error("cluster spanning 3 platforms should be Universal")
	}
	if len(c.PlatformsCovered) != 3 {
		t.Errorf("PlatformsCovered = %v, want 3 platforms", c.PlatformsCovered)
	}
}

func TestClusterKeepsDissimilarTextsSeparate(t *testing.T) {
	e := New(DefaultConfig(), semantic.NewFallbackProvider())
	now := time.Now()
	sigs := []signal.Signal{
		mkSignal(signal.PlatformReddit, "r1", "we need a better pricing tool for saas startups", now),
		mkSignal(signal.PlatformGitHub, "g1", "completely unrelated gardening tips for tomatoes", now),
	}

	clusters, err := e.Cluster(context.Background(), sigs)
	if err != nil {
		t.Fatalf("Cluster() = %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("Cluster() produced %d clusters, want 2 (dissimilar texts)", len(clusters))
	}
	for _, c := range clusters {
		if c.Universal {
			t.Error("a singleton cluster should never be Universal")
		}
	}
}

func TestCapTokensTruncatesLongText(t *testing.T) {
	words := make([]string, 600)
	for i := range words {
		words[i] = "word"
	}
	text := ""
	for i, w := range words {
		if i > 0 {
			text += " "
		}
		text += w
	}
	got := capTokens(text, 512)
	gotWords := 1
	for _, r := range got {
		if r == ' ' {
			gotWords++
		}
	}
	if gotWords != 512 {
		t.Errorf("capTokens() kept %d words, want 512", gotWords)
	}
}

func TestMeanPairwiseSimilaritySingleton(t *testing.T) {
	if got := meanPairwiseSimilarity([][]float64{{1, 2, 3}}); got != 1.0 {
		t.Errorf("meanPairwiseSimilarity(singleton) = %v, want 1.0", got)
	}
}

func TestPlatformsCoveredDeduplicatesAndSorts(t *testing.T) {
	members := []signal.Signal{
		{Platform: signal.PlatformReddit},
		{Platform: signal.PlatformGitHub},
		{Platform: signal.PlatformReddit},
	}
	got := platformsCovered(members)
	if len(got) != 2 {
		t.Fatalf("platformsCovered() = %v, want 2 unique platforms", got)
	}
	if got[0] >= got[1] {
		t.Errorf("platformsCovered() not sorted: %v", got)
	}
}

func TestTightTemporalAlignmentSinglePlatform(t *testing.T) {
	e := New(DefaultConfig(), nil)
	members := []signal.Signal{{Platform: signal.PlatformReddit, CreatedAt: time.Now()}}
	if !e.tightTemporalAlignment(members, []signal.Platform{signal.PlatformReddit}) {
		t.Error("tightTemporalAlignment() with a single platform should be true")
	}
}

func TestTightTemporalAlignmentWithinWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlignmentWindow = 48 * time.Hour
	e := New(cfg, nil)
	now := time.Now()
	members := []signal.Signal{
		{Platform: signal.PlatformReddit, CreatedAt: now},
		{Platform: signal.PlatformGitHub, CreatedAt: now.Add(24 * time.Hour)},
	}
	if !e.tightTemporalAlignment(members, []signal.Platform{signal.PlatformReddit, signal.PlatformGitHub}) {
		t.Error("tightTemporalAlignment() within the window reported false")
	}
}

func TestTightTemporalAlignmentOutsideWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlignmentWindow = 1 * time.Hour
	e := New(cfg, nil)
	now := time.Now()
	members := []signal.Signal{
		{Platform: signal.PlatformReddit, CreatedAt: now},
		{Platform: signal.PlatformGitHub, CreatedAt: now.Add(30 * 24 * time.Hour)},
	}
	if e.tightTemporalAlignment(members, []signal.Platform{signal.PlatformReddit, signal.PlatformGitHub}) {
		t.Error("tightTemporalAlignment() a month apart with a 1h window reported true")
	}
}

func TestClusterIDStableUnderReordering(t *testing.T) {
	now := time.Now()
	text := "pricing tool for saas startups"
	a := []signal.Signal{mkSignal(signal.PlatformReddit, "1", text, now), mkSignal(signal.PlatformGitHub, "2", text, now)}
	b := []signal.Signal{mkSignal(signal.PlatformGitHub, "2", text, now), mkSignal(signal.PlatformReddit, "1", text, now)}
	if clusterID(a) != clusterID(b) {
		t.Error("clusterID() not stable under member reordering")
	}
}

func TestClusterIDStableAcrossOverlappingMemberSets(t *testing.T) {
	now := time.Now()
	text := "pricing tool is too expensive for saas startups"
	run1 := []signal.Signal{
		mkSignal(signal.PlatformReddit, "1", text, now),
		mkSignal(signal.PlatformGitHub, "2", text, now),
		mkSignal(signal.PlatformHackerNews, "3", text, now),
	}
	// A later re-clustering run drops "1" and picks up a new signal "4" on
	// the same topic: clusterID should stay comparable since the dominant
	// keyword set is unchanged, not keyed to the literal member ids.
	run2 := []signal.Signal{
		mkSignal(signal.PlatformGitHub, "2", text, now),
		mkSignal(signal.PlatformHackerNews, "3", text, now),
		mkSignal(signal.PlatformDevTo, "4", text, now),
	}
	if clusterID(run1) != clusterID(run2) {
		t.Error("clusterID() changed across overlapping member sets for the same topic")
	}
}

func TestCanonicalKeywordsDropsShortWordsAndStopwords(t *testing.T) {
	now := time.Now()
	members := []signal.Signal{mkSignal(signal.PlatformReddit, "1", "the pricing for our saas tool is a big pain", now)}
	got := canonicalKeywords(members, 12)
	for _, k := range got {
		if len(k) <= 3 {
			t.Errorf("canonicalKeywords() kept short word %q", k)
		}
		if clusterStopwords[k] {
			t.Errorf("canonicalKeywords() kept stopword %q", k)
		}
	}
}

func TestCanonicalKeywordsCapsAtN(t *testing.T) {
	now := time.Now()
	members := []signal.Signal{mkSignal(signal.PlatformReddit, "1", "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november", now)}
	got := canonicalKeywords(members, 5)
	if len(got) != 5 {
		t.Errorf("canonicalKeywords(n=5) returned %d terms, want 5", len(got))
	}
}

func TestClusterIDDiffersForUnrelatedTopics(t *testing.T) {
	now := time.Now()
	a := []signal.Signal{mkSignal(signal.PlatformReddit, "1", "pricing tool for saas startups", now)}
	b := []signal.Signal{mkSignal(signal.PlatformReddit, "2", "gardening tips for growing tomatoes", now)}
	if clusterID(a) == clusterID(b) {
		t.Error("clusterID() collided for unrelated topics")
	}
}

func TestNewDefaultsClampInvalidConfig(t *testing.T) {
	e := New(Config{}, nil)
	if e.cfg.Cut != 0.30 || e.cfg.UniversalMinPlatforms != signal.UniversalMinPlatforms || e.cfg.AlignmentWindow != 14*24*time.Hour || e.cfg.MaxTokensPerSignal != 512 {
		t.Errorf("New(Config{}) = %+v, want defaults", e.cfg)
	}
	if e.provider == nil || e.provider.Neural() {
		t.Error("New(nil provider) should default to the non-neural fallback")
	}
}
