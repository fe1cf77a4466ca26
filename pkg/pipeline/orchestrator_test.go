package pipeline

import (
	"context"
	"testing"
	"time"

	"luciq/pkg/config"
	"luciq/pkg/platform"
	"luciq/pkg/signal"
	"luciq/pkg/store"
)

func TestEngagementValueNoData(t *testing.T) {
	if got := engagementValue(signal.Signal{}); got != 0 {
		t.Errorf("engagementValue(no data) = %v, want 0", got)
	}
}

func TestEngagementValueWeighsCommentsDouble(t *testing.T) {
	upvotes := 5
	comments := 5
	got := engagementValue(signal.Signal{Engagement: signal.Engagement{Upvotes: &upvotes, Comments: &comments}})
	want := float64(5) + float64(5)*2
	if got != want {
		t.Errorf("engagementValue() = %v, want %v", got, want)
	}
}

func TestRejectionReasonZeroValueIsInvalid(t *testing.T) {
	if got := rejectionReason(signal.QualityScore{}); got != "invalid" {
		t.Errorf("rejectionReason(zero value) = %q, want %q", got, "invalid")
	}
}

func TestRejectionReasonNamesWeakestDimension(t *testing.T) {
	score := signal.QualityScore{
		Authenticity:       0.9,
		Freshness:          0.9,
		Relevance:          0.1,
		SourceCredibility:  0.9,
		ContentQuality:     0.9,
		EngagementValidity: 0.9,
	}
	if got := rejectionReason(score); got != "relevance" {
		t.Errorf("rejectionReason() = %q, want %q", got, "relevance")
	}
}

func TestVerifyUpdatesCredibilityAndPersistsToStore(t *testing.T) {
	st := store.NewMemoryStore()
	orch := New(config.Config{}, map[signal.Platform]platform.Client{}, nil, st)
	ctx := context.Background()

	before, ok, err := st.GetPlatformCredibility(ctx, signal.PlatformReddit)
	if err != nil {
		t.Fatalf("GetPlatformCredibility() before Verify = %v", err)
	}
	if ok {
		t.Fatalf("GetPlatformCredibility() before any Verify call returned a row, want none")
	}

	v := signal.SignalVerification{
		SignalID:      "s1",
		Platform:      signal.PlatformReddit,
		AuthorRef:     "author-1",
		PredictedPain: true,
		VerifiedPain:  true,
		VerifiedAt:    time.Now(),
	}
	if err := orch.Verify(ctx, v); err != nil {
		t.Fatalf("Verify() = %v", err)
	}

	after, ok, err := st.GetPlatformCredibility(ctx, signal.PlatformReddit)
	if err != nil || !ok {
		t.Fatalf("GetPlatformCredibility() after Verify = (ok=%v, err=%v), want a persisted row", ok, err)
	}
	if after == before {
		t.Error("Verify() did not change the persisted platform credibility row")
	}

	src, ok, err := st.GetSourceReliability(ctx, signal.PlatformReddit, "author-1")
	if err != nil || !ok {
		t.Fatalf("GetSourceReliability() after Verify = (ok=%v, err=%v), want a persisted row", ok, err)
	}
	if src.SignalsSeen != 1 {
		t.Errorf("SignalsSeen = %d, want 1", src.SignalsSeen)
	}
}
