package main

import (
	"strings"
	"testing"

	"luciq/pkg/signal"
)

func TestSplitTermsEmptyString(t *testing.T) {
	if got := splitTerms(""); got != nil {
		t.Errorf("splitTerms(\"\") = %v, want nil", got)
	}
}

func TestSplitTermsCommaSeparated(t *testing.T) {
	got := splitTerms("saas,pricing,churn")
	want := []string{"saas", "pricing", "churn"}
	if len(got) != len(want) {
		t.Fatalf("splitTerms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitTerms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitTermsSkipsEmptyFields(t *testing.T) {
	got := splitTerms("saas,,pricing,")
	want := []string{"saas", "pricing"}
	if len(got) != len(want) {
		t.Fatalf("splitTerms() = %v, want %v", got, want)
	}
}

func TestDescribeOpportunitiesEmpty(t *testing.T) {
	if got := describeOpportunities(nil); got != "No opportunities surfaced this run." {
		t.Errorf("describeOpportunities(nil) = %q", got)
	}
}

func TestDescribeOpportunitiesListsEachOne(t *testing.T) {
	opps := []signal.Opportunity{
		{Title: "Pricing pain", CompositeScore: 0.83, MarketTiming: signal.TimingNow},
		{Title: "Onboarding friction", CompositeScore: 0.61, MarketTiming: signal.TimingEarly},
	}
	got := describeOpportunities(opps)
	if !strings.Contains(got, "Pricing pain") || !strings.Contains(got, "Onboarding friction") {
		t.Errorf("describeOpportunities() = %q, want both titles present", got)
	}
	if !strings.Contains(got, "2 opportunities ranked") {
		t.Errorf("describeOpportunities() = %q, want a count header", got)
	}
}
