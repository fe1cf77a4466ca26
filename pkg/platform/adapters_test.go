package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"luciq/pkg/signal"
)

func TestNewClientKnownPlatforms(t *testing.T) {
	for _, p := range signal.AllPlatforms {
		c, err := NewClient(p, AdapterConfig{})
		if err != nil {
			t.Errorf("NewClient(%s) = %v, want no error", p, err)
			continue
		}
		if c.Platform() != p {
			t.Errorf("NewClient(%s).Platform() = %s", p, c.Platform())
		}
	}
}

func TestNewClientUnknownPlatform(t *testing.T) {
	if _, err := NewClient(signal.Platform("bluesky"), AdapterConfig{}); err == nil {
		t.Error("NewClient() with unrecognized platform returned no error")
	}
}

func TestLastNonEmptyPathSegment(t *testing.T) {
	cases := map[string]string{
		"https://example.com/a/b/c": "c",
		"https://example.com/a/b/":  "b",
		"https://example.com/":      "",
		"":                          "",
		"::not a url::":             "",
	}
	for in, want := range cases {
		if got := lastNonEmptyPathSegment(in); got != want {
			t.Errorf("lastNonEmptyPathSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenericAdapterFetchRecentFromListingPage(t *testing.T) {
	html := `<html><body>
		<div class="crayons-story"><h2 class="crayons-story__title"><a href="/p/one">First post about pricing</a></h2></div>
		<div class="crayons-story"><h2 class="crayons-story__title"><a href="/p/two">Second post about onboarding</a></h2></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer srv.Close()

	client := NewDevToClient(AdapterConfig{BaseURLOverride: srv.URL})

	ch, err := client.FetchRecent(context.Background(), QuerySpec{Limit: 10}, Cursor{})
	if err != nil {
		t.Fatalf("FetchRecent() = %v", err)
	}

	var got []signal.Signal
	for r := range ch {
		if r.Partial != nil {
			t.Fatalf("unexpected partial fetch: %v", r.Partial)
		}
		if r.Signal != nil {
			got = append(got, *r.Signal)
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d signals, want 2", len(got))
	}
	if got[0].Title != "First post about pricing" {
		t.Errorf("first title = %q", got[0].Title)
	}
	if got[0].Platform != signal.PlatformDevTo {
		t.Errorf("platform = %s, want dev_to", got[0].Platform)
	}
}

func TestGenericAdapterFetchRecentRespectsLimit(t *testing.T) {
	html := `<html><body>
		<div class="crayons-story"><h2 class="crayons-story__title"><a href="/p/one">One</a></h2></div>
		<div class="crayons-story"><h2 class="crayons-story__title"><a href="/p/two">Two</a></h2></div>
		<div class="crayons-story"><h2 class="crayons-story__title"><a href="/p/three">Three</a></h2></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	defer srv.Close()

	client := NewDevToClient(AdapterConfig{BaseURLOverride: srv.URL})
	ch, err := client.FetchRecent(context.Background(), QuerySpec{Limit: 2}, Cursor{})
	if err != nil {
		t.Fatalf("FetchRecent() = %v", err)
	}
	var got int
	for r := range ch {
		if r.Signal != nil {
			got++
		}
	}
	if got != 2 {
		t.Errorf("got %d signals, want 2 (limit)", got)
	}
}

func TestGenericAdapterFetchRecentAuthFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewDevToClient(AdapterConfig{BaseURLOverride: srv.URL})
	ch, err := client.FetchRecent(context.Background(), QuerySpec{Limit: 10}, Cursor{})
	if err != nil {
		t.Fatalf("FetchRecent() = %v", err)
	}

	var sawPartial bool
	for r := range ch {
		if r.Partial != nil {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Error("FetchRecent() against a 403 endpoint never reported a partial fetch")
	}
}

func TestGenericAdapterFetchByIDReportsNotFound(t *testing.T) {
	client := NewDevToClient(AdapterConfig{})
	_, ok, err := client.FetchByID(context.Background(), "anything")
	if err != nil {
		t.Fatalf("FetchByID() = %v", err)
	}
	if ok {
		t.Error("FetchByID() on the scraping fallback reported ok = true")
	}
}

func TestAnonymizedAuthorRefStable(t *testing.T) {
	a := anonymizedAuthorRef(signal.PlatformReddit, "https://reddit.com/x", 0)
	b := anonymizedAuthorRef(signal.PlatformReddit, "https://reddit.com/x", 0)
	if a != b {
		t.Error("anonymizedAuthorRef() not stable for identical inputs")
	}
	c := anonymizedAuthorRef(signal.PlatformReddit, "https://reddit.com/y", 0)
	if a == c {
		t.Error("anonymizedAuthorRef() collided for distinct urls")
	}
}

func TestHTTPScraperRetriesOnServerError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	scraper := newHTTPScraper(AdapterConfig{}, scrapeSpec{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	doc, partial := scraper.fetchPage(ctx, srv.URL)
	if partial != nil {
		t.Fatalf("fetchPage() = %v, want success after retry", partial)
	}
	if doc == nil {
		t.Fatal("fetchPage() returned a nil document")
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want >= 2 (retry on 500)", attempts)
	}
}
