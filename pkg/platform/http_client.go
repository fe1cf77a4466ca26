package platform

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"luciq/pkg/errs"
)

// scrapeSpec is the fixed per-platform knowledge of how to turn a public
// listing page into Signals via goquery selectors. Adapters that have no API
// credentials fall back to this (§4.1 "graceful fallback to unauthenticated
// public endpoints").
type scrapeSpec struct {
	listingURL    func(q QuerySpec) string
	itemSelector  string
	titleSelector string
	bodySelector  string
	urlSelector   string
	urlAttr       string
	idFromURL     func(url string) string
}

// httpScraper is the shared fetch engine used by every platform adapter's
// credential-free fallback path. It owns retry/backoff and resource
// cleanup; platform-specific knowledge lives in scrapeSpec.
type httpScraper struct {
	cfg    AdapterConfig
	client *http.Client
	spec   scrapeSpec
}

func newHTTPScraper(cfg AdapterConfig, spec scrapeSpec) *httpScraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "luciq-signal-ingestor/1.0 (+contact unset)"
	}
	return &httpScraper{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		spec:   spec,
	}
}

// maxAttempts bounds the exponential-jitter backoff loop before a fetch is
// reported as a terminal PartialFetch rather than retried further (§4.1).
const maxAttempts = 4

// fetchPage performs one listing fetch with exponential backoff and jitter
// on transient failures (HTTP 429/5xx, timeouts, transport errors).
func (s *httpScraper) fetchPage(ctx context.Context, url string) (*goquery.Document, *errs.PartialFetch) {
	var lastErr error
	lastKind := errs.FetchUpstreamUnavailable
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				return nil, &errs.PartialFetch{Kind: errs.FetchTimeout, Err: ctx.Err()}
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &errs.PartialFetch{Kind: errs.FetchUpstreamUnavailable, Err: err}
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			lastKind = errs.FetchUpstreamUnavailable
			if ctx.Err() != nil {
				return nil, &errs.PartialFetch{Kind: errs.FetchTimeout, Err: ctx.Err()}
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (status %d)", resp.StatusCode)
			lastKind = errs.FetchRateLimited
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, &errs.PartialFetch{Kind: errs.FetchAuthFailed, Err: fmt.Errorf("status %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream error (status %d)", resp.StatusCode)
			lastKind = errs.FetchUpstreamUnavailable
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &errs.PartialFetch{Kind: errs.FetchUpstreamUnavailable, Err: fmt.Errorf("status %d", resp.StatusCode)}
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &errs.PartialFetch{Kind: errs.FetchUpstreamUnavailable, Err: err}
		}
		return doc, nil
	}
	return nil, &errs.PartialFetch{Kind: lastKind, Err: lastErr}
}
