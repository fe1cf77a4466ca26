package platform

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"luciq/pkg/errs"
	"luciq/pkg/signal"
)

// genericAdapter implements Client for one platform. It always uses the
// public-endpoint scraper; cfg.Credentials is not read, and there is no
// authenticated API path. Per §4.1 the core never prescribes that HTTP
// detail — the scraper is a correct, if engagement-degraded, implementation.
type genericAdapter struct {
	platform signal.Platform
	scraper  *httpScraper
	baseURL  string
}

func newAdapter(p signal.Platform, baseURL string, cfg AdapterConfig, spec scrapeSpec) *genericAdapter {
	if cfg.BaseURLOverride != "" {
		baseURL = cfg.BaseURLOverride
	}
	return &genericAdapter{platform: p, scraper: newHTTPScraper(cfg, spec), baseURL: baseURL}
}

func (a *genericAdapter) Platform() signal.Platform { return a.platform }

func (a *genericAdapter) FetchRecent(ctx context.Context, query QuerySpec, since Cursor) (<-chan Result, error) {
	out := make(chan Result, 32)

	go func() {
		defer close(out)

		listURL := a.scraper.spec.listingURL(query)
		doc, partial := a.scraper.fetchPage(ctx, listURL)
		if partial != nil {
			select {
			case out <- Result{Partial: partial}:
			case <-ctx.Done():
			}
			return
		}

		limit := query.Limit
		if limit <= 0 {
			limit = 50
		}

		emitted := 0
		doc.Find(a.scraper.spec.itemSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
			if emitted >= limit {
				return false
			}
			sig, ok := a.extractSignal(item, i)
			if !ok {
				return true
			}
			if since.Since != 0 && sig.CreatedAt.Unix() < since.Since {
				return true
			}
			select {
			case out <- Result{Signal: &sig}:
				emitted++
			case <-ctx.Done():
				return false
			}
			return true
		})
	}()

	return out, nil
}

func (a *genericAdapter) FetchByID(ctx context.Context, id string) (signal.Signal, bool, error) {
	// The scraping fallback has no per-id endpoint distinct from the
	// listing page; a deployment with API credentials would implement a
	// direct lookup here. Report "not found" rather than fabricating data.
	return signal.Signal{}, false, nil
}

// extractSignal converts one goquery selection (a listing row/card) into a
// Signal, degrading gracefully (missing fields simply stay zero) since the
// public HTML fallback carries reduced engagement fidelity (§6).
func (a *genericAdapter) extractSignal(item *goquery.Selection, index int) (signal.Signal, bool) {
	spec := a.scraper.spec

	title := strings.TrimSpace(item.Find(spec.titleSelector).First().Text())
	body := ""
	if spec.bodySelector != "" {
		body = strings.TrimSpace(item.Find(spec.bodySelector).First().Text())
	}
	if title == "" && body == "" {
		return signal.Signal{}, false
	}

	itemURL := ""
	if spec.urlSelector != "" {
		href, exists := item.Find(spec.urlSelector).First().Attr(spec.urlAttr)
		if exists {
			itemURL = a.resolveURL(href)
		}
	}

	id := spec.idFromURL(itemURL)
	if id == "" {
		id = syntheticID(a.platform, title, index)
	}

	now := time.Now().UTC()
	return signal.Signal{
		ID:         id,
		Platform:   a.platform,
		AuthorRef:  anonymizedAuthorRef(a.platform, itemURL, index),
		CreatedAt:  now, // HTML listings rarely expose precise timestamps; the
		IngestedAt: now, // ingestion time is used as the best-effort proxy.
		Title:      title,
		Body:       body,
		URL:        itemURL,
	}, true
}

func (a *genericAdapter) resolveURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(a.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// anonymizedAuthorRef derives a stable opaque author reference without ever
// carrying a real identity, per §3.
func anonymizedAuthorRef(p signal.Platform, itemURL string, index int) string {
	h := sha1.Sum([]byte(string(p) + "|" + itemURL + "|" + strconv.Itoa(index)))
	return hex.EncodeToString(h[:8])
}

func syntheticID(p signal.Platform, title string, index int) string {
	h := sha1.Sum([]byte(string(p) + "|" + title + "|" + strconv.Itoa(index)))
	return hex.EncodeToString(h[:10])
}

// --- Per-platform construction -------------------------------------------

func termsQuery(terms []string) string { return strings.Join(terms, "+") }

func NewRedditClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformReddit, "https://old.reddit.com", cfg, scrapeSpec{
		listingURL: func(q QuerySpec) string {
			if len(q.Communities) > 0 {
				return fmt.Sprintf("https://old.reddit.com/r/%s/new/", q.Communities[0])
			}
			return fmt.Sprintf("https://old.reddit.com/search?q=%s&sort=new", termsQuery(q.Terms))
		},
		itemSelector:  "div.thing",
		titleSelector: "a.title",
		bodySelector:  "div.usertext-body",
		urlSelector:   "a.title",
		urlAttr:       "href",
		idFromURL: func(u string) string {
			return lastNonEmptyPathSegment(u)
		},
	})
}

func NewHackerNewsClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformHackerNews, "https://news.ycombinator.com", cfg, scrapeSpec{
		listingURL: func(q QuerySpec) string { return "https://news.ycombinator.com/newest" },
		itemSelector:  "tr.athing",
		titleSelector: "span.titleline > a",
		urlSelector:   "span.titleline > a",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewProductHuntClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformProductHunt, "https://www.producthunt.com", cfg, scrapeSpec{
		listingURL:    func(q QuerySpec) string { return "https://www.producthunt.com/" },
		itemSelector:  "[data-test^=post-item]",
		titleSelector: "[data-test=post-name]",
		urlSelector:   "a",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewGitHubClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformGitHub, "https://github.com", cfg, scrapeSpec{
		listingURL: func(q QuerySpec) string {
			return fmt.Sprintf("https://github.com/search?q=%s&type=issues&s=created&o=desc", termsQuery(q.Terms))
		},
		itemSelector:  "div.issue-row, li.Box-row",
		titleSelector: "a.Link--primary, a[data-hovercard-type]",
		urlSelector:   "a.Link--primary, a[data-hovercard-type]",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewStackOverflowClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformStackOverflow, "https://stackoverflow.com", cfg, scrapeSpec{
		listingURL: func(q QuerySpec) string {
			return fmt.Sprintf("https://stackoverflow.com/search?q=%s&tab=newest", termsQuery(q.Terms))
		},
		itemSelector:  "div.s-post-summary",
		titleSelector: "h3 a.s-link",
		bodySelector:  "div.s-post-summary--content-excerpt",
		urlSelector:   "h3 a.s-link",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewTwitterClient(cfg AdapterConfig) Client {
	// Twitter/X requires authentication for essentially all read paths; the
	// public-endpoint fallback degrades to an empty stream with a
	// rate_limited/auth_failed PartialFetch, matching §4.1's contract that a
	// client without credentials must still not raise.
	return newAdapter(signal.PlatformTwitter, "https://x.com", cfg, scrapeSpec{
		listingURL:    func(q QuerySpec) string { return "https://x.com/search?q=" + termsQuery(q.Terms) },
		itemSelector:  "article",
		titleSelector: "div[data-testid=tweetText]",
		urlSelector:   "a",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewDevToClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformDevTo, "https://dev.to", cfg, scrapeSpec{
		listingURL: func(q QuerySpec) string {
			if len(q.Terms) > 0 {
				return "https://dev.to/search?q=" + termsQuery(q.Terms)
			}
			return "https://dev.to/"
		},
		itemSelector:  "div.crayons-story",
		titleSelector: "h2.crayons-story__title a",
		urlSelector:   "h2.crayons-story__title a",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func NewIndieHackersClient(cfg AdapterConfig) Client {
	return newAdapter(signal.PlatformIndieHackers, "https://www.indiehackers.com", cfg, scrapeSpec{
		listingURL:    func(q QuerySpec) string { return "https://www.indiehackers.com/posts" },
		itemSelector:  "div.feed-item",
		titleSelector: "a.feed-item__title-link",
		urlSelector:   "a.feed-item__title-link",
		urlAttr:       "href",
		idFromURL:     func(u string) string { return lastNonEmptyPathSegment(u) },
	})
}

func lastNonEmptyPathSegment(u string) string {
	if u == "" {
		return ""
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// NewClient constructs the adapter for a named platform, or an error if
// unrecognized.
func NewClient(p signal.Platform, cfg AdapterConfig) (Client, error) {
	switch p {
	case signal.PlatformReddit:
		return NewRedditClient(cfg), nil
	case signal.PlatformHackerNews:
		return NewHackerNewsClient(cfg), nil
	case signal.PlatformProductHunt:
		return NewProductHuntClient(cfg), nil
	case signal.PlatformGitHub:
		return NewGitHubClient(cfg), nil
	case signal.PlatformStackOverflow:
		return NewStackOverflowClient(cfg), nil
	case signal.PlatformTwitter:
		return NewTwitterClient(cfg), nil
	case signal.PlatformDevTo:
		return NewDevToClient(cfg), nil
	case signal.PlatformIndieHackers:
		return NewIndieHackersClient(cfg), nil
	default:
		return nil, &errs.UnusableSource{Platform: string(p), Reason: "unrecognized platform"}
	}
}
