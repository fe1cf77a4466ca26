// Package platform defines the Platform Client capability (C1): a
// source-agnostic contract for pulling recent posts and comments from one
// external discussion source. The core never prescribes HTTP details —
// concrete adapters (http_client.go, adapters.go) implement the contract for
// the eight supported platforms using goquery HTML scraping as the
// credential-free fallback, grounded on the teacher's use of goquery for
// EDGAR filing HTML (pkg/core/edgar/html_sanitizer.go).
package platform

import (
	"context"

	"luciq/pkg/errs"
	"luciq/pkg/signal"
)

// QuerySpec describes what a fetch_recent call should retrieve (§4.1).
type QuerySpec struct {
	Terms         []string // OR semantics
	Communities   []string // platform-specific channel/subreddit/tag ids
	MinEngagement *int
	Limit         int
}

// Credentials holds optional platform API credentials. A zero value means
// "no credentials configured" and adapters must fall back to public
// unauthenticated endpoints.
type Credentials struct {
	APIKey    string
	APISecret string
	Token     string
}

// AdapterConfig is the per-platform configuration struct (§6).
type AdapterConfig struct {
	Credentials        Credentials
	BaseURLOverride    string
	UserAgent          string
	RateLimitPerMinute int
}

// Client is the capability every platform adapter implements.
type Client interface {
	Platform() signal.Platform

	// FetchRecent yields signals matching query since the given cursor. The
	// returned channel is closed when iteration ends, whether by exhaustion,
	// cancellation, or a terminal PartialFetch. The adapter releases its
	// resources once ctx is done; a caller that stops ranging without
	// cancelling ctx leaves the adapter blocked on a send until then.
	FetchRecent(ctx context.Context, query QuerySpec, since Cursor) (<-chan Result, error)

	// FetchByID retrieves a single signal by platform-native id, or
	// ok=false if it does not exist (or is no longer available).
	FetchByID(ctx context.Context, id string) (sig signal.Signal, ok bool, err error)
}

// Cursor marks a point in time to fetch signals since.
type Cursor struct {
	Since int64 // unix seconds; zero means "no lower bound"
}

// Result is one element of a FetchRecent stream: either a Signal or the
// terminal PartialFetch/UnusableSource marker.
type Result struct {
	Signal  *signal.Signal
	Partial *errs.PartialFetch  // set on the final item of a degraded stream
	Fatal   *errs.UnusableSource // set instead of Partial on persistent misconfiguration
}
