// Package signal defines the value objects that flow through the Luciq
// intelligence pipeline: Signal, the per-stage enrichment records attached to
// it, and the engine outputs (clusters, opportunities) derived from them.
//
// All types here are immutable once constructed, per the data model: a
// Signal is never mutated after creation, enrichment records are attached in
// parallel keyed by SignalID, and Opportunities are regenerated (not
// mutated) on every fusion run.
package signal

import "time"

// Platform enumerates the eight supported discussion sources.
type Platform string

const (
	PlatformReddit        Platform = "reddit"
	PlatformHackerNews    Platform = "hackernews"
	PlatformProductHunt   Platform = "producthunt"
	PlatformGitHub        Platform = "github"
	PlatformStackOverflow Platform = "stackoverflow"
	PlatformTwitter       Platform = "twitter"
	PlatformDevTo         Platform = "devto"
	PlatformIndieHackers  Platform = "indiehackers"
)

// AllPlatforms lists every platform the core recognizes, in a fixed order
// used wherever a deterministic iteration is required (e.g. tie-breaking).
var AllPlatforms = []Platform{
	PlatformStackOverflow,
	PlatformGitHub,
	PlatformHackerNews,
	PlatformReddit,
	PlatformProductHunt,
	PlatformTwitter,
	PlatformDevTo,
	PlatformIndieHackers,
}

// Valid reports whether p is one of the eight supported platforms.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Engagement captures whatever engagement metrics a platform exposes. Any
// field may be absent (nil), e.g. a scraped page with no comment count.
type Engagement struct {
	Upvotes  *int `json:"upvotes,omitempty"`
	Comments *int `json:"comments,omitempty"`
	Views    *int `json:"views,omitempty"`
}

// HasData reports whether any engagement dimension was observed.
func (e Engagement) HasData() bool {
	return e.Upvotes != nil || e.Comments != nil || e.Views != nil
}

// Signal is one retrieved item, normalized across platforms.
type Signal struct {
	ID          string     `json:"id"`
	Platform    Platform   `json:"platform"`
	AuthorRef   string     `json:"author_ref"`
	CreatedAt   time.Time  `json:"created_at"`
	IngestedAt  time.Time  `json:"ingested_at"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Engagement  Engagement `json:"engagement"`
	URL         string     `json:"url,omitempty"`
}

// ClockSkewTolerance is the maximum amount IngestedAt may precede CreatedAt
// before the invariant is considered violated (clocks drift between
// producers).
const ClockSkewTolerance = time.Hour

// Text returns the concatenation of title and body used by every text-facing
// engine (C2 relevance, C4 semantics, C5 lexical detection).
func (s Signal) Text() string {
	if s.Title == "" {
		return s.Body
	}
	if s.Body == "" {
		return s.Title
	}
	return s.Title + "\n" + s.Body
}

// Validate enforces the structural invariants from §3: a known platform, a
// non-empty title or body, and ingestion not implausibly before creation.
func (s Signal) Validate() error {
	if !s.Platform.Valid() {
		return ErrInvalidPlatform
	}
	if s.Title == "" && s.Body == "" {
		return ErrEmptySignal
	}
	if s.IngestedAt.Before(s.CreatedAt.Add(-ClockSkewTolerance)) {
		return ErrClockSkew
	}
	return nil
}

// Key returns the deduplication key for a Signal: (platform, id).
func (s Signal) Key() string {
	return string(s.Platform) + ":" + s.ID
}
