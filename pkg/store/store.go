// Package store implements the Intelligence Store (C10): a narrow
// persistence contract (§4.10) with an in-memory implementation for tests
// and a Postgres-backed implementation for production use, grounded on the
// teacher's pgx/pgxpool store (pkg/core/store/db.go, analysis_repo.go).
package store

import (
	"context"
	"time"

	"luciq/pkg/conversation"
	"luciq/pkg/signal"
)

// Store is the C10 capability every component depends on for persistence.
type Store interface {
	GetPlatformCredibility(ctx context.Context, platform signal.Platform) (signal.PlatformCredibility, bool, error)
	PutPlatformCredibility(ctx context.Context, c signal.PlatformCredibility) error

	GetSourceReliability(ctx context.Context, platform signal.Platform, authorRef string) (signal.SourceReliability, bool, error)
	PutSourceReliability(ctx context.Context, r signal.SourceReliability) error

	AppendVerification(ctx context.Context, v signal.SignalVerification) error

	SaveOpportunities(ctx context.Context, batch []signal.Opportunity) error
	RecentOpportunities(ctx context.Context, limit int, since time.Time) ([]signal.Opportunity, error)

	// SaveSignal is an optional hot cache of a signal plus its enrichment
	// records (§4.10); implementations may no-op this.
	SaveSignal(ctx context.Context, s signal.Signal, q signal.QualityScore, sem signal.SemanticScore, pain signal.PainPointAssessment) error
	HasSignal(ctx context.Context, key string) (bool, error)

	// RecentMatching serves C9's "recent signals matching query-time
	// keywords" step (§4.9) from the same cache SaveSignal populates.
	RecentMatching(ctx context.Context, keywords []string) ([]signal.Signal, error)

	GetTurns(ctx context.Context, conversationID string) ([]conversation.Turn, error)
	AppendTurn(ctx context.Context, conversationID string, turn conversation.Turn, maxRetained int) error
}

var _ conversation.Memory = Store(nil)
var _ conversation.SignalSource = Store(nil)
