package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"luciq/pkg/conversation"
	"luciq/pkg/signal"
)

// PostgresStore persists the Intelligence Store contract in Postgres,
// grounded on the teacher's sync.Once pool init (pkg/core/store/db.go) and
// JSONB upsert pattern (pkg/core/store/analysis_repo.go).
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

var (
	poolOnce sync.Once
	poolErr  error
)

// Open parses dsn and establishes the connection pool exactly once per
// process, same as the teacher's InitDB/GetPool split.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	var pool *pgxpool.Pool
	poolOnce.Do(func() {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			poolErr = fmt.Errorf("store: parsing dsn: %w", err)
			return
		}
		pool, poolErr = pgxpool.NewWithConfig(ctx, cfg)
	})
	if poolErr != nil {
		return nil, poolErr
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables this store requires if they don't already
// exist. Schema is intentionally minimal JSONB-backed storage, following
// the teacher's own "single JSONB blob is flexible for now" approach.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS platform_credibility (
			platform TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS source_reliability (
			platform TEXT NOT NULL,
			author_ref TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (platform, author_ref)
		)`,
		`CREATE TABLE IF NOT EXISTS signal_verification (
			id BIGSERIAL PRIMARY KEY,
			signal_id TEXT NOT NULL,
			data JSONB NOT NULL,
			verified_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS opportunity_history (
			opportunity_id TEXT PRIMARY KEY,
			cluster_ref TEXT NOT NULL,
			data JSONB NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signal_cache (
			signal_key TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turns_conv ON conversation_turns (conversation_id, at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetPlatformCredibility(ctx context.Context, platform signal.Platform) (signal.PlatformCredibility, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM platform_credibility WHERE platform = $1`, string(platform)).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return signal.PlatformCredibility{}, false, nil
		}
		return signal.PlatformCredibility{}, false, fmt.Errorf("store: get platform credibility: %w", err)
	}
	var out signal.PlatformCredibility
	if err := json.Unmarshal(raw, &out); err != nil {
		return signal.PlatformCredibility{}, false, fmt.Errorf("store: unmarshal platform credibility: %w", err)
	}
	return out, true, nil
}

func (s *PostgresStore) PutPlatformCredibility(ctx context.Context, c signal.PlatformCredibility) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("store: marshal platform credibility: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO platform_credibility (platform, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(c.Platform), data, time.Now())
	if err != nil {
		return fmt.Errorf("store: put platform credibility: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSourceReliability(ctx context.Context, platform signal.Platform, authorRef string) (signal.SourceReliability, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM source_reliability WHERE platform = $1 AND author_ref = $2`, string(platform), authorRef).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return signal.SourceReliability{}, false, nil
		}
		return signal.SourceReliability{}, false, fmt.Errorf("store: get source reliability: %w", err)
	}
	var out signal.SourceReliability
	if err := json.Unmarshal(raw, &out); err != nil {
		return signal.SourceReliability{}, false, fmt.Errorf("store: unmarshal source reliability: %w", err)
	}
	return out, true, nil
}

func (s *PostgresStore) PutSourceReliability(ctx context.Context, r signal.SourceReliability) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: marshal source reliability: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO source_reliability (platform, author_ref, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (platform, author_ref) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(r.Platform), r.AuthorRef, data, time.Now())
	if err != nil {
		return fmt.Errorf("store: put source reliability: %w", err)
	}
	return nil
}

// AppendVerification is append-only, per §4.10's concurrency contract.
func (s *PostgresStore) AppendVerification(ctx context.Context, v signal.SignalVerification) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal verification: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO signal_verification (signal_id, data, verified_at) VALUES ($1, $2, $3)`, v.SignalID, data, v.VerifiedAt)
	if err != nil {
		return fmt.Errorf("store: append verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveOpportunities(ctx context.Context, batch []signal.Opportunity) error {
	for _, o := range batch {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("store: marshal opportunity: %w", err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO opportunity_history (opportunity_id, cluster_ref, data, generated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (opportunity_id) DO UPDATE SET data = EXCLUDED.data, generated_at = EXCLUDED.generated_at
		`, o.OpportunityID, o.ClusterRef, data, o.GeneratedAt)
		if err != nil {
			return fmt.Errorf("store: save opportunity: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) RecentOpportunities(ctx context.Context, limit int, since time.Time) ([]signal.Opportunity, error) {
	if limit <= 0 {
		limit = signal.DefaultTopK
	}
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM opportunity_history WHERE generated_at >= $1 ORDER BY generated_at DESC LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent opportunities: %w", err)
	}
	defer rows.Close()

	var out []signal.Opportunity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan opportunity: %w", err)
		}
		var o signal.Opportunity
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("store: unmarshal opportunity: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type signalCacheRecord struct {
	Signal   signal.Signal               `json:"signal"`
	Quality  signal.QualityScore         `json:"quality"`
	Semantic signal.SemanticScore        `json:"semantic"`
	Pain     signal.PainPointAssessment  `json:"pain"`
}

func (s *PostgresStore) SaveSignal(ctx context.Context, sig signal.Signal, q signal.QualityScore, sem signal.SemanticScore, pain signal.PainPointAssessment) error {
	data, err := json.Marshal(signalCacheRecord{Signal: sig, Quality: q, Semantic: sem, Pain: pain})
	if err != nil {
		return fmt.Errorf("store: marshal signal cache: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO signal_cache (signal_key, data) VALUES ($1, $2)
		ON CONFLICT (signal_key) DO UPDATE SET data = EXCLUDED.data
	`, sig.Key(), data)
	if err != nil {
		return fmt.Errorf("store: save signal cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasSignal(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM signal_cache WHERE signal_key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: has signal: %w", err)
	}
	return exists, nil
}

// RecentMatching scans the signal cache for rows whose cached title/body
// contains one of keywords. The cache has no full-text index, so matching
// happens in Go after a bounded fetch rather than in SQL.
func (s *PostgresStore) RecentMatching(ctx context.Context, keywords []string) ([]signal.Signal, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM signal_cache LIMIT 5000`)
	if err != nil {
		return nil, fmt.Errorf("store: recent matching: %w", err)
	}
	defer rows.Close()

	var out []signal.Signal
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan signal cache: %w", err)
		}
		var rec signalCacheRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("store: unmarshal signal cache: %w", err)
		}
		text := strings.ToLower(rec.Signal.Text())
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				out = append(out, rec.Signal)
				break
			}
		}
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTurns(ctx context.Context, conversationID string) ([]conversation.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, text, at FROM conversation_turns WHERE conversation_id = $1 ORDER BY at ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}
	defer rows.Close()

	var out []conversation.Turn
	for rows.Next() {
		var t conversation.Turn
		if err := rows.Scan(&t.Role, &t.Text, &t.At); err != nil {
			return nil, fmt.Errorf("store: scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AppendTurn inserts the new turn, then trims the conversation to
// maxRetained by deleting the oldest excess rows (§4.10's retention cap).
func (s *PostgresStore) AppendTurn(ctx context.Context, conversationID string, turn conversation.Turn, maxRetained int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversation_turns (conversation_id, role, text, at) VALUES ($1, $2, $3, $4)
	`, conversationID, turn.Role, turn.Text, turn.At)
	if err != nil {
		return fmt.Errorf("store: append turn: %w", err)
	}

	if maxRetained <= 0 {
		return nil
	}
	_, err = s.pool.Exec(ctx, `
		DELETE FROM conversation_turns
		WHERE conversation_id = $1 AND id NOT IN (
			SELECT id FROM conversation_turns WHERE conversation_id = $1 ORDER BY at DESC LIMIT $2
		)
	`, conversationID, maxRetained)
	if err != nil {
		return fmt.Errorf("store: trim conversation: %w", err)
	}
	return nil
}
