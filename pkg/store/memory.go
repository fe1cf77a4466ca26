package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"luciq/pkg/conversation"
	"luciq/pkg/signal"
)

// MemoryStore is an in-process Store implementation, useful for tests and
// single-process deployments where Postgres isn't configured.
type MemoryStore struct {
	mu               sync.RWMutex
	platformCred     map[signal.Platform]signal.PlatformCredibility
	sourceRel        map[string]signal.SourceReliability
	verifications    []signal.SignalVerification
	opportunities    []signal.Opportunity
	signalCache      map[string]cachedSignal
	conversations    map[string][]conversation.Turn
}

type cachedSignal struct {
	Signal   signal.Signal
	Quality  signal.QualityScore
	Semantic signal.SemanticScore
	Pain     signal.PainPointAssessment
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		platformCred:  make(map[signal.Platform]signal.PlatformCredibility),
		sourceRel:     make(map[string]signal.SourceReliability),
		signalCache:   make(map[string]cachedSignal),
		conversations: make(map[string][]conversation.Turn),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetPlatformCredibility(ctx context.Context, platform signal.Platform) (signal.PlatformCredibility, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.platformCred[platform]
	return c, ok, nil
}

func (m *MemoryStore) PutPlatformCredibility(ctx context.Context, c signal.PlatformCredibility) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.platformCred[c.Platform] = c
	return nil
}

func (m *MemoryStore) GetSourceReliability(ctx context.Context, platform signal.Platform, authorRef string) (signal.SourceReliability, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.sourceRel[string(platform)+":"+authorRef]
	return r, ok, nil
}

func (m *MemoryStore) PutSourceReliability(ctx context.Context, r signal.SourceReliability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sourceRel[r.Key()] = r
	return nil
}

func (m *MemoryStore) AppendVerification(ctx context.Context, v signal.SignalVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, v)
	return nil
}

func (m *MemoryStore) SaveOpportunities(ctx context.Context, batch []signal.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := make(map[string]int, len(m.opportunities))
	for i, o := range m.opportunities {
		byID[o.OpportunityID] = i
	}
	for _, o := range batch {
		if idx, ok := byID[o.OpportunityID]; ok {
			m.opportunities[idx] = o
			continue
		}
		m.opportunities = append(m.opportunities, o)
		byID[o.OpportunityID] = len(m.opportunities) - 1
	}
	return nil
}

func (m *MemoryStore) RecentOpportunities(ctx context.Context, limit int, since time.Time) ([]signal.Opportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []signal.Opportunity
	for _, o := range m.opportunities {
		if o.GeneratedAt.Before(since) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveSignal(ctx context.Context, s signal.Signal, q signal.QualityScore, sem signal.SemanticScore, pain signal.PainPointAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signalCache[s.Key()] = cachedSignal{Signal: s, Quality: q, Semantic: sem, Pain: pain}
	return nil
}

func (m *MemoryStore) HasSignal(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.signalCache[key]
	return ok, nil
}

// RecentMatching does a linear scan of the cached signals for any whose
// title or body contains one of keywords (case-insensitive substring, not
// full-text search — the cache is small enough that this is adequate).
func (m *MemoryStore) RecentMatching(ctx context.Context, keywords []string) ([]signal.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []signal.Signal
	for _, cached := range m.signalCache {
		text := strings.ToLower(cached.Signal.Text())
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, cached.Signal)
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) GetTurns(ctx context.Context, conversationID string) ([]conversation.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.conversations[conversationID]
	out := make([]conversation.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryStore) AppendTurn(ctx context.Context, conversationID string, turn conversation.Turn, maxRetained int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.conversations[conversationID], turn)
	if maxRetained > 0 && len(turns) > maxRetained {
		turns = turns[len(turns)-maxRetained:]
	}
	m.conversations[conversationID] = turns
	return nil
}
