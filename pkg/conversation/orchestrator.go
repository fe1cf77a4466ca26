// Package conversation implements the Conversational Orchestrator (C9):
// answering a user message grounded in the latest Opportunities and
// supporting Signals (§4.9).
package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"luciq/pkg/errs"
	"luciq/pkg/llm"
	"luciq/pkg/signal"
)

// Confidence is the turn's reported confidence band.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "med"
	ConfidenceHigh   Confidence = "high"
)

// Turn is one stored exchange in a conversation's memory.
type Turn struct {
	Role string // "user" | "assistant"
	Text string
	At   time.Time
}

// Memory is C9's persistence dependency on C10's conversation contract
// (get_conversation/append_turn with a cap on retained turns, §4.10).
type Memory interface {
	GetTurns(ctx context.Context, conversationID string) ([]Turn, error)
	AppendTurn(ctx context.Context, conversationID string, turn Turn, maxRetained int) error
}

// SignalSource retrieves recent signals matching query-time keywords
// (§4.9 step 2).
type SignalSource interface {
	RecentMatching(ctx context.Context, keywords []string) ([]signal.Signal, error)
}

// Clusterer is C7, invoked over the retrieved signals.
type Clusterer interface {
	Cluster(ctx context.Context, sigs []signal.Signal) ([]signal.SignalCluster, error)
}

// OpportunitySource retrieves recent opportunities to intersect against the
// clusters found for this turn (C10's recent_opportunities, consumed by C8's
// latest output per §4.9 step 2).
type OpportunitySource interface {
	RecentOpportunities(ctx context.Context, limit int, since time.Time) ([]signal.Opportunity, error)
}

// Response is C9's per-turn output contract (§4.9).
type Response struct {
	AssistantText    string
	IntelligenceRefs []string // opportunity_ids and signal_ids referenced
	Confidence       Confidence
}

// Config bounds C9 behavior (§6 conversation.*, llm.*).
type Config struct {
	MaxTurnsRetained   int
	CandidateTopK      int
	LookbackWindow     time.Duration
	MaxTokens          int
	Temperature        float64
}

// DefaultConfig matches §4.9/§6's stated defaults.
func DefaultConfig() Config {
	return Config{MaxTurnsRetained: 10, CandidateTopK: 5, LookbackWindow: 30 * 24 * time.Hour, MaxTokens: 800, Temperature: 0.4}
}

// Orchestrator is the C9 capability.
type Orchestrator struct {
	cfg         Config
	memory      Memory
	signals     SignalSource
	clusterer   Clusterer
	opportunities OpportunitySource
	provider    llm.Provider
}

// New constructs an Orchestrator. provider may be an llm.FallbackProvider
// when no LLM is configured (§4.9).
func New(cfg Config, memory Memory, signals SignalSource, clusterer Clusterer, opportunities OpportunitySource, provider llm.Provider) *Orchestrator {
	if cfg.MaxTurnsRetained <= 0 {
		cfg.MaxTurnsRetained = 10
	}
	if cfg.CandidateTopK <= 0 {
		cfg.CandidateTopK = 5
	}
	if cfg.LookbackWindow <= 0 {
		cfg.LookbackWindow = 30 * 24 * time.Hour
	}
	if provider == nil {
		provider = llm.FallbackProvider{}
	}
	return &Orchestrator{cfg: cfg, memory: memory, signals: signals, clusterer: clusterer, opportunities: opportunities, provider: provider}
}

// Turn answers one user message for conversationID (§4.9's per-turn
// contract). On ctx cancellation, the LLM call is aborted and memory is
// left unchanged for this turn; only errs.ErrCancelled propagates past this
// function, all other failures degrade to the rule-based fallback.
func (o *Orchestrator) Turn(ctx context.Context, conversationID, userText string) (Response, error) {
	priorTurns, err := o.memory.GetTurns(ctx, conversationID)
	if err != nil {
		priorTurns = nil // memory unavailable: proceed with no history rather than fail the turn
	}

	keywords := extractKeywords(userText)

	var candidateSignals []signal.Signal
	if o.signals != nil {
		candidateSignals, _ = o.signals.RecentMatching(ctx, keywords)
	}

	var clusters []signal.SignalCluster
	if o.clusterer != nil && len(candidateSignals) > 0 {
		clusters, _ = o.clusterer.Cluster(ctx, candidateSignals)
	}
	clusterIDs := map[string]bool{}
	for _, c := range clusters {
		clusterIDs[c.ClusterID] = true
	}

	var candidates []signal.Opportunity
	if o.opportunities != nil {
		all, _ := o.opportunities.RecentOpportunities(ctx, 200, time.Now().Add(-o.cfg.LookbackWindow))
		for _, opp := range all {
			if clusterIDs[opp.ClusterRef] {
				candidates = append(candidates, opp)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].CompositeScore > candidates[j].CompositeScore })
	if len(candidates) > o.cfg.CandidateTopK {
		candidates = candidates[:o.cfg.CandidateTopK]
	}

	signalsByKey := make(map[string]signal.Signal, len(candidateSignals))
	for _, s := range candidateSignals {
		signalsByKey[s.Key()] = s
	}

	prompt, systemPrompt := buildPrompt(priorTurns, candidates, signalsByKey, userText)

	var assistantText string
	var confidence Confidence
	if _, ok := o.provider.(llm.FallbackProvider); ok {
		assistantText = fallbackSummary(candidates, userText)
		confidence = ConfidenceLow
	} else {
		text, err := o.provider.Complete(ctx, prompt, llm.Options{
			MaxTokens:    o.cfg.MaxTokens,
			Temperature:  o.cfg.Temperature,
			SystemPrompt: systemPrompt,
		})
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return Response{}, fmt.Errorf("conversation: turn aborted: %w", errs.ErrCancelled)
			}
			assistantText = fallbackSummary(candidates, userText)
			confidence = ConfidenceLow
		} else {
			assistantText = cleanMarkdown(text)
			if !validateMarkdown(assistantText) {
				assistantText = fallbackSummary(candidates, userText)
				confidence = ConfidenceLow
			} else {
				confidence = ConfidenceMedium
				if len(candidates) >= 2 {
					confidence = ConfidenceHigh
				}
			}
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return Response{}, fmt.Errorf("conversation: turn aborted: %w", errs.ErrCancelled)
	}

	refs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, c.OpportunityID)
		refs = append(refs, c.SupportingSignals...)
	}

	now := time.Now()
	if err := o.memory.AppendTurn(ctx, conversationID, Turn{Role: "user", Text: userText, At: now}, o.cfg.MaxTurnsRetained); err == nil {
		_ = o.memory.AppendTurn(ctx, conversationID, Turn{Role: "assistant", Text: assistantText, At: now}, o.cfg.MaxTurnsRetained)
	}

	return Response{AssistantText: assistantText, IntelligenceRefs: refs, Confidence: confidence}, nil
}

var keywordRe = regexp.MustCompile(`[a-z0-9']{3,}`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "what": true,
	"how": true, "why": true, "with": true, "that": true, "this": true, "does": true,
}

func extractKeywords(text string) []string {
	tokens := keywordRe.FindAllString(strings.ToLower(text), -1)
	seen := map[string]bool{}
	var out []string
	for _, t := range tokens {
		if stopwords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func buildPrompt(priorTurns []Turn, candidates []signal.Opportunity, signalsByKey map[string]signal.Signal, userText string) (prompt, systemPrompt string) {
	var b strings.Builder
	b.WriteString("Prior conversation:\n")
	for _, t := range priorTurns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}
	b.WriteString("\nRetrieved opportunities:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s (score=%.2f, timing=%s): %s\n", c.Title, c.CompositeScore, c.MarketTiming, c.Summary)
		for _, sigKey := range c.SupportingSignals {
			if s, ok := signalsByKey[sigKey]; ok {
				fmt.Fprintf(&b, "  quote [%s]: %q\n", sigKey, truncate(s.Text(), 200))
			}
		}
	}
	fmt.Fprintf(&b, "\nUser question: %s\n", userText)

	system := "You are Luciq's research assistant. Answer using only the retrieved opportunities and quoted signals above. Respond in Markdown. Cite opportunity and signal ids you rely on."
	return b.String(), system
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// fallbackSummary produces the rule-based Markdown summary used when no
// LLM is configured or the call failed (§4.9, confidence=low).
func fallbackSummary(candidates []signal.Opportunity, userText string) string {
	var b strings.Builder
	if len(candidates) == 0 {
		b.WriteString("No matching opportunities were found for this question yet.")
		return b.String()
	}
	b.WriteString("## Related opportunities\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- **%s** (score %.2f, timing: %s) — %s\n", c.Title, c.CompositeScore, c.MarketTiming, c.Summary)
	}
	return b.String()
}
