// Command luciq-pipeline runs one end-to-end Luciq pipeline pass (C1
// through C10) against whichever platforms are configured and, with -chat,
// then drops into an interactive conversational loop over the resulting
// opportunities (C9), grounded on the teacher's cmd/pipeline_demo
// step-by-step driver.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"luciq/pkg/cluster"
	"luciq/pkg/config"
	"luciq/pkg/conversation"
	"luciq/pkg/llm"
	"luciq/pkg/metrics"
	"luciq/pkg/pipeline"
	"luciq/pkg/platform"
	"luciq/pkg/semantic"
	"luciq/pkg/signal"
	"luciq/pkg/store"
)

func logStep(step, details string) {
	fmt.Printf("\n[STEP] %s\n", step)
	fmt.Println("---------------------------------------------------------")
	fmt.Println(details)
	fmt.Println("---------------------------------------------------------")
}

func main() {
	configPath := flag.String("config", "luciq.yaml", "path to YAML configuration")
	terms := flag.String("terms", "", "comma-separated search terms (OR semantics)")
	interactive := flag.Bool("chat", false, "drop into an interactive conversational loop after the run")
	verifyPath := flag.String("verify-file", "", "path to a JSON array of SignalVerification records to replay through the credibility feedback loop, then exit")
	flag.Parse()

	logStep("0. Initialization", "Starting Luciq intelligence pipeline...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config %s: %v\n", *configPath, err)
		return
	}

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	fmt.Println("Metrics registry ready")

	clients := make(map[signal.Platform]platform.Client, len(signal.AllPlatforms))
	for _, p := range signal.AllPlatforms {
		c, err := platform.NewClient(p, platform.AdapterConfig{UserAgent: "luciq-pipeline/1.0"})
		if err != nil {
			fmt.Printf("Warning: no client for platform %s: %v\n", p, err)
			continue
		}
		clients[p] = c
	}
	logStep("1. Platform clients", fmt.Sprintf("%d of %d platforms wired", len(clients), len(signal.AllPlatforms)))

	provider := semanticProvider(cfg)
	st := intelligenceStore(cfg)

	orch := pipeline.New(cfg, clients, provider, st)

	if *verifyPath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout())
		defer cancel()
		if err := replayVerifications(ctx, orch, *verifyPath); err != nil {
			fmt.Printf("Error replaying verifications: %v\n", err)
		}
		return
	}

	query := platform.QuerySpec{Terms: splitTerms(*terms), Limit: 50}
	since := time.Now().Add(-7 * 24 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	opportunities, err := orch.RunOnce(ctx, query, since)
	if err != nil {
		fmt.Printf("Error running pipeline: %v\n", err)
		return
	}

	logStep("2. Opportunities", describeOpportunities(opportunities))

	if *interactive {
		runChat(cfg, st, provider)
	}
}

// replayVerifications loads a JSON array of SignalVerification records from
// path and routes each through the orchestrator's C3 feedback loop (§8
// scenario 4), closing the loop between outcomes observed after a run and
// the credibility weights the next run will read.
func replayVerifications(ctx context.Context, orch *pipeline.Orchestrator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var verifications []signal.SignalVerification
	if err := json.Unmarshal(data, &verifications); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	logStep("Verification replay", fmt.Sprintf("replaying %d verification record(s) from %s", len(verifications), path))
	for _, v := range verifications {
		if err := orch.Verify(ctx, v); err != nil {
			fmt.Printf("luciq pipeline: verification for signal %s failed: %v\n", v.SignalID, err)
			continue
		}
		fmt.Printf("luciq pipeline: recorded verification for %s/%s\n", v.Platform, v.AuthorRef)
	}
	return nil
}

func splitTerms(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func describeOpportunities(opps []signal.Opportunity) string {
	if len(opps) == 0 {
		return "No opportunities surfaced this run."
	}
	out := fmt.Sprintf("%d opportunities ranked:\n", len(opps))
	for i, o := range opps {
		out += fmt.Sprintf("  %2d. [%.3f] %s (%s)\n", i+1, o.CompositeScore, o.Title, o.MarketTiming)
	}
	return out
}

// semanticProvider picks a neural ModelProvider when a Gemini API key is
// configured, otherwise the lexical fallback (§4.3's degradation contract).
func semanticProvider(cfg config.Config) semantic.ModelProvider {
	if cfg.GeminiAPIKey == "" {
		fmt.Println("No GEMINI_API_KEY set: using lexical fallback embedder")
		return semantic.NewFallbackProvider()
	}
	return &semantic.GeminiProvider{APIKey: cfg.GeminiAPIKey}
}

// intelligenceStore opens Postgres when DATABASE_URL is configured,
// otherwise an in-memory store suitable for a single demo run.
func intelligenceStore(cfg config.Config) store.Store {
	if cfg.DatabaseURL == "" {
		fmt.Println("No DATABASE_URL set: using in-memory intelligence store")
		return store.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pg, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Printf("Warning: failed to open Postgres (%v), falling back to in-memory store\n", err)
		return store.NewMemoryStore()
	}
	if err := pg.Migrate(ctx); err != nil {
		fmt.Printf("Warning: failed to migrate Postgres (%v), falling back to in-memory store\n", err)
		return store.NewMemoryStore()
	}
	return pg
}

// llmProvider picks the Gemini-backed LLM when a key is configured.
func llmProvider(cfg config.Config) llm.Provider {
	if cfg.GeminiAPIKey == "" {
		return llm.FallbackProvider{}
	}
	model := cfg.LLM.Provider
	if model == "" || model == "gemini" {
		model = "gemini-2.0-flash-exp"
	}
	return &llm.GeminiProvider{APIKey: cfg.GeminiAPIKey, Model: model}
}

// runChat drives C9 over stdin, letting a user ask about the opportunities
// just ranked.
func runChat(cfg config.Config, st store.Store, provider semantic.ModelProvider) {
	clusterer := cluster.New(cluster.Config{
		Cut:                   cfg.Clustering.Cut,
		UniversalMinPlatforms: cfg.Clustering.UniversalMinPlatforms,
		AlignmentWindow:       time.Duration(cfg.Clustering.AlignmentWindowDays) * 24 * time.Hour,
	}, provider)
	convOrch := conversation.New(
		conversation.Config{
			MaxTurnsRetained: cfg.Conversation.MaxTurnsRetained,
			MaxTokens:        cfg.LLM.MaxTokens,
			Temperature:      cfg.LLM.Temperature,
		},
		st, st, clusterer, st, llmProvider(cfg),
	)

	fmt.Println("\nEnter a question about the opportunities above (empty line to quit):")
	scanner := bufio.NewScanner(os.Stdin)
	conversationID := uuid.NewString()
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout())
		resp, err := convOrch.Turn(ctx, conversationID, line)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n(confidence: %s)\n", resp.AssistantText, resp.Confidence)
	}
}
