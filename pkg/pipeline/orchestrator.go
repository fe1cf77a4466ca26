// Package pipeline wires C1 through C10 into the end-to-end Luciq
// pipeline (§5), grounded on the teacher's PipelineOrchestrator
// (pkg/core/pipeline/orchestrator.go) "smart ingestion" incremental shape.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"luciq/pkg/cluster"
	"luciq/pkg/config"
	"luciq/pkg/credibility"
	"luciq/pkg/errs"
	"luciq/pkg/fusion"
	"luciq/pkg/metrics"
	"luciq/pkg/painpoint"
	"luciq/pkg/platform"
	"luciq/pkg/quality"
	"luciq/pkg/semantic"
	"luciq/pkg/signal"
	"luciq/pkg/store"
	"luciq/pkg/temporal"
)

// Orchestrator wires every capability into the multi-producer/multi-
// consumer pipeline described in §5.
type Orchestrator struct {
	cfg         config.Config
	clients     map[signal.Platform]platform.Client
	validator   *quality.Validator
	baseline    *quality.RollingBaseline
	credibility *credibility.Engine
	semantics   *semantic.Engine
	painpoint   *painpoint.Detector
	temporal    *temporal.Engine
	clusterer   *cluster.Engine
	fusion      *fusion.Orchestrator
	store       store.Store
}

// New constructs a fully wired Orchestrator. provider backs both the
// semantic engine and the clustering engine so embeddings are comparable
// across the two (§4.7 reuses C4's embedding space).
func New(cfg config.Config, clients map[signal.Platform]platform.Client, provider semantic.ModelProvider, st store.Store) *Orchestrator {
	baseline := quality.NewRollingBaseline()
	seedOverrides := make(map[signal.Platform]float64, len(cfg.Credibility.SeedOverrides))
	for p, v := range cfg.Credibility.SeedOverrides {
		seedOverrides[signal.Platform(p)] = v
	}
	credEngine := credibility.New(cfg.Credibility.VerificationAlpha, seedOverrides)
	semEngine := semantic.New(context.Background(), provider)

	return &Orchestrator{
		cfg:         cfg,
		clients:     clients,
		validator:   quality.New(cfg.Quality.Threshold, credEngine, baseline),
		baseline:    baseline,
		credibility: credEngine,
		semantics:   semEngine,
		painpoint:   painpoint.New(),
		temporal: temporal.New(temporal.Config{
			Window:                     cfg.Temporal.Window,
			EmergenceWindow:            24,
			MinSamplesForSeasonalTrend: 8,
		}),
		clusterer: cluster.New(cluster.Config{
			Cut:                   cfg.Clustering.Cut,
			UniversalMinPlatforms: cfg.Clustering.UniversalMinPlatforms,
			AlignmentWindow:       time.Duration(cfg.Clustering.AlignmentWindowDays) * 24 * time.Hour,
		}, provider),
		fusion: fusion.New(fusion.Config{TopK: cfg.Fusion.TopK}, credEngine),
		store:  st,
	}
}

// Enrichment pairs a signal with its C4/C5 outputs, threaded through the
// later pipeline stages.
type Enrichment struct {
	Signal   signal.Signal
	Quality  signal.QualityScore
	Semantic signal.SemanticScore
	Pain     signal.PainPointAssessment
}

// RunOnce fetches recent signals from every configured platform client
// concurrently, validates and enriches them, clusters and ranks them, and
// persists the resulting opportunities (§5's full data flow). Smart
// ingestion: signals already present in the store are skipped (§8).
func (o *Orchestrator) RunOnce(ctx context.Context, query platform.QuerySpec, since time.Time) ([]signal.Opportunity, error) {
	fmt.Printf("luciq pipeline: starting run across %d platform(s)\n", len(o.clients))
	start := time.Now()

	raw, err := o.fetchAll(ctx, query, since)
	if err != nil {
		return nil, err
	}
	fmt.Printf("luciq pipeline: fetched %d candidate signals\n", len(raw))

	accepted := o.validateAndFilterNew(ctx, raw)
	fmt.Printf("luciq pipeline: %d signals passed quality gate and smart-ingestion dedupe\n", len(accepted))
	if len(accepted) == 0 {
		return nil, nil
	}

	enriched := o.enrich(ctx, accepted)

	clusters, err := o.clusterer.Cluster(ctx, accepted)
	if err != nil {
		return nil, fmt.Errorf("pipeline: clustering: %w", err)
	}
	fmt.Printf("luciq pipeline: formed %d clusters\n", len(clusters))
	for _, c := range clusters {
		metrics.ClustersFormedTotal.WithLabelValues(fmt.Sprintf("%t", c.Universal)).Inc()
	}

	patterns := o.detectPatterns(clusters)

	enrichmentByKey := make(map[string]fusion.Enrichment, len(enriched))
	for _, e := range enriched {
		enrichmentByKey[e.Signal.Key()] = fusion.Enrichment{Semantic: e.Semantic, Pain: e.Pain}
		if err := o.store.SaveSignal(ctx, e.Signal, e.Quality, e.Semantic, e.Pain); err != nil {
			fmt.Printf("luciq pipeline: warning: failed to cache signal %s: %v\n", e.Signal.Key(), err)
		}
	}

	opportunities := o.fusion.Rank(ctx, clusters, enrichmentByKey, patterns, time.Now())
	fmt.Printf("luciq pipeline: ranked %d opportunities\n", len(opportunities))
	metrics.OpportunitiesEmittedTotal.Add(float64(len(opportunities)))

	if err := o.store.SaveOpportunities(ctx, opportunities); err != nil {
		return nil, fmt.Errorf("pipeline: persisting opportunities: %w", err)
	}

	fmt.Printf("luciq pipeline: run completed in %v\n", time.Since(start))
	return opportunities, nil
}

// Verify closes the feedback loop (scenario 4, §8): it routes an observed
// (predicted vs. actual) outcome through C3, appends it to the verification
// log, and writes the updated platform and author reliability rows back to
// the store so the next run's RunOnce scoring reflects it.
func (o *Orchestrator) Verify(ctx context.Context, v signal.SignalVerification) error {
	o.credibility.RecordVerification(v)
	metrics.CredibilityUpdatesTotal.Inc()

	if err := o.store.AppendVerification(ctx, v); err != nil {
		return fmt.Errorf("pipeline: persisting verification: %w", err)
	}

	platformCred := o.credibility.ScoreFor(v.Platform)
	platformCred.UpdatedAt = time.Now()
	if err := o.store.PutPlatformCredibility(ctx, platformCred); err != nil {
		return fmt.Errorf("pipeline: persisting platform credibility: %w", err)
	}

	if src, ok := o.credibility.SourceSnapshot(v.Platform, v.AuthorRef); ok {
		if err := o.store.PutSourceReliability(ctx, src); err != nil {
			return fmt.Errorf("pipeline: persisting source reliability: %w", err)
		}
	}

	return nil
}

// fetchAll runs every platform client concurrently into a shared channel,
// the producer side of §5's bounded multi-producer/multi-consumer model.
func (o *Orchestrator) fetchAll(ctx context.Context, query platform.QuerySpec, since time.Time) ([]signal.Signal, error) {
	results := make(chan platform.Result, 256)
	var wg sync.WaitGroup

	for p, client := range o.clients {
		wg.Add(1)
		go func(p signal.Platform, client platform.Client) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout())
			defer cancel()

			ch, err := client.FetchRecent(fetchCtx, query, platform.Cursor{Since: since.Unix()})
			if err != nil {
				fmt.Printf("luciq pipeline: %s: fetch_recent failed: %v\n", p, err)
				return
			}
			for r := range ch {
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
			o.credibility.RecordFetchSuccess(p, time.Now())
		}(p, client)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []signal.Signal
	for r := range results {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pipeline: %w", errs.ErrCancelled)
		}
		if r.Signal != nil {
			metrics.SignalsIngestedTotal.Inc()
			o.baseline.Observe(r.Signal.Platform, engagementValue(*r.Signal))
			out = append(out, *r.Signal)
		}
		if r.Partial != nil {
			fmt.Printf("luciq pipeline: partial fetch: %v\n", r.Partial)
		}
		if r.Fatal != nil {
			fmt.Printf("luciq pipeline: unusable source: %v\n", r.Fatal)
		}
	}
	return out, nil
}

// validateAndFilterNew runs C2 over raw, then drops anything already
// present in the store (smart ingestion, §8 dedupe by (platform, id)).
func (o *Orchestrator) validateAndFilterNew(ctx context.Context, raw []signal.Signal) []signal.Signal {
	now := time.Now()
	accepted := o.validator.Batch(raw, now, func(s signal.Signal, score signal.QualityScore) {
		metrics.SignalsRejectedTotal.WithLabelValues(rejectionReason(score)).Inc()
	})

	var fresh []signal.Signal
	for _, s := range accepted {
		has, err := o.store.HasSignal(ctx, s.Key())
		if err == nil && has {
			continue
		}
		fresh = append(fresh, s)
		metrics.SignalsAcceptedTotal.Inc()
	}
	return fresh
}

// enrich runs C4 and C5 over accepted signals using a worker pool sized to
// available cores (§5), since both are CPU-bound.
func (o *Orchestrator) enrich(ctx context.Context, accepted []signal.Signal) []Enrichment {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(accepted) {
		workers = len(accepted)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan int, len(accepted))
	out := make([]Enrichment, len(accepted))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fmt.Printf("luciq pipeline: enrichment worker recovered from panic: %v\n", r)
				}
			}()
			for idx := range jobs {
				s := accepted[idx]
				modelCtx, cancel := context.WithTimeout(ctx, o.cfg.ModelTimeout())
				sem, err := o.semantics.Analyze(modelCtx, s.Text())
				cancel()
				if err != nil {
					sem = signal.SemanticScore{}
				}

				credWeight := o.credibility.PlatformOverall(s.Platform)
				pain := o.painpoint.Detect(s, sem, credWeight)
				if pain.Detected {
					metrics.PainDetectedTotal.Inc()
				}

				out[idx] = Enrichment{Signal: s, Semantic: sem, Pain: pain}
			}
		}()
	}

	for i := range accepted {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// engagementValue feeds the rolling baseline that backs engagement_validity
// z-scoring in C2 (§4.2); comments weigh twice an upvote, same ratio C8 uses
// when blending credibility across cluster members.
func engagementValue(s signal.Signal) float64 {
	var value float64
	if s.Engagement.Upvotes != nil {
		value += float64(*s.Engagement.Upvotes)
	}
	if s.Engagement.Comments != nil {
		value += float64(*s.Engagement.Comments) * 2
	}
	return value
}

// rejectionReason names the weakest quality dimension for metrics
// labeling; a zero-value QualityScore (structural invariant failure) is
// reported as "invalid".
func rejectionReason(score signal.QualityScore) string {
	if score == (signal.QualityScore{}) {
		return "invalid"
	}
	worst := "authenticity"
	worstVal := score.Authenticity
	for name, val := range map[string]float64{
		"authenticity":        score.Authenticity,
		"freshness":           score.Freshness,
		"relevance":           score.Relevance,
		"source_credibility":  score.SourceCredibility,
		"content_quality":     score.ContentQuality,
		"engagement_validity": score.EngagementValidity,
	} {
		if val < worstVal {
			worstVal = val
			worst = name
		}
	}
	return worst
}

// detectPatterns runs C6 over each cluster's signal-volume time series on
// the configured grid (§4.5/§4.7's "time patterns on each cluster" step).
func (o *Orchestrator) detectPatterns(clusters []signal.SignalCluster) map[string][]signal.TemporalPattern {
	grid := o.cfg.TemporalGrid()
	out := make(map[string][]signal.TemporalPattern, len(clusters))
	for _, c := range clusters {
		points := make([]temporal.TimedValue, len(c.Members))
		for i, m := range c.Members {
			points[i] = temporal.TimedValue{At: m.CreatedAt, Value: 1}
		}
		series := temporal.ToGrid(points, grid)
		out[c.ClusterID] = o.temporal.Detect(c.ClusterID, series)
	}
	return out
}
