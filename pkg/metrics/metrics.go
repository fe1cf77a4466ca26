// Package metrics implements the metrics surface named in spec §6. Transport
// (e.g. an HTTP /metrics endpoint) is out of scope for the core; this
// package only registers and exposes the collectors so an embedding
// application can serve them, grounded on the plain prometheus.NewCounter /
// prometheus.Register style seen in DaveintDBN-luno's cmd/bot/api/server.go.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SignalsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signals_ingested_total",
		Help: "Total signals pulled from platform clients.",
	})
	SignalsAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signals_accepted_total",
		Help: "Total signals accepted by the quality gate.",
	})
	SignalsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_rejected_total",
		Help: "Total signals rejected by the quality gate, by reason.",
	}, []string{"reason"})
	SemanticLatencyMS = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "semantic_latency_ms",
		Help:    "Latency of semantic analysis calls in milliseconds.",
		Buckets: prometheus.DefBuckets,
	})
	PainDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pain_detected_total",
		Help: "Total signals classified as a detected pain point.",
	})
	ClustersFormedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clusters_formed_total",
		Help: "Total clusters formed, partitioned by universality.",
	}, []string{"universal"})
	OpportunitiesEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opportunities_emitted_total",
		Help: "Total opportunities emitted by the fusion orchestrator.",
	})
	FusionLatencyMS = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fusion_latency_ms",
		Help:    "Latency of a fusion run in milliseconds.",
		Buckets: prometheus.DefBuckets,
	})
	LLMLatencyMS = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_latency_ms",
		Help:    "Latency of LLM completion calls in milliseconds, by provider.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	CredibilityUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credibility_updates_total",
		Help: "Total credibility state updates from verification records.",
	})
)

// Registry bundles every Luciq collector for a single prometheus.Register
// call by the embedding application.
var Registry = []prometheus.Collector{
	SignalsIngestedTotal,
	SignalsAcceptedTotal,
	SignalsRejectedTotal,
	SemanticLatencyMS,
	PainDetectedTotal,
	ClustersFormedTotal,
	OpportunitiesEmittedTotal,
	FusionLatencyMS,
	LLMLatencyMS,
	CredibilityUpdatesTotal,
}

// MustRegister registers every Luciq collector against reg, ignoring
// AlreadyRegisteredError so repeated calls (e.g. in tests) are safe.
func MustRegister(reg *prometheus.Registry) {
	for _, c := range Registry {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
