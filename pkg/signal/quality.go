package signal

// QualityScore is attached to a Signal by the quality validator (C2). Every
// dimension is normalized to [0,1]; Overall is a fixed weighted mean of them.
type QualityScore struct {
	Authenticity       float64 `json:"authenticity"`
	Freshness          float64 `json:"freshness"`
	Relevance          float64 `json:"relevance"`
	SourceCredibility  float64 `json:"source_credibility"`
	ContentQuality     float64 `json:"content_quality"`
	EngagementValidity float64 `json:"engagement_validity"`
	Overall            float64 `json:"overall"`
	Accepted           bool    `json:"accepted"`
}

// QualityWeights are the fixed composite weights from §4.2, in the order
// (authenticity, freshness, relevance, source_credibility, content_quality,
// engagement_validity). They sum to 1.0.
var QualityWeights = struct {
	Authenticity       float64
	Freshness          float64
	Relevance          float64
	SourceCredibility  float64
	ContentQuality     float64
	EngagementValidity float64
}{
	Authenticity:       0.20,
	Freshness:          0.10,
	Relevance:          0.25,
	SourceCredibility:  0.20,
	ContentQuality:     0.15,
	EngagementValidity: 0.10,
}

// QualityThreshold is the default acceptance threshold (overall >= this).
const QualityThreshold = 0.60
