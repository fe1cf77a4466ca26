package signal

// ProblemType is the fixed pain-point taxonomy from §4.4.
type ProblemType string

const (
	ProblemCost           ProblemType = "cost"
	ProblemTime           ProblemType = "time"
	ProblemUsability      ProblemType = "usability"
	ProblemIntegration    ProblemType = "integration"
	ProblemTrust          ProblemType = "trust"
	ProblemDiscoverability ProblemType = "discoverability"
	ProblemPerformance    ProblemType = "performance"
	ProblemCompliance     ProblemType = "compliance"
	ProblemOther          ProblemType = "other"
)

// AllProblemTypes lists the taxonomy in the fixed order used to break ties
// when resolving conflicting problem_type votes within a cluster (§C, Open
// Question resolution).
var AllProblemTypes = []ProblemType{
	ProblemCost, ProblemTime, ProblemUsability, ProblemIntegration,
	ProblemTrust, ProblemDiscoverability, ProblemPerformance,
	ProblemCompliance, ProblemOther,
}

// Urgency is a coarse urgency band.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Band is a coarse three-value scale (plus BandUnknown) used for revenue
// potential and implementation complexity.
type Band string

const (
	BandLow     Band = "low"
	BandMedium  Band = "med"
	BandHigh    Band = "high"
	BandUnknown Band = "unknown"
)

// OpportunityAssessment captures the coarse-mapped business viability signals derived
// from a pain-point assessment.
type OpportunityAssessment struct {
	RevenuePotentialBand     Band    `json:"revenue_potential_band"`
	ImplementationComplexity Band    `json:"implementation_complexity"`
	ValidationScore          float64 `json:"validation_score"`
}

// PainPointAssessment is attached to a Signal by the pain-point detection
// engine (C5).
type PainPointAssessment struct {
	Detected     bool                  `json:"detected"`
	Intensity    float64               `json:"intensity"`
	ProblemType  ProblemType           `json:"problem_type"`
	TargetMarket string                `json:"target_market"`
	Urgency      Urgency               `json:"urgency"`
	Opportunity  OpportunityAssessment `json:"opportunity"`
}

// PainDetectionThreshold is the minimum intensity for detected=true (§4.4).
const PainDetectionThreshold = 0.35
