package signal

// Intent is the dominant communicative intent of a piece of text, as
// classified by C4.
type Intent string

const (
	IntentQuestion     Intent = "question"
	IntentComplaint    Intent = "complaint"
	IntentRequest      Intent = "request"
	IntentAnnouncement Intent = "announcement"
	IntentOpinion      Intent = "opinion"
	IntentOther        Intent = "other"
)

// Emotion is the dominant emotion label from a fixed, small taxonomy.
type Emotion string

const (
	EmotionFrustration Emotion = "frustration"
	EmotionExcitement  Emotion = "excitement"
	EmotionCuriosity   Emotion = "curiosity"
	EmotionSatisfaction Emotion = "satisfaction"
	EmotionNeutral     Emotion = "neutral"
	EmotionAnger       Emotion = "anger"
)

// BusinessContext is a tag from the fixed taxonomy a piece of content may be
// classified under. See DESIGN.md for the Open Question resolution fixing
// this set at ten tags.
type BusinessContext string

const (
	ContextSaaS         BusinessContext = "saas"
	ContextFintech      BusinessContext = "fintech"
	ContextDevTools     BusinessContext = "devtools"
	ContextProductivity BusinessContext = "productivity"
	ContextEcommerce    BusinessContext = "ecommerce"
	ContextHealthTech   BusinessContext = "healthtech"
	ContextEdTech       BusinessContext = "edtech"
	ContextMarketplace  BusinessContext = "marketplace"
	ContextSecurity     BusinessContext = "security"
	ContextData         BusinessContext = "data"
)

// AllBusinessContexts lists the fixed taxonomy in a stable order, for any
// caller that needs a deterministic iteration order over it.
var AllBusinessContexts = []BusinessContext{
	ContextSaaS, ContextFintech, ContextDevTools, ContextProductivity,
	ContextEcommerce, ContextHealthTech, ContextEdTech, ContextMarketplace,
	ContextSecurity, ContextData,
}

// ContextRelevanceThreshold is the minimum prototype similarity for a
// business context tag to be attached to a signal (§4.3).
const ContextRelevanceThreshold = 0.55

// SemanticScore is attached to a Signal by the semantic analysis engine (C4).
type SemanticScore struct {
	ContextRelevance    float64           `json:"context_relevance"`
	IntentClarity       float64           `json:"intent_clarity"`
	SentimentStrength   float64           `json:"sentiment_strength"`
	SentimentPolarity   float64           `json:"sentiment_polarity"` // signed, [-1,1]; magnitude feeds SentimentStrength
	EntityRichness      float64           `json:"entity_richness"`
	SemanticCoherence   float64           `json:"semantic_coherence"`
	InnovationPotential float64           `json:"innovation_potential"`
	DominantIntent      Intent            `json:"dominant_intent"`
	DominantEmotion     Emotion           `json:"dominant_emotion"`
	BusinessContexts    []BusinessContext `json:"business_contexts"`
	KeyConcepts         []string          `json:"key_concepts"`
	// Confidence is flagged low when the fallback lexical ModelProvider was
	// used instead of a neural model (§4.3).
	Confidence float64 `json:"confidence"`
}
