package research

type PainReliever struct {
	PainAddressed       string `json:"pain_addressed"`
	FeatureOrCapability string `json:"feature_or_capability"`
	HowRelieved         string `json:"how_relieved"`
	Significance        int    `json:"relief_significance"`
}

type GainCreator struct {
	GainCreated         string `json:"gain_created"`
	FeatureOrCapability string `json:"feature_or_capability"`
	HowCreated          string `json:"how_created"`
	Significance        int    `json:"creation_significance"`
}

// ValueMap is a value proposition canvas for one persona. The customer-side
// collections are kept as decoded JSON since models vary their shape.
type ValueMap struct {
	PersonaName               string           `json:"icp_name"`
	CustomerJobs              map[string]any   `json:"customer_jobs"`
	CustomerPains             []map[string]any `json:"customer_pains"`
	CustomerGains             []map[string]any `json:"customer_gains"`
	ProductsServicesFit       []map[string]any `json:"products_services_fit"`
	PainRelievers             []PainReliever   `json:"pain_relievers"`
	GainCreators              []GainCreator    `json:"gain_creators"`
	ValuePropositionStatement string           `json:"value_proposition_statement"`
	FitScore                  float64          `json:"fit_score"`
	UniqueDifferentiators     []string         `json:"unique_differentiators"`
	GapsWeaknesses            []string         `json:"gaps_weaknesses"`
	MessagingRecommendations  []string         `json:"messaging_recommendations"`
}

// DetailedPain is one entry of a pain taxonomy dimension. Which optional
// fields are set depends on the dimension.
type DetailedPain struct {
	Statement              string   `json:"statement"`
	Category               string   `json:"category"`
	Severity               int      `json:"severity"`
	Frequency              *string  `json:"frequency,omitempty"`
	CurrentCopingMechanism *string  `json:"current_coping_mechanism,omitempty"`
	ImpactIfUnresolved     *string  `json:"impact_if_unresolved,omitempty"`
	RootCause              *string  `json:"root_cause,omitempty"`
	FiveWhysDepth          *string  `json:"five_whys_depth,omitempty"`
	EstimatedCostImpact    *string  `json:"estimated_cost_impact,omitempty"`
	TriggerSituations      []string `json:"trigger_situations,omitempty"`
	UnderlyingFear         *string  `json:"underlying_fear,omitempty"`
}

// Forces is the push, pull, habit and anxiety analysis of switching.
type Forces struct {
	PushFactors        []string `json:"push_factors"`
	PullFactors        []string `json:"pull_factors"`
	HabitFactors       []string `json:"habit_factors"`
	AnxietyFactors     []string `json:"anxiety_factors"`
	NetForceAssessment *string  `json:"net_force_assessment,omitempty"`
	RecommendedFocus   *string  `json:"recommended_focus,omitempty"`
	KeyTriggerMoments  []string `json:"key_trigger_moments"`
}

type PainTaxonomy struct {
	PersonaName           string           `json:"icp_name"`
	Functional            []DetailedPain   `json:"functional_pains"`
	Financial             []DetailedPain   `json:"financial_pains"`
	Emotional             []DetailedPain   `json:"emotional_pains"`
	Forces                *Forces          `json:"forces_analysis,omitempty"`
	PriorityRanking       []map[string]any `json:"pain_priority_ranking"`
	MessagingImplications []string         `json:"messaging_implications"`
}

// Total returns the number of pains across all three dimensions.
func (p *PainTaxonomy) Total() int {
	return len(p.Functional) + len(p.Financial) + len(p.Emotional)
}

type ContentIdea struct {
	Title      string  `json:"title"`
	Format     string  `json:"format"`
	Hook       *string `json:"hook,omitempty"`
	KeyMessage *string `json:"key_message,omitempty"`
	CTA        *string `json:"cta,omitempty"`
}

type JourneyStage struct {
	Objective         string        `json:"objective"`
	KnowledgeLevel    *string       `json:"knowledge_level,omitempty"`
	EmotionalState    []string      `json:"emotional_state"`
	KeyQuestions      []string      `json:"key_questions"`
	ContentThemes     []string      `json:"content_themes"`
	ContentIdeas      []ContentIdea `json:"content_ideas"`
	PreferredChannels []string      `json:"preferred_channels"`
	TargetingCriteria []string      `json:"targeting_criteria"`
	KPIs              []string      `json:"kpis"`
}

// JourneyMap is the five-stage customer journey for one persona. A stage the
// model omitted is nil.
type JourneyMap struct {
	PersonaName               string           `json:"icp_name"`
	OverallTimeline           *string          `json:"overall_timeline,omitempty"`
	Awareness                 *JourneyStage    `json:"awareness_stage,omitempty"`
	Consideration             *JourneyStage    `json:"consideration_stage,omitempty"`
	Decision                  *JourneyStage    `json:"decision_stage,omitempty"`
	Onboarding                *JourneyStage    `json:"onboarding_stage,omitempty"`
	Expansion                 *JourneyStage    `json:"expansion_stage,omitempty"`
	CrossStageRecommendations []string         `json:"cross_stage_recommendations"`
	ContentCalendarPriorities []map[string]any `json:"content_calendar_priorities"`
}

// NamedStage pairs a journey stage with its identifier.
type NamedStage struct {
	ID    string
	Stage *JourneyStage
}

// Stages returns the five stages in journey order, including nil ones.
func (j *JourneyMap) Stages() []NamedStage {
	return []NamedStage{
		{ID: "awareness", Stage: j.Awareness},
		{ID: "consideration", Stage: j.Consideration},
		{ID: "decision", Stage: j.Decision},
		{ID: "onboarding", Stage: j.Onboarding},
		{ID: "expansion", Stage: j.Expansion},
	}
}

// PersonaBundle collects the per-item analyses that succeeded for one
// persona. A nil field means that stage failed or did not run.
type PersonaBundle struct {
	Persona      Persona       `json:"icp"`
	ValueMap     *ValueMap     `json:"value_proposition,omitempty"`
	PainTaxonomy *PainTaxonomy `json:"pain_taxonomy,omitempty"`
	JourneyMap   *JourneyMap   `json:"journey_map,omitempty"`
}
