package research

import "strings"

type DecisionStyle string

const (
	DecisionAnalytical    DecisionStyle = "Analytical"
	DecisionIntuitive     DecisionStyle = "Intuitive"
	DecisionConsensus     DecisionStyle = "Consensus"
	DecisionCollaborative DecisionStyle = "Collaborative"
	DecisionDecisive      DecisionStyle = "Decisive"
	DecisionDelegator     DecisionStyle = "Delegator"
)

var decisionStyles = map[string]DecisionStyle{
	"analytical":    DecisionAnalytical,
	"intuitive":     DecisionIntuitive,
	"consensus":     DecisionConsensus,
	"collaborative": DecisionCollaborative,
	"decisive":      DecisionDecisive,
	"delegator":     DecisionDelegator,
}

// ParseDecisionStyle maps a model label onto a DecisionStyle. ok is false
// when the label is unknown, in which case Analytical is returned.
func ParseDecisionStyle(label string) (DecisionStyle, bool) {
	if ds, ok := decisionStyles[strings.ToLower(strings.TrimSpace(label))]; ok {
		return ds, true
	}
	return DecisionAnalytical, false
}

type RiskTolerance string

const (
	RiskAverse   RiskTolerance = "Risk-Averse"
	RiskModerate RiskTolerance = "Moderate"
	RiskSeeking  RiskTolerance = "Risk-Seeking"
)

var riskTolerances = map[string]RiskTolerance{
	"risk_averse":  RiskAverse,
	"risk-averse":  RiskAverse,
	"moderate":     RiskModerate,
	"risk_seeking": RiskSeeking,
	"risk-seeking": RiskSeeking,
}

// ParseRiskTolerance maps a model label onto a RiskTolerance. ok is false
// when the label is unknown, in which case Moderate is returned.
func ParseRiskTolerance(label string) (RiskTolerance, bool) {
	if rt, ok := riskTolerances[strings.ToLower(strings.TrimSpace(label))]; ok {
		return rt, true
	}
	return RiskModerate, false
}

type Demographics struct {
	CompanySize       *string  `json:"company_size,omitempty"`
	JobTitles         []string `json:"job_titles"`
	SeniorityLevel    *string  `json:"seniority_level,omitempty"`
	IndustryVerticals []string `json:"industry_verticals"`
	GeographicFocus   *string  `json:"geographic_focus,omitempty"`
	BudgetRange       *string  `json:"budget_range,omitempty"`
	AgeRange          *string  `json:"age_range,omitempty"`
	IncomeRange       *string  `json:"income_range,omitempty"`
	EducationLevel    *string  `json:"education_level,omitempty"`
}

type Psychographics struct {
	DecisionStyle     DecisionStyle `json:"decision_style"`
	RiskTolerance     RiskTolerance `json:"risk_tolerance"`
	CoreValues        []string      `json:"core_values"`
	Aspirations       []string      `json:"aspirations"`
	Fears             []string      `json:"fears"`
	StatusConcerns    []string      `json:"status_concerns"`
	PersonalityTraits []string      `json:"personality_traits"`
}

type Behavioral struct {
	ResearchChannels    []string `json:"research_channels"`
	DecisionTimeline    *string  `json:"decision_timeline,omitempty"`
	DecisionInfluencers []string `json:"decision_influencers"`
	ContentPreferences  []string `json:"content_preferences"`
	CurrentSolutions    []string `json:"current_solutions"`
	PurchaseTriggers    []string `json:"purchase_triggers"`
	Objections          []string `json:"objections"`
}

type Motivation struct {
	Statement string `json:"statement"`
	Category  string `json:"category"`
	Intensity int    `json:"intensity"`
}

type PainPoint struct {
	Statement     string  `json:"statement"`
	Category      string  `json:"category"`
	Severity      int     `json:"severity"`
	CurrentCoping *string `json:"current_coping,omitempty"`
}

// Persona is one generated ideal customer profile. Every per-item stage
// fans out from a Persona.
type Persona struct {
	Name            string         `json:"icp_name"`
	OneLiner        string         `json:"one_liner"`
	SegmentPriority string         `json:"segment_priority"`
	Demographics    Demographics   `json:"demographics"`
	Psychographics  Psychographics `json:"psychographics"`
	Behavioral      Behavioral     `json:"behavioral"`
	Motivations     []Motivation   `json:"motivations"`
	PainPoints      []PainPoint    `json:"pain_points"`
	Narrative       string         `json:"detailed_narrative"`
}
