package stages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/internal/extract"
	"github.com/mohammad-safakhou/resonance/internal/llm"
	"github.com/mohammad-safakhou/resonance/internal/research"
)

const journeyPrompt = `You are a customer journey strategist and content marketer. Map the full buying journey for one customer segment.

## Company

**Company:** %s
**Industry:** %s

**Value Proposition:**
%s

## Target ICP

**ICP Name:** %s
**One-Liner:** %s

**Key Characteristics:**
%s

**Functional Pains:**
%s

**Emotional Pains:**
%s

**Forces Analysis:**
%s

## Task

Describe five stages: awareness, consideration, decision, onboarding and expansion. For each stage give the objective, the customer's knowledge level, emotional state and key questions, content themes, three to five concrete content ideas (title, format, hook, key message, call to action), preferred channels, targeting criteria and KPIs. Finish with the overall timeline, cross-stage recommendations and content calendar priorities.

Return JSON in exactly this shape:

` + "```json" + `
{
    "awareness_stage": {
        "objective": "What this stage should achieve",
        "customer_state": {
            "knowledge_level": "unaware|problem_aware|solution_aware",
            "emotional_state": ["feeling"],
            "key_questions": ["question"]
        },
        "content_themes": ["theme"],
        "content_ideas": [
            {"title": "Title", "format": "blog|video|podcast|social|webinar|ebook|case_study|email", "hook": "Hook", "key_message": "Message", "cta": "Call to action"}
        ],
        "preferred_channels": ["channel"],
        "targeting_criteria": ["criterion"],
        "kpis": ["metric"]
    },
    "consideration_stage": {},
    "decision_stage": {},
    "onboarding_stage": {},
    "expansion_stage": {},
    "overall_journey_timeline": "Typical time from awareness to purchase",
    "cross_stage_recommendations": ["recommendation"],
    "content_calendar_priorities": [
        {"priority": 1, "content_piece": "Content", "stage": "awareness", "rationale": "Why first"}
    ]
}
` + "```" + `

Every stage object must use the same shape as awareness_stage.`

var journeyStageKeys = []string{
	"awareness_stage",
	"consideration_stage",
	"decision_stage",
	"onboarding_stage",
	"expansion_stage",
}

// MapJourney builds the five-stage journey for one persona. The value map and
// pain taxonomy are optional context; when the taxonomy is missing the
// persona's own pain points are used instead.
func (r *Runner) MapJourney(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona, vm *research.ValueMap, pt *research.PainTaxonomy) (*research.JourneyMap, error) {
	if profile == nil {
		return nil, fmt.Errorf("journey mapping requires a company profile")
	}
	r.logger.Info("mapping customer journey", zap.String("persona", persona.Name))

	resp, err := r.llm.Analyze(ctx, llm.AnalysisRequest{
		Prompt:       buildJourneyPrompt(profile, persona, vm, pt),
		Model:        r.analysisModel,
		SystemPrompt: journeySystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	data, perr := extract.Object(resp.Content)
	if perr != nil {
		r.logger.Error("failed to parse journey answer", zap.String("persona", persona.Name), zap.Error(perr))
		data = extract.Fields{}
	}
	jm := parseJourney(data, persona)
	r.logger.Info("journey map complete", zap.String("persona", persona.Name))
	return jm, nil
}

func buildJourneyPrompt(p *research.CompanyProfile, persona research.Persona, vm *research.ValueMap, pt *research.PainTaxonomy) string {
	valueProp := "Not analyzed"
	if vm != nil {
		valueProp = vm.ValuePropositionStatement
		if len(vm.UniqueDifferentiators) > 0 {
			valueProp += "\n\nUnique Differentiators:\n" + bullets(vm.UniqueDifferentiators, "")
		}
	}

	var functional, emotional []string
	if pt != nil {
		for _, d := range head(pt.Functional, 5) {
			functional = append(functional, d.Statement)
		}
		for _, d := range head(pt.Emotional, 5) {
			emotional = append(emotional, d.Statement)
		}
	} else {
		for _, pp := range head(persona.PainPoints, 5) {
			switch strings.ToLower(pp.Category) {
			case "functional", "inefficiency", "complexity":
				functional = append(functional, pp.Statement)
			default:
				emotional = append(emotional, pp.Statement)
			}
		}
	}

	forces := "Not analyzed"
	if pt != nil && pt.Forces != nil {
		f := pt.Forces
		var lines []string
		if len(f.PushFactors) > 0 {
			lines = append(lines, "Push: "+strings.Join(head(f.PushFactors, 2), ", "))
		}
		if len(f.PullFactors) > 0 {
			lines = append(lines, "Pull: "+strings.Join(head(f.PullFactors, 2), ", "))
		}
		if len(f.HabitFactors) > 0 {
			lines = append(lines, "Habit (resistance): "+strings.Join(head(f.HabitFactors, 2), ", "))
		}
		if len(f.AnxietyFactors) > 0 {
			lines = append(lines, "Anxiety: "+strings.Join(head(f.AnxietyFactors, 2), ", "))
		}
		if len(lines) > 0 {
			forces = bullets(lines, "")
		}
	}

	chars := []string{
		"Decision Style: " + string(persona.Psychographics.DecisionStyle),
		"Risk Tolerance: " + string(persona.Psychographics.RiskTolerance),
	}
	if titles := persona.Demographics.JobTitles; len(titles) > 0 {
		chars = append(chars, "Roles: "+strings.Join(head(titles, 3), ", "))
	}
	if channels := persona.Behavioral.ResearchChannels; len(channels) > 0 {
		chars = append(chars, "Research Channels: "+strings.Join(head(channels, 5), ", "))
	}
	if persona.Behavioral.DecisionTimeline != nil {
		chars = append(chars, "Decision Timeline: "+*persona.Behavioral.DecisionTimeline)
	}

	return fmt.Sprintf(journeyPrompt,
		p.Name, p.Industry,
		orDefault(valueProp, "Not analyzed"),
		persona.Name, persona.OneLiner,
		bullets(chars, notSpecified),
		bullets(functional, notSpecified),
		bullets(emotional, notSpecified),
		forces)
}

func parseJourney(f extract.Fields, persona research.Persona) *research.JourneyMap {
	jm := &research.JourneyMap{
		PersonaName:               persona.Name,
		OverallTimeline:           f.OptString("overall_journey_timeline"),
		CrossStageRecommendations: f.Strings("cross_stage_recommendations"),
		ContentCalendarPriorities: rawObjects(f.Objects("content_calendar_priorities")),
	}
	targets := []**research.JourneyStage{&jm.Awareness, &jm.Consideration, &jm.Decision, &jm.Onboarding, &jm.Expansion}
	for i, key := range journeyStageKeys {
		*targets[i] = parseJourneyStage(f.Object(key))
	}
	return jm
}

// parseJourneyStage returns nil for a missing or empty stage object.
func parseJourneyStage(f extract.Fields) *research.JourneyStage {
	if len(f) == 0 {
		return nil
	}
	state := f.Object("customer_state")
	stage := &research.JourneyStage{
		Objective:         f.String("objective", ""),
		KnowledgeLevel:    state.OptString("knowledge_level"),
		EmotionalState:    state.Strings("emotional_state"),
		KeyQuestions:      state.Strings("key_questions"),
		ContentThemes:     f.Strings("content_themes"),
		ContentIdeas:      []research.ContentIdea{},
		PreferredChannels: f.Strings("preferred_channels"),
		TargetingCriteria: f.Strings("targeting_criteria"),
		KPIs:              f.Strings("kpis"),
	}
	for _, idea := range f.Objects("content_ideas") {
		stage.ContentIdeas = append(stage.ContentIdeas, research.ContentIdea{
			Title:      idea.String("title", ""),
			Format:     idea.String("format", "blog"),
			Hook:       idea.OptString("hook"),
			KeyMessage: idea.OptString("key_message"),
			CTA:        idea.OptString("cta"),
		})
	}
	return stage
}
