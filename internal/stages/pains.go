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

const painsPrompt = `You are an expert in Jobs-to-be-Done theory and customer psychology. Build a pain point taxonomy for one customer segment.

## Company

**Company:** %s
**Industry:** %s
**Solution Category:** %s

**Company Value Proposition:**
%s

## Target ICP

**ICP Name:** %s
**One-Liner:** %s

**Key Characteristics:**
%s

**Known Pain Points:**
%s

**Known Motivations:**
%s

## Task

Organize every pain into three dimensions:
1. Functional: inefficiency, complexity, inaccuracy, capability, interoperability, scalability, reliability.
2. Financial: direct_cost, hidden_cost, opportunity_cost, roi_uncertainty, cash_flow, resource_drain.
3. Emotional: anxiety, frustration, overwhelm, imposter_syndrome, status_risk, trust_issues, change_fatigue.

Then run a Forces of Progress analysis (push, pull, habit, anxiety), rank the pains by priority and state the messaging implications.

Return JSON in exactly this shape:

` + "```json" + `
{
    "functional_pains": [
        {"statement": "Pain", "category": "inefficiency", "severity": 8, "frequency": "daily|weekly|monthly", "current_coping_mechanism": "Coping", "impact_if_unresolved": "Impact", "root_cause": "Cause", "five_whys_depth": "Deepest why"}
    ],
    "financial_pains": [
        {"statement": "Pain", "category": "direct_cost", "severity": 7, "frequency": "monthly", "estimated_cost_impact": "$X per month", "current_coping_mechanism": "Coping", "impact_if_unresolved": "Impact", "root_cause": "Cause"}
    ],
    "emotional_pains": [
        {"statement": "Pain", "category": "anxiety", "severity": 9, "frequency": "situational", "trigger_situations": ["situation"], "current_coping_mechanism": "Coping", "impact_if_unresolved": "Impact", "underlying_fear": "Fear"}
    ],
    "forces_analysis": {
        "push_factors": [{"factor": "Push", "strength": 8}],
        "pull_factors": [{"factor": "Pull", "strength": 7}],
        "habit_factors": [{"factor": "Habit", "strength": 6}],
        "anxiety_factors": [{"factor": "Anxiety", "strength": 7}],
        "net_force_assessment": "Whether the forces favor change",
        "recommended_focus": "Where marketing should focus",
        "key_trigger_moments": ["moment"]
    },
    "pain_priority_ranking": [
        {"pain": "Pain", "dimension": "functional|financial|emotional", "priority_score": 95, "rationale": "Why first"}
    ],
    "messaging_implications": ["implication"]
}
` + "```"

// AnalyzePains builds the pain taxonomy for one persona. An unparseable
// answer produces an empty taxonomy.
func (r *Runner) AnalyzePains(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona) (*research.PainTaxonomy, error) {
	if profile == nil {
		return nil, fmt.Errorf("pain analysis requires a company profile")
	}
	r.logger.Info("building pain taxonomy", zap.String("persona", persona.Name))

	resp, err := r.llm.Analyze(ctx, llm.AnalysisRequest{
		Prompt:       buildPainsPrompt(profile, persona),
		Model:        r.analysisModel,
		SystemPrompt: painsSystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	data, perr := extract.Object(resp.Content)
	if perr != nil {
		r.logger.Error("failed to parse pain taxonomy answer", zap.String("persona", persona.Name), zap.Error(perr))
		data = extract.Fields{}
	}
	pt := parsePainTaxonomy(data, persona)
	r.logger.Info("pain taxonomy complete", zap.String("persona", persona.Name), zap.Int("pains", pt.Total()))
	return pt, nil
}

func buildPainsPrompt(p *research.CompanyProfile, persona research.Persona) string {
	solution := strings.Join(p.ProductNames(), ", ")
	if solution == "" {
		solution = p.Industry
	}

	chars := []string{
		"Decision Style: " + string(persona.Psychographics.DecisionStyle),
		"Risk Tolerance: " + string(persona.Psychographics.RiskTolerance),
	}
	if titles := persona.Demographics.JobTitles; len(titles) > 0 {
		chars = append(chars, "Job Titles: "+strings.Join(head(titles, 3), ", "))
	}
	if persona.Demographics.CompanySize != nil {
		chars = append(chars, "Company Size: "+*persona.Demographics.CompanySize)
	}
	if fears := persona.Psychographics.Fears; len(fears) > 0 {
		chars = append(chars, "Key Fears: "+strings.Join(head(fears, 3), ", "))
	}

	pains := make([]string, 0, len(persona.PainPoints))
	for _, pp := range persona.PainPoints {
		pains = append(pains, fmt.Sprintf("%s (%s, Severity: %d/10)", pp.Statement, pp.Category, pp.Severity))
	}
	motivations := make([]string, 0, len(persona.Motivations))
	for _, m := range persona.Motivations {
		motivations = append(motivations, fmt.Sprintf("%s (%s, Intensity: %d/10)", m.Statement, m.Category, m.Intensity))
	}

	return fmt.Sprintf(painsPrompt,
		p.Name, p.Industry, solution,
		bullets(p.StatedValuePropositions, notSpecified),
		persona.Name, persona.OneLiner,
		bullets(chars, notSpecified),
		bullets(pains, "None previously identified"),
		bullets(motivations, "None specified"))
}

func parsePainTaxonomy(f extract.Fields, persona research.Persona) *research.PainTaxonomy {
	pt := &research.PainTaxonomy{
		PersonaName:           persona.Name,
		Functional:            []research.DetailedPain{},
		Financial:             []research.DetailedPain{},
		Emotional:             []research.DetailedPain{},
		PriorityRanking:       rawObjects(f.Objects("pain_priority_ranking")),
		MessagingImplications: f.Strings("messaging_implications"),
	}
	for _, p := range f.Objects("functional_pains") {
		d := basePain(p, "inefficiency")
		d.RootCause = p.OptString("root_cause")
		d.FiveWhysDepth = p.OptString("five_whys_depth")
		pt.Functional = append(pt.Functional, d)
	}
	for _, p := range f.Objects("financial_pains") {
		d := basePain(p, "direct_cost")
		d.RootCause = p.OptString("root_cause")
		d.EstimatedCostImpact = p.OptString("estimated_cost_impact")
		pt.Financial = append(pt.Financial, d)
	}
	for _, p := range f.Objects("emotional_pains") {
		d := basePain(p, "anxiety")
		d.TriggerSituations = p.Strings("trigger_situations")
		d.UnderlyingFear = p.OptString("underlying_fear")
		pt.Emotional = append(pt.Emotional, d)
	}

	if forces := f.Object("forces_analysis"); len(forces) > 0 {
		pt.Forces = &research.Forces{
			PushFactors:        factors(forces, "push_factors"),
			PullFactors:        factors(forces, "pull_factors"),
			HabitFactors:       factors(forces, "habit_factors"),
			AnxietyFactors:     factors(forces, "anxiety_factors"),
			NetForceAssessment: forces.OptString("net_force_assessment"),
			RecommendedFocus:   forces.OptString("recommended_focus"),
			KeyTriggerMoments:  forces.Strings("key_trigger_moments"),
		}
	}
	return pt
}

func basePain(p extract.Fields, category string) research.DetailedPain {
	return research.DetailedPain{
		Statement:              p.String("statement", ""),
		Category:               p.String("category", category),
		Severity:               p.IntIn("severity", 5, 1, 10),
		Frequency:              p.OptString("frequency"),
		CurrentCopingMechanism: p.OptString("current_coping_mechanism"),
		ImpactIfUnresolved:     p.OptString("impact_if_unresolved"),
	}
}

// factors reads the "factor" text of each entry. Plain strings are accepted
// as well since models sometimes flatten the list.
func factors(f extract.Fields, key string) []string {
	out := []string{}
	for _, obj := range f.Objects(key) {
		out = append(out, obj.String("factor", ""))
	}
	if len(out) == 0 {
		out = f.Strings(key)
	}
	return out
}
