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

const audiencePrompt = `You are a market researcher and customer strategist who builds psychographic buyer personas.

## Company Context

**Company:** %s
**Industry:** %s
**Business Model:** %s

**Company Overview:**
%s

**Products/Services:**
%s

**Stated Value Propositions:**
%s

**Stated Target Audience:**
%s

**Competitive Landscape:**
%s

**Market Trends:**
%s

## Task

Generate %d distinct Ideal Customer Profiles (ICPs). Each must be a meaningfully different segment, not a variation of another. For every ICP describe demographics or firmographics, psychographics (decision style, risk tolerance, values, aspirations, fears, status concerns, personality), buying behavior, 5-7 motivations with an intensity from 1 to 10, and 5-7 pain points with a severity from 1 to 10. Assign a segment priority; not every segment is high. Finish with a one-liner and a short narrative that brings the persona to life. Ground every profile in the company's actual offering.

Return a JSON array in exactly this shape:

` + "```json" + `
[
    {
        "icp_name": "Descriptive persona name",
        "one_liner": "Short tagline",
        "segment_priority": "high|medium|low",
        "demographics": {
            "company_size": "10-50 employees",
            "job_titles": ["title"],
            "seniority_level": "Director+",
            "industry_verticals": ["industry"],
            "geographic_focus": "North America",
            "budget_range": "$10,000 - $50,000/year",
            "age_range": "35-50",
            "income_range": "$100k-$200k",
            "education_level": "Bachelor's+"
        },
        "psychographics": {
            "decision_style": "analytical|intuitive|consensus|delegator",
            "risk_tolerance": "risk_averse|moderate|risk_seeking",
            "core_values": ["value"],
            "aspirations": ["aspiration"],
            "fears": ["fear"],
            "status_concerns": ["concern"],
            "personality_traits": ["trait"]
        },
        "behavioral": {
            "research_channels": ["channel"],
            "decision_timeline": "2-4 weeks",
            "decision_influencers": ["role"],
            "content_preferences": ["format"],
            "current_solutions": ["tool"],
            "purchase_triggers": ["trigger"],
            "objections": ["objection"]
        },
        "motivations": [
            {"statement": "What drives them", "category": "functional|social|emotional", "intensity": 8}
        ],
        "pain_points": [
            {"statement": "The pain", "category": "functional|financial|emotional", "severity": 9, "current_coping": "How they cope today"}
        ],
        "detailed_narrative": "Three or four sentences describing a day in their life."
    }
]
` + "```"

// GenerateAudience asks the analysis model for req.NumICPs personas. An
// unparseable answer yields no personas rather than an error.
func (r *Runner) GenerateAudience(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile) ([]research.Persona, error) {
	if profile == nil {
		return nil, fmt.Errorf("audience research requires a company profile")
	}
	r.logger.Info("generating personas", zap.String("company", profile.Name), zap.Int("count", req.NumICPs))

	resp, err := r.llm.Analyze(ctx, llm.AnalysisRequest{
		Prompt:       buildAudiencePrompt(req, profile),
		Model:        r.analysisModel,
		SystemPrompt: audienceSystemPrompt,
	})
	if err != nil {
		return nil, err
	}

	items, perr := extract.Array(resp.Content)
	if perr != nil {
		r.logger.Error("failed to parse persona answer", zap.Error(perr))
		return []research.Persona{}, nil
	}
	personas := make([]research.Persona, 0, len(items))
	for _, item := range items {
		personas = append(personas, r.parsePersona(item))
	}
	r.logger.Info("personas generated", zap.Int("count", len(personas)))
	return personas, nil
}

func buildAudiencePrompt(req research.ClientRequest, p *research.CompanyProfile) string {
	products := make([]string, 0, len(p.ProductsServices))
	for _, ps := range p.ProductsServices {
		products = append(products, fmt.Sprintf("**%s**: %s", ps.Name, ps.Description))
	}
	competitors := make([]string, 0, 5)
	for _, c := range head(p.Competitors, 5) {
		competitors = append(competitors, fmt.Sprintf("**%s**: %s", c.Name, deref(c.Description, "No description")))
	}
	return fmt.Sprintf(audiencePrompt,
		p.Name, p.Industry, p.BusinessModel,
		orDefault(p.Overview, notSpecified),
		bullets(products, notSpecified),
		bullets(p.StatedValuePropositions, notSpecified),
		deref(p.StatedTargetAudience, notSpecified),
		bullets(competitors, notSpecified),
		bullets(p.MarketTrends, notSpecified),
		req.NumICPs)
}

func (r *Runner) parsePersona(f extract.Fields) research.Persona {
	name := f.String("icp_name", "Unnamed ICP")

	demo := f.Object("demographics")
	psycho := f.Object("psychographics")
	behav := f.Object("behavioral")

	style, ok := research.ParseDecisionStyle(psycho.String("decision_style", ""))
	if !ok {
		r.logger.Warn("unknown persona label, using default",
			zap.String("persona", name),
			zap.String("field", "decision_style"),
			zap.String("label", psycho.String("decision_style", "")),
			zap.String("default", string(style)))
	}
	risk, ok := research.ParseRiskTolerance(psycho.String("risk_tolerance", ""))
	if !ok {
		r.logger.Warn("unknown persona label, using default",
			zap.String("persona", name),
			zap.String("field", "risk_tolerance"),
			zap.String("label", psycho.String("risk_tolerance", "")),
			zap.String("default", string(risk)))
	}

	persona := research.Persona{
		Name:            name,
		OneLiner:        f.String("one_liner", ""),
		SegmentPriority: strings.ToLower(f.String("segment_priority", "medium")),
		Demographics: research.Demographics{
			CompanySize:       demo.OptString("company_size"),
			JobTitles:         demo.Strings("job_titles"),
			SeniorityLevel:    demo.OptString("seniority_level"),
			IndustryVerticals: demo.Strings("industry_verticals"),
			GeographicFocus:   demo.OptString("geographic_focus"),
			BudgetRange:       demo.OptString("budget_range"),
			AgeRange:          demo.OptString("age_range"),
			IncomeRange:       demo.OptString("income_range"),
			EducationLevel:    demo.OptString("education_level"),
		},
		Psychographics: research.Psychographics{
			DecisionStyle:     style,
			RiskTolerance:     risk,
			CoreValues:        psycho.Strings("core_values"),
			Aspirations:       psycho.Strings("aspirations"),
			Fears:             psycho.Strings("fears"),
			StatusConcerns:    psycho.Strings("status_concerns"),
			PersonalityTraits: psycho.Strings("personality_traits"),
		},
		Behavioral: research.Behavioral{
			ResearchChannels:    behav.Strings("research_channels"),
			DecisionTimeline:    behav.OptString("decision_timeline"),
			DecisionInfluencers: behav.Strings("decision_influencers"),
			ContentPreferences:  behav.Strings("content_preferences"),
			CurrentSolutions:    behav.Strings("current_solutions"),
			PurchaseTriggers:    behav.Strings("purchase_triggers"),
			Objections:          behav.Strings("objections"),
		},
		Motivations: []research.Motivation{},
		PainPoints:  []research.PainPoint{},
		Narrative:   f.String("detailed_narrative", ""),
	}
	for _, m := range f.Objects("motivations") {
		persona.Motivations = append(persona.Motivations, research.Motivation{
			Statement: m.String("statement", ""),
			Category:  m.String("category", "functional"),
			Intensity: m.IntIn("intensity", 5, 1, 10),
		})
	}
	for _, p := range f.Objects("pain_points") {
		persona.PainPoints = append(persona.PainPoints, research.PainPoint{
			Statement:     p.String("statement", ""),
			Category:      p.String("category", "functional"),
			Severity:      p.IntIn("severity", 5, 1, 10),
			CurrentCoping: p.OptString("current_coping"),
		})
	}
	return persona
}
