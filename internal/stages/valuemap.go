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

const valueMapPrompt = `You are a strategist who applies the Value Proposition Canvas to measure product-market fit.

## Company

**Company:** %s
**Industry:** %s

**Products/Services:**
%s

**Stated Value Propositions:**
%s

## Target ICP

**ICP Name:** %s
**Description:** %s

**Demographics:**
%s

**Psychographics:**
%s

**Key Motivations:**
%s

**Key Pain Points:**
%s

## Task

Map the company's offering onto this ICP. On the customer side list the functional, social and emotional jobs, the pains and the gains. On the value side list how each product fits, which pains it relieves and which gains it creates, each with a significance from 1 to 10. Then write a value proposition statement, score the fit from 0 to 100, and list unique differentiators, gaps and messaging recommendations.

Return JSON in exactly this shape:

` + "```json" + `
{
    "customer_jobs": {"functional": ["job"], "social": ["job"], "emotional": ["job"]},
    "customer_pains": [{"pain": "Pain", "severity": 8, "category": "obstacle|risk|negative_outcome|negative_emotion"}],
    "customer_gains": [{"gain": "Gain", "importance": 9, "type": "required|expected|desired|unexpected"}],
    "products_services_fit": [{"product": "Product", "jobs_addressed": ["job"], "relevance_score": 8}],
    "pain_relievers": [
        {"pain_addressed": "Pain", "feature_or_capability": "Feature", "how_relieved": "How", "relief_significance": 9}
    ],
    "gain_creators": [
        {"gain_created": "Gain", "feature_or_capability": "Feature", "how_created": "How", "creation_significance": 8}
    ],
    "value_proposition_statement": "For [ICP] who [situation], [Product] is a [category] that [benefit]. Unlike [alternatives], we [differentiator].",
    "fit_score": 85,
    "unique_differentiators": ["differentiator"],
    "gaps_weaknesses": ["gap"],
    "messaging_recommendations": ["recommendation"]
}
` + "```"

// MapValue builds the value proposition canvas for one persona. An
// unparseable answer produces an empty canvas with a zero fit score.
func (r *Runner) MapValue(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona) (*research.ValueMap, error) {
	if profile == nil {
		return nil, fmt.Errorf("value mapping requires a company profile")
	}
	r.logger.Info("mapping value proposition", zap.String("persona", persona.Name))

	resp, err := r.llm.Analyze(ctx, llm.AnalysisRequest{
		Prompt:       buildValueMapPrompt(profile, persona),
		Model:        r.analysisModel,
		SystemPrompt: valueMapSystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	data, perr := extract.Object(resp.Content)
	if perr != nil {
		r.logger.Error("failed to parse value map answer", zap.String("persona", persona.Name), zap.Error(perr))
		data = extract.Fields{}
	}
	vm := parseValueMap(data, persona)
	r.logger.Info("value map complete", zap.String("persona", persona.Name), zap.Float64("fit_score", vm.FitScore))
	return vm, nil
}

func buildValueMapPrompt(p *research.CompanyProfile, persona research.Persona) string {
	products := make([]string, 0, len(p.ProductsServices))
	for _, ps := range p.ProductsServices {
		features := "N/A"
		if len(ps.Features) > 0 {
			features = strings.Join(head(ps.Features, 5), ", ")
		}
		products = append(products, fmt.Sprintf("**%s**: %s\n  Features: %s", ps.Name, ps.Description, features))
	}

	d := persona.Demographics
	var demo []string
	if d.CompanySize != nil {
		demo = append(demo, "Company Size: "+*d.CompanySize)
	}
	if len(d.JobTitles) > 0 {
		demo = append(demo, "Job Titles: "+strings.Join(d.JobTitles, ", "))
	}
	if len(d.IndustryVerticals) > 0 {
		demo = append(demo, "Industries: "+strings.Join(d.IndustryVerticals, ", "))
	}
	if d.BudgetRange != nil {
		demo = append(demo, "Budget: "+*d.BudgetRange)
	}

	ps := persona.Psychographics
	psycho := []string{
		"Decision Style: " + string(ps.DecisionStyle),
		"Risk Tolerance: " + string(ps.RiskTolerance),
	}
	if len(ps.CoreValues) > 0 {
		psycho = append(psycho, "Values: "+strings.Join(ps.CoreValues, ", "))
	}
	if len(ps.Fears) > 0 {
		psycho = append(psycho, "Fears: "+strings.Join(ps.Fears, ", "))
	}
	if len(ps.Aspirations) > 0 {
		psycho = append(psycho, "Aspirations: "+strings.Join(ps.Aspirations, ", "))
	}

	motivations := make([]string, 0, 7)
	for _, m := range head(persona.Motivations, 7) {
		motivations = append(motivations, fmt.Sprintf("%s (Intensity: %d/10)", m.Statement, m.Intensity))
	}
	pains := make([]string, 0, 7)
	for _, pp := range head(persona.PainPoints, 7) {
		pains = append(pains, fmt.Sprintf("%s (Severity: %d/10)", pp.Statement, pp.Severity))
	}

	return fmt.Sprintf(valueMapPrompt,
		p.Name, p.Industry,
		bullets(products, notSpecified),
		bullets(p.StatedValuePropositions, notSpecified),
		persona.Name, persona.OneLiner,
		bullets(demo, notSpecified),
		bullets(psycho, notSpecified),
		bullets(motivations, notSpecified),
		bullets(pains, notSpecified))
}

func parseValueMap(f extract.Fields, persona research.Persona) *research.ValueMap {
	vm := &research.ValueMap{
		PersonaName:               persona.Name,
		CustomerJobs:              f.Object("customer_jobs").Raw(),
		CustomerPains:             rawObjects(f.Objects("customer_pains")),
		CustomerGains:             rawObjects(f.Objects("customer_gains")),
		ProductsServicesFit:       rawObjects(f.Objects("products_services_fit")),
		PainRelievers:             []research.PainReliever{},
		GainCreators:              []research.GainCreator{},
		ValuePropositionStatement: f.String("value_proposition_statement", ""),
		FitScore:                  f.Float("fit_score", 0),
		UniqueDifferentiators:     f.Strings("unique_differentiators"),
		GapsWeaknesses:            f.Strings("gaps_weaknesses"),
		MessagingRecommendations:  f.Strings("messaging_recommendations"),
	}
	for _, pr := range f.Objects("pain_relievers") {
		vm.PainRelievers = append(vm.PainRelievers, research.PainReliever{
			PainAddressed:       pr.String("pain_addressed", ""),
			FeatureOrCapability: pr.String("feature_or_capability", ""),
			HowRelieved:         pr.String("how_relieved", ""),
			Significance:        pr.IntIn("relief_significance", 5, 1, 10),
		})
	}
	for _, gc := range f.Objects("gain_creators") {
		vm.GainCreators = append(vm.GainCreators, research.GainCreator{
			GainCreated:         gc.String("gain_created", ""),
			FeatureOrCapability: gc.String("feature_or_capability", ""),
			HowCreated:          gc.String("how_created", ""),
			Significance:        gc.IntIn("creation_significance", 5, 1, 10),
		})
	}
	return vm
}

func rawObjects(items []extract.Fields) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, item.Raw())
	}
	return out
}
