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

const companyResearchPrompt = `You are a business intelligence researcher building a marketing-strategy brief on a company.

Research this company thoroughly:

**Company Name:** %s
**Website:** %s
**Industry:** %s
**Business Model:** %s
%s
%s
%s
Cover the company overview (history, mission, vision, values, size, markets), every major product or service (description, features, audience, pricing, unique aspects), stated value propositions and promised outcomes, the audience they claim to serve, brand voice and messaging, competitive positioning, and recurring content themes.

Base the brief on the website and other public sources. Return your findings as JSON in exactly this shape:

` + "```json" + `
{
    "name": "Company Name",
    "overview": "One paragraph company overview",
    "industry": "%s",
    "business_model": "%s",
    "founding_story": "Founding story if known",
    "mission_statement": "Mission statement if known",
    "vision_statement": "Vision statement if known",
    "core_values": ["value"],
    "products_services": [
        {
            "name": "Product or service name",
            "description": "Description",
            "features": ["feature"],
            "target_audience": "Who it is for",
            "unique_aspects": ["unique aspect"]
        }
    ],
    "stated_value_propositions": ["value proposition"],
    "stated_target_audience": "Who they say they serve",
    "brand_voice": {
        "tone": "formal|casual|technical|friendly",
        "key_themes": ["theme"],
        "emotional_appeals": ["appeal"]
    },
    "competitors": [
        {"name": "Competitor", "description": "Description", "key_differentiators": ["difference"]}
    ],
    "content_themes": ["theme"]
}
` + "```"

const competitorResearchPrompt = `Research the competitive landscape for this company:

**Company:** %s
**Industry:** %s
**Website:** %s
%s
Identify direct competitors, indirect competitors solving the same problem differently, and market leaders. For each give the website, offering, strengths, differentiators, audience, pricing approach and market position. Then list underserved segments, common complaints about existing solutions and emerging market trends.

Return JSON in exactly this shape:

` + "```json" + `
{
    "direct_competitors": [
        {
            "name": "Competitor",
            "website": "URL",
            "description": "Description",
            "key_strengths": ["strength"],
            "key_differentiators": ["difference"],
            "target_audience": "Who they serve",
            "pricing_approach": "Pricing model",
            "market_position": "Leader|Challenger|Niche"
        }
    ],
    "indirect_competitors": [
        {"name": "Name", "description": "Description", "alternative_solution": "What they offer instead"}
    ],
    "market_gaps": ["gap"],
    "market_trends": ["trend"],
    "common_complaints": ["complaint"]
}
` + "```"

// Ingest researches the company and its competitors and folds both answers
// into a CompanyProfile. The raw map keeps each decoded answer, or the raw
// text plus parse error when decoding failed.
func (r *Runner) Ingest(ctx context.Context, req research.ClientRequest) (*research.CompanyProfile, map[string]any, error) {
	r.logger.Info("starting data ingestion", zap.String("client", req.ClientName))
	raw := make(map[string]any, 3)

	var excerpt string
	if r.snapshot != nil {
		text, err := r.snapshot.Fetch(ctx, req.WebsiteURL)
		if err != nil {
			r.logger.Warn("site snapshot failed", zap.String("url", req.WebsiteURL), zap.Error(err))
		} else if text != "" {
			excerpt = text
			raw["site_snapshot"] = text
		}
	}

	company, companyOK, err := r.researchObject(ctx, companyPrompt(req, excerpt))
	if err != nil {
		return nil, raw, fmt.Errorf("company research: %w", err)
	}
	raw["company_research"] = company.Raw()

	competitors, _, err := r.researchObject(ctx, competitorPrompt(req))
	if err != nil {
		return nil, raw, fmt.Errorf("competitor research: %w", err)
	}
	raw["competitor_research"] = competitors.Raw()

	var profile *research.CompanyProfile
	if !companyOK {
		r.logger.Warn("company research unparseable, using minimal profile", zap.String("client", req.ClientName))
		profile = fallbackProfile(req)
	} else {
		profile = buildProfile(req, company, competitors)
	}
	r.logger.Info("data ingestion complete", zap.String("company", profile.Name))
	return profile, raw, nil
}

// researchObject runs one research query. A parse failure is not an error:
// the returned Fields hold the raw text and parse error and ok is false.
func (r *Runner) researchObject(ctx context.Context, prompt string) (extract.Fields, bool, error) {
	resp, err := r.llm.Research(ctx, llm.ResearchRequest{Query: prompt, Model: r.researchModel})
	if err != nil {
		return nil, false, err
	}
	fields, perr := extract.Object(resp.Content)
	if perr != nil {
		r.logger.Warn("failed to parse research answer", zap.Error(perr))
		return extract.Fields(extract.Failure(perr, resp.Content)), false, nil
	}
	return fields, true, nil
}

func companyPrompt(req research.ClientRequest, excerpt string) string {
	var urls strings.Builder
	if req.AboutPageURL != "" {
		fmt.Fprintf(&urls, "\n**About Page:** %s", req.AboutPageURL)
	}
	if req.ProductsServicesURL != "" {
		fmt.Fprintf(&urls, "\n**Products/Services Page:** %s", req.ProductsServicesURL)
	}
	for _, u := range req.AdditionalURLs {
		fmt.Fprintf(&urls, "\n**Additional URL:** %s", u)
	}
	urlSection := section("Additional Pages to Research", urls.String())

	contextSection := ""
	if req.AdditionalContext != "" {
		contextSection = section("Additional Context", "\n"+req.AdditionalContext)
	}
	if req.TargetMarket != "" {
		contextSection = strings.TrimSpace(contextSection + "\n**Target Market:** " + req.TargetMarket)
	}

	snapshotSection := ""
	if excerpt != "" {
		snapshotSection = section("Homepage Excerpt", "\n"+excerpt)
	}

	bm := string(req.BusinessModel)
	return fmt.Sprintf(companyResearchPrompt,
		req.ClientName, req.WebsiteURL, req.Industry, bm,
		urlSection, contextSection, snapshotSection,
		req.Industry, bm)
}

func competitorPrompt(req research.ClientRequest) string {
	known := ""
	if req.KnownCompetitors != "" {
		known = section("Known Competitors (verify and expand)", "\n"+req.KnownCompetitors)
	}
	return fmt.Sprintf(competitorResearchPrompt, req.ClientName, req.Industry, req.WebsiteURL, known)
}

func buildProfile(req research.ClientRequest, company, competitorData extract.Fields) *research.CompanyProfile {
	profile := &research.CompanyProfile{
		Name:                    company.String("name", req.ClientName),
		WebsiteURL:              req.WebsiteURL,
		Industry:                company.String("industry", req.Industry),
		BusinessModel:           parseBusinessModel(company.String("business_model", "")),
		Overview:                company.String("overview", ""),
		StatedValuePropositions: company.Strings("stated_value_propositions"),
		StatedTargetAudience:    company.OptString("stated_target_audience"),
		ContentThemes:           company.Strings("content_themes"),
		MarketGaps:              competitorData.Strings("market_gaps"),
		MarketTrends:            competitorData.Strings("market_trends"),
		FoundingStory:           company.OptString("founding_story"),
		MissionStatement:        company.OptString("mission_statement"),
		VisionStatement:         company.OptString("vision_statement"),
		CoreValues:              company.Strings("core_values"),
		ProductsServices:        []research.ProductService{},
		Competitors:             []research.Competitor{},
	}

	for _, ps := range company.Objects("products_services") {
		profile.ProductsServices = append(profile.ProductsServices, research.ProductService{
			Name:           ps.String("name", "Unknown"),
			Description:    ps.String("description", ""),
			Features:       ps.Strings("features"),
			TargetAudience: ps.OptString("target_audience"),
			UniqueAspects:  ps.Strings("unique_aspects"),
		})
	}

	voice := company.Object("brand_voice")
	profile.BrandVoice = research.BrandVoice{
		Tone:             voice.String("tone", ""),
		KeyThemes:        voice.Strings("key_themes"),
		EmotionalAppeals: voice.Strings("emotional_appeals"),
	}

	seen := make(map[string]struct{})
	for _, c := range company.Objects("competitors") {
		name := c.String("name", "Unknown")
		seen[name] = struct{}{}
		profile.Competitors = append(profile.Competitors, research.Competitor{
			Name:               name,
			Description:        c.OptString("description"),
			KeyDifferentiators: c.Strings("key_differentiators"),
		})
	}
	for _, c := range competitorData.Objects("direct_competitors") {
		name := c.String("name", "Unknown")
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		profile.Competitors = append(profile.Competitors, research.Competitor{
			Name:               name,
			Website:            c.OptString("website"),
			Description:        c.OptString("description"),
			KeyDifferentiators: c.Strings("key_differentiators"),
			TargetAudience:     c.OptString("target_audience"),
			MarketPosition:     c.OptString("market_position"),
		})
	}
	return profile
}

// parseBusinessModel reads the model's free-text label. Anything that is not
// clearly B2C or both defaults to B2B.
func parseBusinessModel(label string) research.BusinessModel {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "b2b") && strings.Contains(l, "b2c"):
		return research.BusinessModelBoth
	case strings.Contains(l, "b2c"):
		return research.BusinessModelB2C
	default:
		return research.BusinessModelB2B
	}
}

func fallbackProfile(req research.ClientRequest) *research.CompanyProfile {
	return &research.CompanyProfile{
		Name:                    req.ClientName,
		WebsiteURL:              req.WebsiteURL,
		Industry:                req.Industry,
		BusinessModel:           req.BusinessModel,
		Overview:                fmt.Sprintf("%s is a company in the %s industry.", req.ClientName, req.Industry),
		ProductsServices:        []research.ProductService{},
		StatedValuePropositions: []string{},
		Competitors:             []research.Competitor{},
		ContentThemes:           []string{},
		MarketGaps:              []string{},
		MarketTrends:            []string{},
		CoreValues:              []string{},
	}
}
