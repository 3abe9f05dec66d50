package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

func strPtr(s string) *string { return &s }

func sampleResult() pipeline.Result {
	return pipeline.Result{
		Request: research.ClientRequest{
			ClientName:    "Acme",
			WebsiteURL:    "https://acme.example",
			Industry:      "SaaS",
			BusinessModel: research.BusinessModelB2B,
			NumICPs:       1,
		},
		Profile: &research.CompanyProfile{
			Name:          "Acme",
			WebsiteURL:    "https://acme.example",
			Industry:      "SaaS",
			BusinessModel: research.BusinessModelB2B,
			Overview:      "Acme builds workflow tools.",
			ProductsServices: []research.ProductService{
				{Name: "Flow", Description: "Workflow engine", Features: []string{"automation"}},
			},
			Competitors: []research.Competitor{
				{Name: "Globex", KeyDifferentiators: []string{"cheap", "big", "old", "slow"}},
			},
		},
		Items: []research.PersonaBundle{
			{
				Persona: research.Persona{
					Name:            "Ops Olivia",
					OneLiner:        "Runs operations at a mid-size firm",
					SegmentPriority: "high",
					Psychographics: research.Psychographics{
						DecisionStyle: research.DecisionAnalytical,
						RiskTolerance: research.RiskModerate,
					},
					PainPoints: []research.PainPoint{{Statement: "Manual reports", Severity: 8}},
				},
				ValueMap: &research.ValueMap{
					ValuePropositionStatement: "Flow removes manual work",
					FitScore:                  82,
				},
				PainTaxonomy: &research.PainTaxonomy{
					Functional: []research.DetailedPain{{Statement: "Copy | paste", Category: "inefficiency", Severity: 7}},
					Forces: &research.Forces{
						PushFactors:      []string{"a", "b", "c", "d"},
						RecommendedFocus: strPtr("Reduce anxiety"),
					},
				},
				JourneyMap: &research.JourneyMap{
					Awareness: &research.JourneyStage{
						Objective:    "Get noticed",
						ContentIdeas: []research.ContentIdea{{Title: "Checklist", Format: "ebook"}},
					},
				},
			},
		},
		Usage: usage.Summary{
			TotalCost:     0.12,
			TotalRequests: 7,
			TotalTokens:   usage.TokenTotals{Input: 10000, Output: 2345, Total: 12345},
			ByModel: map[string]usage.ModelUsage{
				"openai/gpt-4o":        {TotalTokens: 2345, Cost: 0.1, Requests: 5},
				"perplexity/sonar-pro": {TotalTokens: 10000, Cost: 0.02, Requests: 2},
			},
		},
	}
}

func TestMarkdownSections(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC)
	md := Markdown(sampleResult(), now)

	assert.True(t, strings.HasPrefix(md, "# Audience Research Report: Acme\n"))
	assert.Contains(t, md, "*Generated: 2026-03-04 09:05*")

	order := []string{
		"## Table of Contents",
		"## Executive Summary",
		"## Company Profile",
		"## Ideal Customer Profiles",
		"## Value Propositions",
		"## Pain Point Analysis",
		"## Customer Journey Maps",
		"## Cost Summary",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(md, heading)
		require.Greater(t, idx, last, heading)
		last = idx
	}

	assert.Contains(t, md, "- **1 High-Priority Segments** for targeting")
	assert.Contains(t, md, "  - Differentiators: cheap, big, old")
	assert.Contains(t, md, "> Flow removes manual work")
	assert.Contains(t, md, "**Fit Score:** 82/100")
	assert.Contains(t, md, "| Copy \\| paste | inefficiency | 7/10 |")
	assert.Contains(t, md, "**Recommended Focus:** Reduce anxiety")
	assert.NotContains(t, md, "- d\n")
	assert.Contains(t, md, "#### Stage: Awareness")
	assert.Contains(t, md, "**Checklist** (ebook)")
	assert.NotContains(t, md, "Stage: Consideration")
}

func TestMarkdownCostSummary(t *testing.T) {
	md := Markdown(sampleResult(), time.Now())

	assert.Contains(t, md, "**Total Cost:** $0.1200")
	assert.Contains(t, md, "**Total Tokens:** 12,345")
	gpt := strings.Index(md, "| gpt-4o | 5 | 2,345 | $0.1000 |")
	sonar := strings.Index(md, "| sonar-pro | 2 | 10,000 | $0.0200 |")
	require.NotEqual(t, -1, gpt)
	require.NotEqual(t, -1, sonar)
	assert.Less(t, gpt, sonar)
}

func TestMarkdownMissingAnalyses(t *testing.T) {
	res := pipeline.Result{
		Request: research.ClientRequest{ClientName: "Acme"},
		Error:   "data_ingestion: upstream down",
	}
	md := Markdown(res, time.Now())

	assert.Contains(t, md, "> **Run aborted:** data_ingestion: upstream down")
	assert.Contains(t, md, "*Company profile not available.*")
	assert.Contains(t, md, "*No ICPs generated.*")
	assert.Contains(t, md, "*Value propositions not analyzed.*")
	assert.Contains(t, md, "*Pain taxonomy not analyzed.*")
	assert.Contains(t, md, "*Journey maps not generated.*")
	assert.NotContains(t, md, "### Usage by Model")
}
