// Package report renders a finished pipeline result as a Markdown document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

var tableOfContents = []string{
	"Executive Summary",
	"Company Profile",
	"Ideal Customer Profiles",
	"Value Propositions",
	"Pain Point Analysis",
	"Customer Journey Maps",
	"Cost Summary",
}

// Markdown renders res. now stamps the generation time.
func Markdown(res pipeline.Result, now time.Time) string {
	w := &writer{}
	w.line("# Audience Research Report: %s", res.Request.ClientName)
	w.line("")
	w.line("*Generated: %s*", now.Format("2006-01-02 15:04"))
	w.line("")
	w.line("## Table of Contents")
	w.line("")
	for i, title := range tableOfContents {
		w.line("%d. [%s](#%s)", i+1, title, anchor(title))
	}
	w.line("")

	if res.Error != "" {
		w.line("> **Run aborted:** %s", res.Error)
		w.line("")
	}

	executiveSummary(w, res)
	companySection(w, res.Profile)
	personaSection(w, res.Items)
	valueSection(w, res.Items)
	painSection(w, res.Items)
	journeySection(w, res.Items)
	costSection(w, res.Usage)
	return w.String()
}

type writer struct {
	strings.Builder
}

func (w *writer) line(format string, args ...any) {
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		fmt.Fprintf(w, format, args...)
	}
	w.WriteByte('\n')
}

// list writes "- label: a, b" when items is non-empty.
func (w *writer) list(label string, items []string) {
	if len(items) > 0 {
		w.line("- **%s:** %s", label, strings.Join(items, ", "))
	}
}

func (w *writer) opt(label string, v *string) {
	if v != nil && *v != "" {
		w.line("- **%s:** %s", label, *v)
	}
}

func anchor(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func executiveSummary(w *writer, res pipeline.Result) {
	req := res.Request
	w.line("## Executive Summary")
	w.line("")
	w.line("This report presents audience research for **%s**, a %s company in the %s industry.", req.ClientName, req.BusinessModel, req.Industry)
	if res.Profile != nil && res.Profile.Overview != "" {
		w.line("")
		w.line("%s", res.Profile.Overview)
	}
	w.line("")
	w.line("### Key Findings")
	w.line("")
	w.line("- **%d Ideal Customer Profiles** identified", len(res.Items))
	high := 0
	for _, item := range res.Items {
		if item.Persona.SegmentPriority == "high" {
			high++
		}
	}
	if high > 0 {
		w.line("- **%d High-Priority Segments** for targeting", high)
	}
	if len(res.Items) > 0 {
		w.line("")
		w.line("**Identified ICPs:**")
		w.line("")
		for _, item := range res.Items {
			p := item.Persona
			w.line("- **%s** (%s): %s", p.Name, p.SegmentPriority, p.OneLiner)
		}
	}
	w.line("")
}

func companySection(w *writer, p *research.CompanyProfile) {
	w.line("## Company Profile")
	w.line("")
	if p == nil {
		w.line("*Company profile not available.*")
		w.line("")
		return
	}
	w.line("### %s", p.Name)
	w.line("")
	w.line("**Website:** %s", p.WebsiteURL)
	w.line("")
	w.line("**Industry:** %s", p.Industry)
	w.line("")
	w.line("**Business Model:** %s", p.BusinessModel)
	w.line("")
	if p.Overview != "" {
		w.line("%s", p.Overview)
		w.line("")
	}

	if len(p.ProductsServices) > 0 {
		w.line("### Products & Services")
		w.line("")
		for _, ps := range p.ProductsServices {
			w.line("#### %s", ps.Name)
			w.line("")
			w.line("%s", ps.Description)
			w.line("")
			if len(ps.Features) > 0 {
				w.line("**Features:**")
				for _, f := range ps.Features {
					w.line("- %s", f)
				}
				w.line("")
			}
			if len(ps.UniqueAspects) > 0 {
				w.line("**Unique Aspects:**")
				for _, u := range ps.UniqueAspects {
					w.line("- %s", u)
				}
				w.line("")
			}
		}
	}

	if len(p.StatedValuePropositions) > 0 {
		w.line("### Stated Value Propositions")
		w.line("")
		for _, vp := range p.StatedValuePropositions {
			w.line("- %s", vp)
		}
		w.line("")
	}

	if len(p.Competitors) > 0 {
		w.line("### Competitive Landscape")
		w.line("")
		for _, c := range head(p.Competitors, 5) {
			w.line("- **%s**", c.Name)
			if c.Description != nil && *c.Description != "" {
				w.line("  - %s", *c.Description)
			}
			if len(c.KeyDifferentiators) > 0 {
				w.line("  - Differentiators: %s", strings.Join(head(c.KeyDifferentiators, 3), ", "))
			}
		}
		w.line("")
	}
}

func personaSection(w *writer, items []research.PersonaBundle) {
	w.line("## Ideal Customer Profiles")
	w.line("")
	if len(items) == 0 {
		w.line("*No ICPs generated.*")
		w.line("")
		return
	}
	for i, item := range items {
		p := item.Persona
		w.line("### ICP %d: %s", i+1, p.Name)
		w.line("")
		w.line("**Priority:** %s", strings.ToUpper(p.SegmentPriority))
		w.line("")
		if p.OneLiner != "" {
			w.line("*%s*", p.OneLiner)
			w.line("")
		}

		d := p.Demographics
		w.line("#### Demographics/Firmographics")
		w.line("")
		w.opt("Company Size", d.CompanySize)
		w.list("Job Titles", d.JobTitles)
		w.list("Industries", d.IndustryVerticals)
		w.opt("Geography", d.GeographicFocus)
		w.opt("Budget Range", d.BudgetRange)
		w.line("")

		ps := p.Psychographics
		w.line("#### Psychographics")
		w.line("")
		w.line("- **Decision Style:** %s", ps.DecisionStyle)
		w.line("- **Risk Tolerance:** %s", ps.RiskTolerance)
		w.list("Core Values", ps.CoreValues)
		w.list("Aspirations", ps.Aspirations)
		w.list("Key Fears", ps.Fears)
		w.line("")

		b := p.Behavioral
		w.line("#### Behavioral Profile")
		w.line("")
		w.list("Research Channels", b.ResearchChannels)
		w.opt("Decision Timeline", b.DecisionTimeline)
		w.list("Content Preferences", b.ContentPreferences)
		w.list("Current Solutions", b.CurrentSolutions)
		w.line("")

		if len(p.Motivations) > 0 {
			w.line("#### Key Motivations")
			w.line("")
			for _, m := range head(p.Motivations, 5) {
				w.line("- %s *(Intensity: %d/10)*", m.Statement, m.Intensity)
			}
			w.line("")
		}
		if len(p.PainPoints) > 0 {
			w.line("#### Key Pain Points")
			w.line("")
			for _, pp := range head(p.PainPoints, 5) {
				w.line("- %s *(Severity: %d/10)*", pp.Statement, pp.Severity)
			}
			w.line("")
		}
		if p.Narrative != "" {
			w.line("#### Detailed Profile")
			w.line("")
			w.line("%s", p.Narrative)
			w.line("")
		}
		w.line("---")
		w.line("")
	}
}

func valueSection(w *writer, items []research.PersonaBundle) {
	w.line("## Value Propositions")
	w.line("")
	written := 0
	for _, item := range items {
		vm := item.ValueMap
		if vm == nil {
			continue
		}
		written++
		w.line("### Value Proposition for %s", item.Persona.Name)
		w.line("")
		if vm.ValuePropositionStatement != "" {
			w.line("> %s", vm.ValuePropositionStatement)
			w.line("")
		}
		if vm.FitScore > 0 {
			w.line("**Fit Score:** %s/100", humanize.Ftoa(vm.FitScore))
			w.line("")
		}
		if len(vm.PainRelievers) > 0 {
			w.line("#### Pain Relievers")
			w.line("")
			for _, pr := range head(vm.PainRelievers, 5) {
				w.line("**%s**", pr.PainAddressed)
				w.line("- *Feature:* %s", pr.FeatureOrCapability)
				w.line("- *How:* %s", pr.HowRelieved)
				w.line("")
			}
		}
		if len(vm.GainCreators) > 0 {
			w.line("#### Gain Creators")
			w.line("")
			for _, gc := range head(vm.GainCreators, 5) {
				w.line("**%s**", gc.GainCreated)
				w.line("- *Feature:* %s", gc.FeatureOrCapability)
				w.line("- *How:* %s", gc.HowCreated)
				w.line("")
			}
		}
		if len(vm.UniqueDifferentiators) > 0 {
			w.line("#### Unique Differentiators")
			w.line("")
			for _, d := range vm.UniqueDifferentiators {
				w.line("- %s", d)
			}
			w.line("")
		}
		w.line("---")
		w.line("")
	}
	if written == 0 {
		w.line("*Value propositions not analyzed.*")
		w.line("")
	}
}

func painTable(w *writer, title string, pains []research.DetailedPain) {
	if len(pains) == 0 {
		return
	}
	w.line("#### %s", title)
	w.line("")
	w.line("| Pain | Category | Severity |")
	w.line("|------|----------|----------|")
	for _, p := range head(pains, 7) {
		w.line("| %s | %s | %d/10 |", cell(p.Statement), cell(p.Category), p.Severity)
	}
	w.line("")
}

// cell keeps free text from breaking a table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func painSection(w *writer, items []research.PersonaBundle) {
	w.line("## Pain Point Analysis")
	w.line("")
	written := 0
	for _, item := range items {
		pt := item.PainTaxonomy
		if pt == nil {
			continue
		}
		written++
		w.line("### Pain Taxonomy for %s", item.Persona.Name)
		w.line("")
		painTable(w, "Functional Pain Points", pt.Functional)
		painTable(w, "Financial Pain Points", pt.Financial)
		painTable(w, "Emotional Pain Points", pt.Emotional)

		if f := pt.Forces; f != nil {
			w.line("#### Forces of Progress Analysis")
			w.line("")
			forces := []struct {
				label   string
				factors []string
			}{
				{"**Push Factors** (away from status quo):", f.PushFactors},
				{"**Pull Factors** (toward new solution):", f.PullFactors},
				{"**Habit Factors** (resistance to change):", f.HabitFactors},
				{"**Anxiety Factors** (fear of new):", f.AnxietyFactors},
			}
			for _, group := range forces {
				if len(group.factors) == 0 {
					continue
				}
				w.line("%s", group.label)
				for _, factor := range head(group.factors, 3) {
					w.line("- %s", factor)
				}
				w.line("")
			}
			if f.NetForceAssessment != nil {
				w.line("**Assessment:** %s", *f.NetForceAssessment)
				w.line("")
			}
			if f.RecommendedFocus != nil {
				w.line("**Recommended Focus:** %s", *f.RecommendedFocus)
				w.line("")
			}
		}
		w.line("---")
		w.line("")
	}
	if written == 0 {
		w.line("*Pain taxonomy not analyzed.*")
		w.line("")
	}
}

func journeySection(w *writer, items []research.PersonaBundle) {
	w.line("## Customer Journey Maps")
	w.line("")
	written := 0
	for _, item := range items {
		jm := item.JourneyMap
		if jm == nil {
			continue
		}
		written++
		w.line("### Journey Map for %s", item.Persona.Name)
		w.line("")
		if jm.OverallTimeline != nil {
			w.line("**Overall Timeline:** %s", *jm.OverallTimeline)
			w.line("")
		}
		for _, named := range jm.Stages() {
			st := named.Stage
			if st == nil {
				continue
			}
			w.line("#### Stage: %s", strings.ToUpper(named.ID[:1])+named.ID[1:])
			w.line("")
			w.line("**Objective:** %s", st.Objective)
			w.line("")
			if len(st.EmotionalState) > 0 {
				w.line("**Emotional State:** %s", strings.Join(st.EmotionalState, ", "))
				w.line("")
			}
			if len(st.KeyQuestions) > 0 {
				w.line("**Key Questions:**")
				for _, q := range head(st.KeyQuestions, 5) {
					w.line("- %s", q)
				}
				w.line("")
			}
			if len(st.ContentThemes) > 0 {
				w.line("**Content Themes:**")
				for _, t := range head(st.ContentThemes, 5) {
					w.line("- %s", t)
				}
				w.line("")
			}
			if len(st.ContentIdeas) > 0 {
				w.line("**Content Ideas:**")
				w.line("")
				for _, idea := range head(st.ContentIdeas, 5) {
					w.line("**%s** (%s)", idea.Title, idea.Format)
					w.opt("Hook", idea.Hook)
					w.opt("Message", idea.KeyMessage)
					w.opt("CTA", idea.CTA)
					w.line("")
				}
			}
			if len(st.PreferredChannels) > 0 {
				w.line("**Channels:** %s", strings.Join(st.PreferredChannels, ", "))
				w.line("")
			}
			if len(st.KPIs) > 0 {
				w.line("**KPIs:** %s", strings.Join(st.KPIs, ", "))
				w.line("")
			}
		}
		w.line("---")
		w.line("")
	}
	if written == 0 {
		w.line("*Journey maps not generated.*")
		w.line("")
	}
}

func costSection(w *writer, s usage.Summary) {
	w.line("## Cost Summary")
	w.line("")
	w.line("**Total Cost:** $%.4f", s.TotalCost)
	w.line("")
	w.line("**Total Requests:** %d", s.TotalRequests)
	w.line("")
	w.line("**Input Tokens:** %s", humanize.Comma(int64(s.TotalTokens.Input)))
	w.line("**Output Tokens:** %s", humanize.Comma(int64(s.TotalTokens.Output)))
	w.line("**Total Tokens:** %s", humanize.Comma(int64(s.TotalTokens.Total)))
	w.line("")
	if len(s.ByModel) == 0 {
		return
	}

	models := make([]string, 0, len(s.ByModel))
	for id := range s.ByModel {
		models = append(models, id)
	}
	sort.Strings(models)
	w.line("### Usage by Model")
	w.line("")
	w.line("| Model | Requests | Tokens | Cost |")
	w.line("|-------|----------|--------|------|")
	for _, id := range models {
		m := s.ByModel[id]
		short := id[strings.LastIndex(id, "/")+1:]
		w.line("| %s | %d | %s | $%.4f |", short, m.Requests, humanize.Comma(int64(m.TotalTokens)), m.Cost)
	}
	w.line("")
}
