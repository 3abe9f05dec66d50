package pipeline

import (
	"time"

	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

// Result is the outcome of a run. Error is set only when the run aborted
// before any personas were analyzed; per-stage failures are reported in
// Outcomes and leave the matching bundle field nil.
type Result struct {
	RunID         string                   `json:"run_id"`
	Request       research.ClientRequest   `json:"client_request"`
	Profile       *research.CompanyProfile `json:"company_profile,omitempty"`
	Items         []research.PersonaBundle `json:"icps"`
	RawResearch   map[string]any           `json:"raw_research,omitempty"`
	Usage         usage.Summary            `json:"cost_summary"`
	Outcomes      map[string]StageOutcome  `json:"stage_outcomes"`
	ResearchModel string                   `json:"research_model"`
	AnalysisModel string                   `json:"analysis_model"`
	CreatedAt     time.Time                `json:"created_at"`
	Duration      time.Duration            `json:"duration_ns"`
	Error         string                   `json:"error,omitempty"`
}

// Failed reports whether the run aborted.
func (r Result) Failed() bool { return r.Error != "" }

// StageInput carries externally supplied upstream outputs for RunStage.
type StageInput struct {
	Request      research.ClientRequest   `json:"client_request"`
	Profile      *research.CompanyProfile `json:"company_profile,omitempty"`
	Persona      *research.Persona        `json:"icp,omitempty"`
	ValueMap     *research.ValueMap       `json:"value_proposition,omitempty"`
	PainTaxonomy *research.PainTaxonomy   `json:"pain_taxonomy,omitempty"`
}

// IngestionOutput is what RunStage returns for the ingestion stage.
type IngestionOutput struct {
	Profile     *research.CompanyProfile `json:"company_profile"`
	RawResearch map[string]any           `json:"raw_research"`
}
