package server

import (
	"time"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/budget"
	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/queue/streams"
	"github.com/mohammad-safakhou/resonance/internal/research"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// RunRequest is the POST /api/runs body: a client request plus optional
// per-run overrides.
type RunRequest struct {
	research.ClientRequest
	AnalysisModel string         `json:"analysis_model,omitempty"`
	Budget        *budget.Config `json:"budget,omitempty"`
}

// ModelsResponse lists the catalog split by role.
type ModelsResponse struct {
	Research        []config.ModelConfig `json:"research"`
	Analysis        []config.ModelConfig `json:"analysis"`
	DefaultResearch string               `json:"default_research"`
	DefaultAnalysis string               `json:"default_analysis"`
}

// StagesResponse describes the pipeline and the journey it maps.
type StagesResponse struct {
	Pipeline []config.StageDescriptor        `json:"pipeline"`
	Journey  []config.JourneyStageDescriptor `json:"journey"`
}

// OptionsResponse carries the request form choices.
type OptionsResponse struct {
	Industries     []string                 `json:"industries"`
	BusinessModels []research.BusinessModel `json:"business_models"`
	MinItems       int                      `json:"min_icps"`
	MaxItems       int                      `json:"max_icps"`
	DefaultItems   int                      `json:"default_icps"`
}

// RunState is the coarse lifecycle of a tracked run.
type RunState string

const (
	RunRunning  RunState = "running"
	RunComplete RunState = "complete"
	RunAborted  RunState = "aborted"
)

// RunStatus is the live view of one run held by the server.
type RunStatus struct {
	RunID      string                           `json:"run_id"`
	ClientName string                           `json:"client_name"`
	Subject    string                           `json:"subject,omitempty"`
	State      RunState                         `json:"state"`
	Outcomes   map[string]pipeline.StageOutcome `json:"stage_outcomes"`
	StartedAt  time.Time                        `json:"started_at"`
	FinishedAt *time.Time                       `json:"finished_at,omitempty"`
	Summary    *streams.RunSummary              `json:"summary,omitempty"`
}
