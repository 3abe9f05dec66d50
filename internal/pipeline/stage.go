package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one of the five pipeline stages.
type Stage string

const (
	StageIngestion Stage = "data_ingestion"
	StageAudience  Stage = "audience_research"
	StageValueMap  Stage = "usp_extraction"
	StagePains     Stage = "pain_taxonomy"
	StageJourney   Stage = "journey_mapping"
)

// Stages in execution order. The last three run once per persona.
var (
	allStages     = []Stage{StageIngestion, StageAudience, StageValueMap, StagePains, StageJourney}
	perItemStages = []Stage{StageValueMap, StagePains, StageJourney}
)

var (
	ErrUnknownStage = errors.New("unknown stage")
	ErrMissingInput = errors.New("missing stage input")
)

// ParseStage resolves a stage identifier.
func ParseStage(id string) (Stage, error) {
	for _, s := range allStages {
		if string(s) == id {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStage, id)
}

// PerItem reports whether s runs once per persona.
func (s Stage) PerItem() bool {
	for _, p := range perItemStages {
		if p == s {
			return true
		}
	}
	return false
}

// StageKey identifies a stage execution. Item is the 1-based persona index
// for per-item stages and zero otherwise.
type StageKey struct {
	Stage Stage
	Item  int
}

func (k StageKey) String() string {
	if k.Item == 0 {
		return string(k.Stage)
	}
	return fmt.Sprintf("%s_%d", k.Stage, k.Item)
}

type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// StageOutcome is the latest state of one stage execution. Payload is set
// on completion and Err on failure.
type StageOutcome struct {
	Status  Status         `json:"status"`
	Payload map[string]any `json:"data,omitempty"`
	Err     string         `json:"error,omitempty"`
}
