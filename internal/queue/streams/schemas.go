package streams

import "fmt"

const (
	EventStageProgress = "stage.progress"
	EventRunCompleted  = "run.completed"
	PayloadV1          = "v1"
)

// Definition is one registered payload schema.
type Definition struct {
	EventType string
	Version   string
	Schema    []byte
}

var baseDefinitions = []Definition{
	{
		EventType: EventStageProgress,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["run_id", "stage_id", "status", "time"],
  "properties": {
    "run_id": {"type": "string", "minLength": 1},
    "stage_id": {"type": "string", "pattern": "^[a-z_]+(_[0-9]+)?$"},
    "status": {"type": "string", "enum": ["running", "complete", "error"]},
    "data": {"type": "object"},
    "error": {"type": "string"},
    "time": {"type": "string", "format": "date-time"}
  },
  "additionalProperties": false
}`),
	},
	{
		EventType: EventRunCompleted,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["run_id", "client_name", "items", "total_cost", "total_tokens", "total_requests"],
  "properties": {
    "run_id": {"type": "string", "minLength": 1},
    "client_name": {"type": "string"},
    "items": {"type": "integer", "minimum": 0},
    "failed_stages": {"type": "array", "items": {"type": "string"}},
    "total_cost": {"type": "number", "minimum": 0},
    "total_tokens": {"type": "integer", "minimum": 0},
    "total_requests": {"type": "integer", "minimum": 0},
    "error": {"type": "string"}
  },
  "additionalProperties": true
}`),
	},
}

func BaseDefinitions() []Definition {
	defs := make([]Definition, len(baseDefinitions))
	copy(defs, baseDefinitions)
	return defs
}

// RegisterBaseSchemas loads the progress event schemas into reg.
func RegisterBaseSchemas(reg *SchemaRegistry) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, def := range baseDefinitions {
		if err := reg.Register(def.EventType, def.Version, def.Schema); err != nil {
			return fmt.Errorf("register %s %s: %w", def.EventType, def.Version, err)
		}
	}
	return nil
}
