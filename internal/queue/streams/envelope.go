package streams

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope wraps every event appended to a progress stream.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	RunID          string          `json:"run_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	TraceID        string          `json:"trace_id,omitempty"`
	PayloadVersion string          `json:"payload_version"`
	Data           json.RawMessage `json:"data"`
}

// ValidateBasic checks the fields every envelope needs before schema
// validation. A zero OccurredAt is filled with the current time.
func (e *Envelope) ValidateBasic() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("event_id is required")
	case e.EventType == "":
		return fmt.Errorf("event_type is required")
	case e.RunID == "":
		return fmt.Errorf("run_id is required")
	case e.PayloadVersion == "":
		return fmt.Errorf("payload_version is required")
	case len(e.Data) == 0:
		return fmt.Errorf("data payload is required")
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}

func (e *Envelope) Marshal() ([]byte, error) {
	if err := e.ValidateBasic(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// UnmarshalEnvelope parses and validates an encoded envelope.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if err := env.ValidateBasic(); err != nil {
		return env, err
	}
	return env, nil
}
