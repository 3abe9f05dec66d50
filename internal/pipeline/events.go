package pipeline

import "time"

// Event is one progress transition. StageID is the rendered StageKey, for
// example "pain_taxonomy_2".
type Event struct {
	RunID   string         `json:"run_id"`
	StageID string         `json:"stage_id"`
	Status  Status         `json:"status"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Time    time.Time      `json:"time"`
}

// Observer receives progress events synchronously. It must not block for
// long; the orchestrator waits for it before continuing.
type Observer func(Event)

// Tee returns an observer that forwards each event to every non-nil observer
// in order.
func Tee(observers ...Observer) Observer {
	live := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	return func(e Event) {
		for _, o := range live {
			o(e)
		}
	}
}
