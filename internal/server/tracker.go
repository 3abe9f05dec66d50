package server

import (
	"maps"
	"sync"
	"time"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/queue/streams"
)

const defaultTrackedRuns = 100

// runTracker keeps the newest runs in memory for GET /api/runs/:id. The
// oldest entry is evicted once the limit is reached.
type runTracker struct {
	mu    sync.RWMutex
	limit int
	order []string
	runs  map[string]*RunStatus
	now   func() time.Time
}

func newRunTracker(limit int) *runTracker {
	if limit <= 0 {
		limit = defaultTrackedRuns
	}
	return &runTracker{limit: limit, runs: make(map[string]*RunStatus), now: time.Now}
}

// observer returns a pipeline observer that records events for a run
// started by subject for clientName.
func (t *runTracker) observer(clientName, subject string) pipeline.Observer {
	return func(e pipeline.Event) {
		t.mu.Lock()
		defer t.mu.Unlock()
		st := t.ensure(e.RunID, clientName, subject)
		st.Outcomes[e.StageID] = pipeline.StageOutcome{Status: e.Status, Payload: e.Data, Err: e.Error}
	}
}

// ensure must be called with mu held.
func (t *runTracker) ensure(runID, clientName, subject string) *RunStatus {
	if st, ok := t.runs[runID]; ok {
		return st
	}
	st := &RunStatus{
		RunID:      runID,
		ClientName: clientName,
		Subject:    subject,
		State:      RunRunning,
		Outcomes:   make(map[string]pipeline.StageOutcome),
		StartedAt:  t.now(),
	}
	t.runs[runID] = st
	t.order = append(t.order, runID)
	for len(t.order) > t.limit {
		delete(t.runs, t.order[0])
		t.order = t.order[1:]
	}
	return st
}

// finish records the final result. Runs aborted before their first event
// are still tracked.
func (t *runTracker) finish(res pipeline.Result, subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.ensure(res.RunID, res.Request.ClientName, subject)
	done := t.now()
	st.FinishedAt = &done
	st.State = RunComplete
	if res.Failed() {
		st.State = RunAborted
	}
	maps.Copy(st.Outcomes, res.Outcomes)
	summary := streams.SummarizeResult(res)
	st.Summary = &summary
}

// get returns a copy of the tracked status.
func (t *runTracker) get(runID string) (RunStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.runs[runID]
	if !ok {
		return RunStatus{}, false
	}
	return st.clone(), true
}

// list returns the tracked runs, newest first.
func (t *runTracker) list() []RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RunStatus, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		out = append(out, t.runs[t.order[i]].clone())
	}
	return out
}

func (s *RunStatus) clone() RunStatus {
	cp := *s
	cp.Outcomes = maps.Clone(s.Outcomes)
	return cp
}
