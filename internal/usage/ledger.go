package usage

import (
	"sync"
	"time"
)

// Record is the metered usage of one completed request.
type Record struct {
	Model         string    `json:"model"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	TotalTokens   int       `json:"total_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	Timestamp     time.Time `json:"timestamp"`
}

// TokenTotals aggregates token counts.
type TokenTotals struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// ModelUsage is the per-model slice of a Summary.
type ModelUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
	Requests     int     `json:"requests"`
}

func (m *ModelUsage) add(r Record) {
	m.InputTokens += r.InputTokens
	m.OutputTokens += r.OutputTokens
	m.TotalTokens += r.TotalTokens
	m.Cost += r.EstimatedCost
	m.Requests++
}

// Summary is a projection of the ledger at the moment it was taken.
type Summary struct {
	TotalCost     float64               `json:"total_cost"`
	TotalTokens   TokenTotals           `json:"total_tokens"`
	ByModel       map[string]ModelUsage `json:"by_model"`
	TotalRequests int                   `json:"total_requests"`
}

// Ledger is an append-only, concurrency-safe list of usage records.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends r. It never rejects input.
func (l *Ledger) Record(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of the records in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Summarize folds every record into a Summary. An empty ledger yields zero values.
func (l *Ledger) Summarize() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{ByModel: make(map[string]ModelUsage)}
	for _, r := range l.records {
		s.TotalCost += r.EstimatedCost
		s.TotalTokens.Input += r.InputTokens
		s.TotalTokens.Output += r.OutputTokens
		s.TotalTokens.Total += r.TotalTokens
		m := s.ByModel[r.Model]
		m.add(r)
		s.ByModel[r.Model] = m
	}
	s.TotalRequests = len(l.records)
	return s
}
