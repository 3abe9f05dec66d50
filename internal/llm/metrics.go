package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammad-safakhou/resonance/internal/usage"
)

// Metrics exposes completion counters. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
}

// NewMetrics registers the completion metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Completion calls by model and outcome.",
		}, []string{"model", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Retried completion attempts by model.",
		}, []string{"model"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resonance",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Wall time of completion calls including retries.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by model and direction.",
		}, []string{"model", "direction"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "llm",
			Name:      "cost_usd_total",
			Help:      "Estimated spend in USD by model.",
		}, []string{"model"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.retries, m.duration, m.tokens, m.cost)
	}
	return m
}

func (m *Metrics) observeSuccess(rec usage.Record, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(rec.Model, "success").Inc()
	m.duration.WithLabelValues(rec.Model).Observe(elapsed.Seconds())
	m.tokens.WithLabelValues(rec.Model, "input").Add(float64(rec.InputTokens))
	m.tokens.WithLabelValues(rec.Model, "output").Add(float64(rec.OutputTokens))
	m.cost.WithLabelValues(rec.Model).Add(rec.EstimatedCost)
}

func (m *Metrics) observeFailure(model string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(model, "error").Inc()
	m.duration.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRetry(model string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(model).Inc()
}
