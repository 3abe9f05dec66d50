package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts stage executions and runs. A nil *Metrics records nothing.
type Metrics struct {
	stages   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Stage executions by stage and final status.",
		}, []string{"stage", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resonance",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of stage executions.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resonance",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.stages, m.duration, m.runs)
	}
	return m
}

func (m *Metrics) observeStage(stage Stage, status Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(string(stage), string(status)).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeRun(failed bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "aborted"
	}
	m.runs.WithLabelValues(outcome).Inc()
}
