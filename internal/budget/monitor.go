package budget

import (
	"fmt"
	"time"
)

// Monitor compares the running totals of a run against its limits. It
// holds no usage of its own; callers pass the ledger totals at each check.
type Monitor struct {
	config    Config
	startTime time.Time
	now       func() time.Time
}

// NewMonitor starts the wall clock for cfg.
func NewMonitor(cfg Config) *Monitor {
	return newMonitorAt(cfg, time.Now)
}

func newMonitorAt(cfg Config, now func() time.Time) *Monitor {
	return &Monitor{config: cfg, startTime: now(), now: now}
}

// Check returns ErrExceeded when totalCost or totalTokens has reached a limit,
// or when the wall-clock limit has passed. A nil Monitor never fails.
func (m *Monitor) Check(totalCost float64, totalTokens int64) error {
	if m == nil {
		return nil
	}
	if m.config.MaxCost > 0 && totalCost >= m.config.MaxCost {
		return ErrExceeded{
			Kind:  "cost",
			Usage: fmt.Sprintf("$%.4f", totalCost),
			Limit: fmt.Sprintf("$%.4f", m.config.MaxCost),
		}
	}
	if m.config.MaxTokens > 0 && totalTokens >= m.config.MaxTokens {
		return ErrExceeded{
			Kind:  "tokens",
			Usage: fmt.Sprintf("%d tokens", totalTokens),
			Limit: fmt.Sprintf("%d tokens", m.config.MaxTokens),
		}
	}
	return m.CheckTime()
}

// CheckTime verifies elapsed time against the configured limit.
func (m *Monitor) CheckTime() error {
	if m == nil || m.config.MaxTimeSeconds <= 0 {
		return nil
	}
	elapsed := m.now().Sub(m.startTime)
	limit := time.Duration(m.config.MaxTimeSeconds) * time.Second
	if elapsed > limit {
		return ErrExceeded{
			Kind:  "time",
			Usage: elapsed.Round(time.Millisecond).String(),
			Limit: limit.String(),
		}
	}
	return nil
}

// Elapsed returns the time since the monitor started.
func (m *Monitor) Elapsed() time.Duration {
	return m.now().Sub(m.startTime)
}

// Config returns the limits being enforced.
func (m *Monitor) Config() Config {
	return m.config
}
