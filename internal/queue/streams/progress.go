package streams

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/internal/pipeline"
)

// RunSummary is the run.completed payload.
type RunSummary struct {
	RunID         string   `json:"run_id"`
	ClientName    string   `json:"client_name"`
	Items         int      `json:"items"`
	FailedStages  []string `json:"failed_stages,omitempty"`
	TotalCost     float64  `json:"total_cost"`
	TotalTokens   int      `json:"total_tokens"`
	TotalRequests int      `json:"total_requests"`
	Error         string   `json:"error,omitempty"`
}

// SummarizeResult builds the run.completed payload for res.
func SummarizeResult(res pipeline.Result) RunSummary {
	var failed []string
	for id, out := range res.Outcomes {
		if out.Status == pipeline.StatusError {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return RunSummary{
		RunID:         res.RunID,
		ClientName:    res.Request.ClientName,
		Items:         len(res.Items),
		FailedStages:  failed,
		TotalCost:     res.Usage.TotalCost,
		TotalTokens:   res.Usage.TotalTokens.Total,
		TotalRequests: res.Usage.TotalRequests,
		Error:         res.Error,
	}
}

// ProgressPublisher forwards pipeline events to a Redis stream. Publishing
// failures are logged and never interrupt the run.
type ProgressPublisher struct {
	pub     *Publisher
	stream  string
	maxLen  int64
	timeout time.Duration
	logger  *zap.Logger
}

func NewProgressPublisher(pub *Publisher, stream string, maxLen int64, timeout time.Duration, logger *zap.Logger) *ProgressPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProgressPublisher{pub: pub, stream: stream, maxLen: maxLen, timeout: timeout, logger: logger}
}

// Observe publishes e as a stage.progress event. It matches pipeline.Observer.
func (p *ProgressPublisher) Observe(e pipeline.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if _, err := p.pub.PublishPayload(ctx, p.stream, EventStageProgress, e.RunID, e, WithMaxLenApprox(p.maxLen)); err != nil {
		p.logger.Warn("publish progress event failed",
			zap.String("run_id", e.RunID),
			zap.String("stage", e.StageID),
			zap.Error(err))
	}
}

// Completed publishes the run.completed summary for res.
func (p *ProgressPublisher) Completed(ctx context.Context, res pipeline.Result) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.pub.PublishPayload(ctx, p.stream, EventRunCompleted, res.RunID, SummarizeResult(res), WithMaxLenApprox(p.maxLen))
	return err
}
