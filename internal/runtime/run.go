package runtime

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/budget"
	"github.com/mohammad-safakhou/resonance/internal/llm"
	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/snapshot"
	"github.com/mohammad-safakhou/resonance/internal/stages"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

// ErrInvalidOptions marks a rejected per-run override.
var ErrInvalidOptions = errors.New("invalid run options")

// RunOptions are the per-run overrides a caller may pass.
type RunOptions struct {
	AnalysisModel string
	Budget        budget.Config
}

// Run is one assembled pipeline: a fresh ledger, a client recording into it
// and the orchestrator driving the stages.
type Run struct {
	Ledger       *usage.Ledger
	Client       *llm.Client
	Orchestrator *pipeline.Orchestrator
}

// Factory holds the process-wide pieces shared by every run: metrics,
// request pacing and the snapshot fetcher.
type Factory struct {
	cfg        *config.Config
	catalog    config.Catalog
	logger     *zap.Logger
	llmMetrics *llm.Metrics
	pipeMetric *pipeline.Metrics
	limiter    *rate.Limiter
	snapshot   stages.SnapshotFetcher
	httpClient *http.Client
}

type FactoryOption func(*Factory)

// WithHTTPClient overrides the OpenRouter HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) FactoryOption {
	return func(f *Factory) { f.httpClient = hc }
}

// NewFactory registers metrics with reg (nil disables them) and builds the
// optional snapshot fetcher.
func NewFactory(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer, opts ...FactoryOption) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		cfg:     cfg,
		catalog: cfg.Models.BuildCatalog(),
		logger:  logger,
	}
	if reg != nil {
		f.llmMetrics = llm.NewMetrics(reg)
		f.pipeMetric = pipeline.NewMetrics(reg)
	}
	if rps := cfg.OpenRouter.RequestsPerSecond; rps > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	fetcher, err := snapshot.New(cfg.Pipeline.Snapshot)
	if err != nil {
		return nil, err
	}
	if fetcher != nil {
		f.snapshot = fetcher
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Catalog returns the merged model catalog.
func (f *Factory) Catalog() config.Catalog { return f.catalog }

// Config returns the configuration the factory was built from.
func (f *Factory) Config() *config.Config { return f.cfg }

// NewRun assembles a pipeline for a single run. An unknown analysis model is
// rejected before anything is sent.
func (f *Factory) NewRun(opts RunOptions) (*Run, error) {
	researchModel := f.cfg.Models.Research
	analysisModel := f.cfg.Models.Analysis
	if opts.AnalysisModel != "" {
		analysisModel = opts.AnalysisModel
	}
	if _, err := f.catalog.Lookup(analysisModel); err != nil {
		return nil, fmt.Errorf("%w: analysis model: %w", ErrInvalidOptions, err)
	}
	if err := opts.Budget.Validate(); err != nil {
		return nil, fmt.Errorf("%w: budget: %w", ErrInvalidOptions, err)
	}
	limits := budget.Merge(budget.Config{
		MaxCost:        f.cfg.Budget.MaxCost,
		MaxTokens:      f.cfg.Budget.MaxTokens,
		MaxTimeSeconds: f.cfg.Budget.MaxTimeSeconds,
	}, opts.Budget)

	ledger := usage.NewLedger()
	clientOpts := []llm.Option{
		llm.WithLogger(f.logger.Named("llm")),
		llm.WithMetrics(f.llmMetrics),
		llm.WithDefaultModels(researchModel, analysisModel),
	}
	if f.limiter != nil {
		clientOpts = append(clientOpts, llm.WithLimiter(f.limiter))
	}
	if f.httpClient != nil {
		clientOpts = append(clientOpts, llm.WithHTTPClient(f.httpClient))
	}
	client := llm.New(f.cfg.OpenRouter, f.catalog, ledger, clientOpts...)

	runner := stages.NewRunner(client,
		stages.WithLogger(f.logger.Named("stages")),
		stages.WithModels(researchModel, analysisModel),
		stages.WithSnapshot(f.snapshot),
	)
	orch := pipeline.New(runner, ledger,
		pipeline.WithParallelism(f.cfg.Pipeline.Parallelism),
		pipeline.WithBudget(limits),
		pipeline.WithLogger(f.logger.Named("pipeline")),
		pipeline.WithMetrics(f.pipeMetric),
		pipeline.WithModels(runner.ResearchModel(), runner.AnalysisModel()),
	)
	return &Run{Ledger: ledger, Client: client, Orchestrator: orch}, nil
}
