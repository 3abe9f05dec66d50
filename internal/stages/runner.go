// Package stages implements the five research stages. Each stage formats a
// prompt from upstream records, calls the model and parses the answer with
// the tolerant extractor.
package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/llm"
)

const (
	audienceSystemPrompt = "You are an expert market researcher specializing in psychographic segmentation. Return only valid JSON."
	valueMapSystemPrompt = "You are a Value Proposition Canvas expert. Return only valid JSON."
	painsSystemPrompt    = "You are a JTBD and customer psychology expert. Return only valid JSON."
	journeySystemPrompt  = "You are a customer journey and content strategy expert. Return only valid JSON."

	notSpecified = "Not specified"
)

// LLM is the subset of *llm.Client the stages use.
type LLM interface {
	Research(ctx context.Context, req llm.ResearchRequest) (llm.Response, error)
	Analyze(ctx context.Context, req llm.AnalysisRequest) (llm.Response, error)
}

// SnapshotFetcher returns readable text for a page.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Runner executes individual stages. It is safe for concurrent use as long
// as its LLM is.
type Runner struct {
	llm           LLM
	researchModel string
	analysisModel string
	snapshot      SnapshotFetcher
	logger        *zap.Logger
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithModels overrides the research and analysis models. Empty values keep
// the defaults.
func WithModels(research, analysis string) Option {
	return func(r *Runner) {
		if research != "" {
			r.researchModel = research
		}
		if analysis != "" {
			r.analysisModel = analysis
		}
	}
}

// WithSnapshot enables fetching the client's website before ingestion.
func WithSnapshot(f SnapshotFetcher) Option {
	return func(r *Runner) { r.snapshot = f }
}

func NewRunner(client LLM, opts ...Option) *Runner {
	r := &Runner{
		llm:           client,
		researchModel: config.DefaultResearchModel,
		analysisModel: config.DefaultAnalysisModel,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) ResearchModel() string { return r.researchModel }
func (r *Runner) AnalysisModel() string { return r.analysisModel }
