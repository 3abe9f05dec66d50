// Package pipeline sequences the research stages for one client request,
// fans the per-persona stages out and contains their failures.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/resonance/internal/budget"
	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

var pipelineTracer trace.Tracer = otel.Tracer("resonance/internal/pipeline")

// Stages is the stage contract the orchestrator depends on. Any returned
// error is treated as that stage's failure.
type Stages interface {
	Ingest(ctx context.Context, req research.ClientRequest) (*research.CompanyProfile, map[string]any, error)
	GenerateAudience(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile) ([]research.Persona, error)
	MapValue(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona) (*research.ValueMap, error)
	AnalyzePains(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona) (*research.PainTaxonomy, error)
	MapJourney(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, persona research.Persona, vm *research.ValueMap, pt *research.PainTaxonomy) (*research.JourneyMap, error)
}

// Orchestrator runs the five stages against one usage ledger. Create one per
// run so the ledger summary covers exactly that run.
type Orchestrator struct {
	stages        Stages
	ledger        *usage.Ledger
	parallelism   int
	budget        budget.Config
	logger        *zap.Logger
	metrics       *Metrics
	researchModel string
	analysisModel string
	now           func() time.Time
}

type Option func(*Orchestrator)

// WithParallelism analyzes up to n personas at once. Each persona's stages
// still run in order.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

func WithBudget(cfg budget.Config) Option {
	return func(o *Orchestrator) { o.budget = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithModels records the models used, for the result only.
func WithModels(research, analysis string) Option {
	return func(o *Orchestrator) {
		o.researchModel = research
		o.analysisModel = analysis
	}
}

func New(stages Stages, ledger *usage.Ledger, opts ...Option) *Orchestrator {
	if ledger == nil {
		ledger = usage.NewLedger()
	}
	o := &Orchestrator{
		stages:      stages,
		ledger:      ledger,
		parallelism: 1,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline. It never returns an error: a failed
// ingestion or audience stage sets Result.Error, and any per-persona stage
// failure only leaves that field of the bundle empty.
func (o *Orchestrator) Run(ctx context.Context, req research.ClientRequest, observer Observer) Result {
	rs := &runState{
		o:        o,
		id:       uuid.NewString(),
		observer: observer,
		monitor:  budget.NewMonitor(o.budget),
		outcomes: make(map[string]StageOutcome),
	}
	ctx, span := pipelineTracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", rs.id),
		attribute.String("client", req.ClientName),
		attribute.Int("items.requested", req.NumICPs),
	))
	defer span.End()

	logger := o.logger.With(zap.String("run_id", rs.id))
	rs.logger = logger
	start := o.now()
	result := Result{
		RunID:         rs.id,
		Request:       req,
		Items:         []research.PersonaBundle{},
		ResearchModel: o.researchModel,
		AnalysisModel: o.analysisModel,
		CreatedAt:     start,
	}
	finish := func() Result {
		result.Usage = o.ledger.Summarize()
		result.Outcomes = rs.snapshot()
		result.Duration = o.now().Sub(start)
		o.metrics.observeRun(result.Failed())
		if result.Failed() {
			span.SetStatus(codes.Error, result.Error)
		}
		span.SetAttributes(
			attribute.Int("items.generated", len(result.Items)),
			attribute.Float64("cost_usd", result.Usage.TotalCost),
		)
		logger.Info("pipeline finished",
			zap.Int("items", len(result.Items)),
			zap.Float64("cost", result.Usage.TotalCost),
			zap.Int("requests", result.Usage.TotalRequests),
			zap.String("error", result.Error))
		return result
	}
	logger.Info("pipeline started", zap.String("client", req.ClientName), zap.Int("items", req.NumICPs))

	ingestKey := StageKey{Stage: StageIngestion}
	err := rs.step(ctx, ingestKey, func(ctx context.Context) (map[string]any, error) {
		profile, raw, err := o.stages.Ingest(ctx, req)
		result.RawResearch = raw
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("ingestion produced no profile")
		}
		result.Profile = profile
		return map[string]any{"company": profile.Name}, nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("%s: %v", ingestKey, err)
		logger.Error("pipeline aborted", zap.String("stage", ingestKey.String()), zap.Error(err))
		return finish()
	}

	var personas []research.Persona
	audienceKey := StageKey{Stage: StageAudience}
	err = rs.step(ctx, audienceKey, func(ctx context.Context) (map[string]any, error) {
		p, err := o.stages.GenerateAudience(ctx, req, result.Profile)
		if err != nil {
			return nil, err
		}
		personas = p
		return map[string]any{"num_icps": len(p)}, nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("%s: %v", audienceKey, err)
		logger.Error("pipeline aborted", zap.String("stage", audienceKey.String()), zap.Error(err))
		return finish()
	}

	bundles := make([]research.PersonaBundle, len(personas))
	for i, p := range personas {
		bundles[i].Persona = p
	}
	if o.parallelism > 1 && len(bundles) > 1 {
		var g errgroup.Group
		g.SetLimit(o.parallelism)
		for i := range bundles {
			i := i
			g.Go(func() error {
				rs.analyze(ctx, req, result.Profile, i+1, &bundles[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range bundles {
			rs.analyze(ctx, req, result.Profile, i+1, &bundles[i])
		}
	}
	result.Items = bundles
	return finish()
}

// runState is the mutable bookkeeping of one Run.
type runState struct {
	o        *Orchestrator
	id       string
	observer Observer
	monitor  *budget.Monitor
	logger   *zap.Logger

	mu       sync.Mutex
	outcomes map[string]StageOutcome
}

// analyze runs the three per-item stages for one persona. Failures are
// recorded and the next stage still runs.
func (rs *runState) analyze(ctx context.Context, req research.ClientRequest, profile *research.CompanyProfile, item int, b *research.PersonaBundle) {
	persona := b.Persona
	stages := rs.o.stages

	_ = rs.step(ctx, StageKey{Stage: StageValueMap, Item: item}, func(ctx context.Context) (map[string]any, error) {
		vm, err := stages.MapValue(ctx, req, profile, persona)
		if err != nil {
			return nil, err
		}
		b.ValueMap = vm
		return map[string]any{"fit_score": vm.FitScore}, nil
	})
	_ = rs.step(ctx, StageKey{Stage: StagePains, Item: item}, func(ctx context.Context) (map[string]any, error) {
		pt, err := stages.AnalyzePains(ctx, req, profile, persona)
		if err != nil {
			return nil, err
		}
		b.PainTaxonomy = pt
		return map[string]any{"num_pains": pt.Total()}, nil
	})
	_ = rs.step(ctx, StageKey{Stage: StageJourney, Item: item}, func(ctx context.Context) (map[string]any, error) {
		jm, err := stages.MapJourney(ctx, req, profile, persona, b.ValueMap, b.PainTaxonomy)
		if err != nil {
			return nil, err
		}
		b.JourneyMap = jm
		return map[string]any{"stages": len(jm.Stages())}, nil
	})
}

// step gates, runs and reports one stage execution. The returned error is
// the stage failure, already reported to the observer.
func (rs *runState) step(ctx context.Context, key StageKey, fn func(context.Context) (map[string]any, error)) error {
	id := key.String()
	if err := rs.gate(ctx); err != nil {
		rs.fail(key, err, 0)
		return err
	}

	rs.emit(id, StageOutcome{Status: StatusRunning})
	rs.logger.Info("stage started", zap.String("stage", id))

	ctx, span := pipelineTracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String("stage", string(key.Stage)),
		attribute.Int("item", key.Item),
	))
	defer span.End()

	start := rs.o.now()
	payload, err := fn(ctx)
	elapsed := rs.o.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rs.fail(key, err, elapsed)
		return err
	}
	rs.o.metrics.observeStage(key.Stage, StatusComplete, elapsed)
	rs.emit(id, StageOutcome{Status: StatusComplete, Payload: payload})
	rs.logger.Info("stage complete", zap.String("stage", id), zap.Duration("elapsed", elapsed))
	return nil
}

// gate stops a stage from starting once the run is cancelled or over budget.
func (rs *runState) gate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := rs.o.ledger.Summarize()
	return rs.monitor.Check(s.TotalCost, int64(s.TotalTokens.Total))
}

func (rs *runState) fail(key StageKey, err error, elapsed time.Duration) {
	id := key.String()
	rs.o.metrics.observeStage(key.Stage, StatusError, elapsed)
	rs.emit(id, StageOutcome{Status: StatusError, Err: err.Error()})
	if key.Stage.PerItem() {
		rs.logger.Warn("stage failed", zap.String("stage", id), zap.Error(err))
		return
	}
	rs.logger.Error("stage failed", zap.String("stage", id), zap.Error(err))
}

// emit records the outcome and notifies the observer. Both happen under the
// same lock so observers see transitions in order even with parallel items.
func (rs *runState) emit(id string, out StageOutcome) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.outcomes[id] = out
	if rs.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			rs.logger.Warn("progress observer panicked", zap.String("stage", id), zap.Any("panic", r))
		}
	}()
	rs.observer(Event{
		RunID:   rs.id,
		StageID: id,
		Status:  out.Status,
		Data:    out.Payload,
		Error:   out.Err,
		Time:    rs.o.now(),
	})
}

func (rs *runState) snapshot() map[string]StageOutcome {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]StageOutcome, len(rs.outcomes))
	for k, v := range rs.outcomes {
		out[k] = v
	}
	return out
}

// RunStage executes a single stage with caller-supplied upstream outputs.
// There is no sequencing, budget or failure containment: errors are returned
// as is.
func (o *Orchestrator) RunStage(ctx context.Context, stageID string, in StageInput) (any, error) {
	stage, err := ParseStage(stageID)
	if err != nil {
		return nil, err
	}
	ctx, span := pipelineTracer.Start(ctx, "pipeline.run_stage", trace.WithAttributes(attribute.String("stage", stageID)))
	defer span.End()

	if stage != StageIngestion && in.Profile == nil {
		return nil, fmt.Errorf("%w: %s needs company_profile", ErrMissingInput, stage)
	}
	if stage.PerItem() && in.Persona == nil {
		return nil, fmt.Errorf("%w: %s needs icp", ErrMissingInput, stage)
	}

	switch stage {
	case StageIngestion:
		profile, raw, err := o.stages.Ingest(ctx, in.Request)
		if err != nil {
			return nil, err
		}
		return IngestionOutput{Profile: profile, RawResearch: raw}, nil
	case StageAudience:
		return o.stages.GenerateAudience(ctx, in.Request, in.Profile)
	case StageValueMap:
		return o.stages.MapValue(ctx, in.Request, in.Profile, *in.Persona)
	case StagePains:
		return o.stages.AnalyzePains(ctx, in.Request, in.Profile, *in.Persona)
	default:
		return o.stages.MapJourney(ctx, in.Request, in.Profile, *in.Persona, in.ValueMap, in.PainTaxonomy)
	}
}
