package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/usage"
)

const (
	maxErrorBody    = 4096
	maxResponseBody = 10 << 20

	researchTemperature = 0.3
	analysisTemperature = 0.7
)

var llmTracer trace.Tracer = otel.Tracer("resonance/internal/llm")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is a successful completion together with its metered usage.
type Response struct {
	Content  string       `json:"content"`
	Model    string       `json:"model"`
	Usage    usage.Record `json:"usage"`
	Attempts int          `json:"attempts"`
}

type ResearchRequest struct {
	Query   string
	Context string
	Model   string
}

type AnalysisRequest struct {
	Prompt       string
	Data         string
	Model        string
	SystemPrompt string
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int  `json:"prompt_tokens"`
		CompletionTokens int  `json:"completion_tokens"`
		TotalTokens      *int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to an OpenRouter-compatible chat completion endpoint and
// records the usage of every successful call in its ledger.
type Client struct {
	cfg           config.OpenRouterConfig
	catalog       config.Catalog
	ledger        *usage.Ledger
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
	metrics       *Metrics
	researchModel string
	analysisModel string
	now           func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLimiter shares a request limiter across clients.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithDefaultModels sets the models used when a request leaves Model empty.
func WithDefaultModels(research, analysis string) Option {
	return func(c *Client) {
		if research != "" {
			c.researchModel = research
		}
		if analysis != "" {
			c.analysisModel = analysis
		}
	}
}

// New builds a client. The ledger is required; every successful completion
// appends exactly one record to it.
func New(cfg config.OpenRouterConfig, catalog config.Catalog, ledger *usage.Ledger, opts ...Option) *Client {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	if ledger == nil {
		ledger = usage.NewLedger()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	c := &Client{
		cfg:           cfg,
		catalog:       catalog,
		ledger:        ledger,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        zap.NewNop(),
		researchModel: config.DefaultResearchModel,
		analysisModel: config.DefaultAnalysisModel,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil && cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Ledger returns the ledger this client records into.
func (c *Client) Ledger() *usage.Ledger { return c.ledger }

// Catalog returns the model catalog used for pricing.
func (c *Client) Catalog() config.Catalog { return c.catalog }

type callOptions struct {
	maxTokens    int
	systemPrompt string
}

type CallOption func(*callOptions)

// WithMaxTokens overrides the model's default output limit.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithSystemPrompt prepends a system message.
func WithSystemPrompt(s string) CallOption {
	return func(o *callOptions) { o.systemPrompt = s }
}

// Complete sends messages to model, retrying transient failures with
// exponential backoff. Unknown models fail before any network traffic.
func (c *Client) Complete(ctx context.Context, messages []Message, model string, temperature float64, opts ...CallOption) (Response, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	info, err := c.catalog.Lookup(model)
	if err != nil {
		return Response{}, err
	}
	if o.maxTokens <= 0 {
		o.maxTokens = info.MaxTokens
	}
	if o.systemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: o.systemPrompt}}, messages...)
	}
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal completion request: %w", err)
	}

	ctx, span := llmTracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.max_tokens", o.maxTokens),
	))
	defer span.End()

	start := c.now()
	attempts := 0
	var parsed completionResponse
	op := func() error {
		attempts++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		resp, err := c.do(ctx, body)
		if err != nil {
			if ctx.Err() != nil || Classify(err) != Retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		parsed = resp
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.observeRetry(model)
		c.logger.Warn("completion attempt failed, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	policy := newRetryPolicy(ctx, c.cfg.MaxAttempts, c.cfg.MinWait, c.cfg.MaxWait)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		c.metrics.observeFailure(model, c.now().Sub(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("completion failed",
			zap.String("model", model),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return Response{}, err
	}

	if len(parsed.Choices) == 0 {
		c.metrics.observeFailure(model, c.now().Sub(start))
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return Response{}, ErrEmptyResponse
	}

	in, out := parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens
	total := in + out
	if parsed.Usage.TotalTokens != nil {
		total = *parsed.Usage.TotalTokens
	}
	cost, err := c.catalog.CalculateCost(model, in, out)
	if err != nil {
		return Response{}, err
	}
	rec := usage.Record{
		Model:         model,
		InputTokens:   in,
		OutputTokens:  out,
		TotalTokens:   total,
		EstimatedCost: cost,
		Timestamp:     c.now(),
	}
	c.ledger.Record(rec)
	c.metrics.observeSuccess(rec, c.now().Sub(start))
	span.SetAttributes(
		attribute.Int("llm.attempts", attempts),
		attribute.Int("llm.tokens.total", total),
		attribute.Float64("llm.cost_usd", cost),
	)
	c.logger.Debug("completion succeeded",
		zap.String("model", model),
		zap.Int("attempts", attempts),
		zap.Int("tokens", total),
		zap.Float64("cost", cost))

	return Response{
		Content:  parsed.Choices[0].Message.Content,
		Model:    model,
		Usage:    rec,
		Attempts: attempts,
	}, nil
}

// Research issues a low-temperature factual query, optionally grounded by a
// context system message.
func (c *Client) Research(ctx context.Context, req ResearchRequest) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.researchModel
	}
	messages := make([]Message, 0, 2)
	if strings.TrimSpace(req.Context) != "" {
		messages = append(messages, Message{Role: "system", Content: "Context: " + req.Context})
	}
	messages = append(messages, Message{Role: "user", Content: req.Query})
	return c.Complete(ctx, messages, model, researchTemperature)
}

// Analyze issues a higher-temperature synthesis prompt with optional data
// appended under a DATA heading.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.analysisModel
	}
	content := req.Prompt
	if req.Data != "" {
		content = req.Prompt + "\n\nDATA:\n" + req.Data
	}
	var opts []CallOption
	if req.SystemPrompt != "" {
		opts = append(opts, WithSystemPrompt(req.SystemPrompt))
	}
	return c.Complete(ctx, []Message{{Role: "user", Content: content}}, model, analysisTemperature, opts...)
}

func (c *Client) do(ctx context.Context, body []byte) (completionResponse, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return completionResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return completionResponse{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		// a body read timeout still classifies as retryable through %w
		return completionResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		code := out.Error.Code
		if code == 0 {
			code = http.StatusBadGateway
		}
		return completionResponse{}, &StatusError{StatusCode: code, Body: out.Error.Message}
	}
	return out, nil
}
