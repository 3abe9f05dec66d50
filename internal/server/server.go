// Package server exposes the research pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/research"
	"github.com/mohammad-safakhou/resonance/internal/runtime"
)

// Pipeline runs one research request end to end.
type Pipeline interface {
	Run(ctx context.Context, req research.ClientRequest, observer pipeline.Observer) pipeline.Result
}

// RunFactory assembles a fresh pipeline for each request.
type RunFactory func(opts runtime.RunOptions) (Pipeline, error)

// Progress receives every event and the final result of each run.
type Progress interface {
	Observe(e pipeline.Event)
	Completed(ctx context.Context, res pipeline.Result) error
}

// Server wires the HTTP routes to the run factory.
type Server struct {
	echo     *echo.Echo
	factory  RunFactory
	catalog  config.Catalog
	models   config.ModelsConfig
	pipeline config.PipelineConfig
	secret   []byte
	metrics  http.Handler
	progress Progress
	runs     *runTracker
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Server)

// WithJWTSecret protects the run endpoints. Without it they are open.
func WithJWTSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithMetricsHandler serves h on /metrics instead of the default registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithProgress(p Progress) Option {
	return func(s *Server) { s.progress = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTrackedRuns bounds how many runs GET /api/runs/:id remembers.
func WithTrackedRuns(n int) Option {
	return func(s *Server) { s.runs = newRunTracker(n) }
}

func New(cfg *config.Config, factory RunFactory, opts ...Option) *Server {
	s := &Server{
		factory:  factory,
		catalog:  cfg.Models.BuildCatalog(),
		models:   cfg.Models,
		pipeline: cfg.Pipeline.Normalize(),
		runs:     newRunTracker(defaultTrackedRuns),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	s.echo = s.routes()
	return s
}

// Handler returns the echo instance, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(s.metrics))

	api := e.Group("/api")
	api.GET("/models", s.listModels)
	api.GET("/stages", s.listStages)
	api.GET("/options", s.listOptions)

	runs := api.Group("/runs")
	var write []echo.MiddlewareFunc
	if len(s.secret) > 0 {
		runs.Use(runtime.EchoAuthMiddleware(s.secret))
		write = append(write, runtime.RequireScopes(runtime.ScopeRunsWrite))
	}
	runs.POST("", s.createRun, write...)
	runs.GET("", s.listRuns)
	runs.GET("/:id", s.getRun)
	return e
}

// errorHandler renders every error as {"error": msg} and logs it.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	fields := []zap.Field{
		zap.Int("status", code),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("remote", c.RealIP()),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Info("request rejected", fields...)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, HTTPError{Error: msg})
	}
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
