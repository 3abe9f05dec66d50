package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/resonance/config"
)

// Telemetry owns the prometheus registry and, when enabled, the OTLP tracer
// provider and the standalone metrics listener.
type Telemetry struct {
	Registry *prometheus.Registry

	tp      *sdktrace.TracerProvider
	metrics *http.Server
}

// SetupTelemetry always returns a registry with the Go and process
// collectors. Tracing export is configured only when cfg.Enabled; otherwise
// the global no-op tracer stays in place.
func SetupTelemetry(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t := &Telemetry{Registry: reg}

	if cfg.Enabled {
		name := cfg.ServiceName
		if name == "" {
			name = "resonance"
		}
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(name),
				attribute.String("service.namespace", "resonance"),
				attribute.String("service.version", version),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("resource init: %w", err)
		}

		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp init: %w", err)
		}
		t.tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.tp)
		logger.Info("tracing enabled", zap.String("endpoint", endpoint))
	}

	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", t.Handler())
		t.metrics = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := t.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}
	return t, nil
}

// Handler serves the registry in the prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{Registry: t.Registry})
}

// Shutdown flushes spans and stops the metrics listener.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var err error
	if t.tp != nil {
		if e := t.tp.Shutdown(ctx); e != nil {
			err = fmt.Errorf("trace shutdown: %w", e)
		}
	}
	if t.metrics != nil {
		if e := t.metrics.Shutdown(ctx); e != nil {
			err = errors.Join(err, fmt.Errorf("metrics shutdown: %w", e))
		}
	}
	return err
}
