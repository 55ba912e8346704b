package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/incremental/internal/config"
	"github.com/vango-dev/incremental/pkg/journal"
	"github.com/vango-dev/incremental/pkg/metrics"
	"github.com/vango-dev/incremental/pkg/state"
	"github.com/vango-dev/incremental/pkg/tracing"
)

// globalOptions are the persistent flags of the root command.
type globalOptions struct {
	configDir string
	logLevel  string
	trace     bool
}

// load reads and validates the configuration, applying flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configDir)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.trace {
		cfg.Tracing.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// engine bundles a state manager with its observers.
type engine struct {
	logger   *slog.Logger
	manager  *state.StateManager
	recorder *journal.Recorder
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

func newEngine(cfg *config.Config, logOut, traceOut io.Writer) (*engine, error) {
	rt := &engine{
		logger:   cfg.Logger(logOut),
		recorder: journal.NewRecorder(cfg.Inspect.History),
		registry: prometheus.NewRegistry(),
		shutdown: func(context.Context) error { return nil },
	}

	opts := []state.Option{
		state.WithLogger(rt.logger),
		state.WithCallbackBudget(cfg.Runtime.CallbackBudget),
		state.WithObserver(rt.recorder),
		state.WithObserver(metrics.New(metrics.WithRegistry(rt.registry))),
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(cfg.Tracing.ServiceName, traceOut)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		rt.shutdown = tp.Shutdown
		opts = append(opts, state.WithObserver(tracing.New(
			tracing.WithTracerName(cfg.Tracing.ServiceName),
			tracing.WithTracerProvider(tp),
			tracing.WithAttributes(attribute.String("session", rt.recorder.Session())),
		)))
	}

	rt.manager = state.NewStateManager(opts...)
	return rt, nil
}

// newTracerProvider builds a provider exporting spans to w.
func newTracerProvider(service string, w io.Writer) (*sdktrace.TracerProvider, error) {
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// close flushes pending spans.
func (rt *engine) close() {
	if err := rt.shutdown(context.Background()); err != nil {
		rt.logger.Warn("tracer shutdown failed", "err", err)
	}
}
