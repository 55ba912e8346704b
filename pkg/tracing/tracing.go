// Package tracing reports state runtime activity as OpenTelemetry spans.
//
// Every update pass becomes one span carrying the pass number and write
// counts. Deferred callback frames are attached to the span of the pass that
// follows them, and failed top-level computations become error spans.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure the provider before creating the observer:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	m := state.NewStateManager(state.WithObserver(tracing.New()))
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/incremental/pkg/state"
)

const defaultTracerName = "incremental"

// Config configures the tracing observer.
type Config struct {
	// TracerName is the name of the tracer (default: "incremental").
	TracerName string

	// Provider supplies the tracer. Nil means the global provider.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// SkipEmptyPasses drops spans for passes that applied no writes.
	SkipEmptyPasses bool
}

// Option configures the tracing observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider used instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithSkipEmptyPasses enables or disables spans for passes without writes.
func WithSkipEmptyPasses(skip bool) Option {
	return func(c *Config) {
		c.SkipEmptyPasses = skip
	}
}

// Observer implements state.Observer by emitting spans.
type Observer struct {
	state.NopObserver

	config Config
	tracer trace.Tracer

	// callback frame counts waiting for the next pass span
	ran, deferred int
	frames        int
}

var _ state.Observer = (*Observer)(nil)

// New creates a tracing observer.
func New(opts ...Option) *Observer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Observer{
		config: config,
		tracer: provider.Tracer(config.TracerName),
	}
}

// PassCompleted emits the span for an update pass.
func (o *Observer) PassCompleted(report state.PassReport) {
	ran, deferred, frames := o.ran, o.deferred, o.frames
	o.ran, o.deferred, o.frames = 0, 0, 0
	if o.config.SkipEmptyPasses && report.Writes == 0 && frames == 0 {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Int64("state.pass", int64(report.Pass)),
		attribute.Int("state.writes", report.Writes),
		attribute.Int("state.modified", report.Modified),
	}, o.config.Attributes...)
	if frames > 0 {
		attrs = append(attrs,
			attribute.Int("state.callbacks_ran", ran),
			attribute.Int("state.callbacks_deferred", deferred),
		)
	}

	_, span := o.tracer.Start(context.Background(), "state.update_pass",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(report.StartedAt),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(report.StartedAt.Add(report.Duration)))
}

// CallbacksRun remembers the frame for the next pass span.
func (o *Observer) CallbacksRun(ran, deferred int) {
	o.ran += ran
	o.deferred += deferred
	o.frames++
}

// ScopeRecomputed emits an error span for failed computations.
func (o *Observer) ScopeRecomputed(kind state.ScopeKind, elapsed time.Duration, err error) {
	if err == nil {
		return
	}
	end := time.Now()
	attrs := append([]attribute.KeyValue{
		attribute.String("state.scope_kind", kind.String()),
	}, o.config.Attributes...)
	_, span := o.tracer.Start(context.Background(), "state.computation",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-elapsed)),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End(trace.WithTimestamp(end))
}
