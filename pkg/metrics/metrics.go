// Package metrics exports state runtime activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/incremental/pkg/state"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "incremental").
	Namespace string

	// Subsystem is the metrics subsystem (default: "state").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "incremental",
		Subsystem: "state",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer implements state.Observer on top of Prometheus collectors.
type Observer struct {
	passesTotal       prometheus.Counter
	writesTotal       prometheus.Counter
	modifiedTotal     prometheus.Counter
	passDuration      prometheus.Histogram
	callbacksTotal    prometheus.Counter
	callbacksDeferred prometheus.Counter
	recomputesTotal   *prometheus.CounterVec
	recomputeFailures *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	disposalsTotal    *prometheus.CounterVec
}

var _ state.Observer = (*Observer)(nil)

// New registers the collectors and returns the observer. Registering twice
// against the same registry panics, as with any promauto collector.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{"kind"})
	}

	return &Observer{
		passesTotal:       counter("update_passes_total", "Total number of update passes"),
		writesTotal:       counter("writes_applied_total", "Total number of buffered writes applied"),
		modifiedTotal:     counter("states_modified_total", "Total number of states modified by update passes"),
		callbacksTotal:    counter("callbacks_run_total", "Total number of deferred callbacks run"),
		callbacksDeferred: counter("callbacks_deferred_total", "Total number of deferred callbacks carried to the next frame"),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_pass_duration_seconds",
			Help:        "Update pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		recomputesTotal:   counterVec("scope_recomputes_total", "Total number of scope recomputations"),
		recomputeFailures: counterVec("scope_failures_total", "Total number of failed top-level computations"),
		recomputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scope_recompute_duration_seconds",
			Help:        "Scope recomputation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
		disposalsTotal: counterVec("scope_disposals_total", "Total number of disposed scopes"),
	}
}

// PassCompleted records an update pass.
func (o *Observer) PassCompleted(report state.PassReport) {
	o.passesTotal.Inc()
	o.writesTotal.Add(float64(report.Writes))
	o.modifiedTotal.Add(float64(report.Modified))
	o.passDuration.Observe(report.Duration.Seconds())
}

// CallbacksRun records a frame of deferred callbacks.
func (o *Observer) CallbacksRun(ran, deferred int) {
	o.callbacksTotal.Add(float64(ran))
	o.callbacksDeferred.Add(float64(deferred))
}

// ScopeRecomputed records a scope run.
func (o *Observer) ScopeRecomputed(kind state.ScopeKind, elapsed time.Duration, err error) {
	label := kind.String()
	o.recomputesTotal.WithLabelValues(label).Inc()
	o.recomputeDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		o.recomputeFailures.WithLabelValues(label).Inc()
	}
}

// ScopeDisposed records a scope disposal.
func (o *Observer) ScopeDisposed(kind state.ScopeKind) {
	o.disposalsTotal.WithLabelValues(kind.String()).Inc()
}
