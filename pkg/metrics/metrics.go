// Package metrics exports engine events as Prometheus metrics.
//
// A Collector implements reactive.Hooks. Install it on a runtime and expose
// the registry it registers into:
//
//	reg := prometheus.NewRegistry()
//	rt := reactive.NewRuntime(reactive.WithHooks(metrics.New(metrics.WithRegistry(reg))))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/derivable/pkg/reactive"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "derivable").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for recompute duration.
	// Default: buckets from 10µs to ~40ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
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
		Namespace: "derivable",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records engine events. It implements reactive.Hooks.
type Collector struct {
	recomputations    *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	recomputeErrors   *prometheus.CounterVec
	deliveries        *prometheus.CounterVec
	activeReactors    prometheus.Gauge
	transactions      *prometheus.CounterVec
	txnAtoms          prometheus.Histogram
	cycles            prometheus.Counter
	swept             prometheus.Counter
}

var _ reactive.Hooks = (*Collector)(nil)

// New creates a collector and registers its metrics.
//
// Metrics collected:
//   - derivable_recomputations_total: derivation computations by whether the result changed
//   - derivable_recompute_duration_seconds: histogram of compute time
//   - derivable_recompute_errors_total: computations that cached an error, by type
//   - derivable_reactor_deliveries_total: reactor callbacks by outcome
//   - derivable_active_reactors: gauge of running reactors
//   - derivable_transactions_total: transaction frames by depth kind and outcome
//   - derivable_transaction_atoms: histogram of atoms written per frame
//   - derivable_cycles_total: cycles detected
//   - derivable_autocache_swept_total: autoCache derivations released
//
// New panics if the metrics are already registered in the registry, as
// promauto does.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		recomputations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputations_total",
			Help:        "Total number of derivation computations",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		recomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Derivation compute duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		recomputeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_errors_total",
			Help:        "Total number of computations that produced an error",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reactor_deliveries_total",
			Help:        "Total number of reactor deliveries",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		activeReactors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_reactors",
			Help:        "Number of running reactors",
			ConstLabels: config.ConstLabels,
		}),

		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of transaction frames",
			ConstLabels: config.ConstLabels,
		}, []string{"level", "outcome"}),

		txnAtoms: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transaction_atoms",
			Help:        "Number of atoms written per transaction frame",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 50, 100},
		}),

		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of dependency cycles detected",
			ConstLabels: config.ConstLabels,
		}),

		swept: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "autocache_swept_total",
			Help:        "Total number of autoCache derivations released at the end of a tick",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Recomputed implements reactive.Hooks.
func (c *Collector) Recomputed(_ reactive.NodeInfo, took time.Duration, changed bool, err error) {
	label := "false"
	if changed {
		label = "true"
	}
	c.recomputations.WithLabelValues(label).Inc()
	c.recomputeDuration.Observe(took.Seconds())
	if err != nil {
		c.recomputeErrors.WithLabelValues(categorizeError(err)).Inc()
	}
}

// ReactorDelivered implements reactive.Hooks.
func (c *Collector) ReactorDelivered(_ reactive.NodeInfo, err error) {
	outcome := "value"
	if err != nil {
		outcome = "error"
	}
	c.deliveries.WithLabelValues(outcome).Inc()
}

// ReactorStarted implements reactive.Hooks.
func (c *Collector) ReactorStarted(reactive.NodeInfo) {
	c.activeReactors.Inc()
}

// ReactorStopped implements reactive.Hooks.
func (c *Collector) ReactorStopped(reactive.NodeInfo) {
	c.activeReactors.Dec()
}

// TxnBegin implements reactive.Hooks. Frames are counted when they end.
func (c *Collector) TxnBegin(int, string) {}

// TxnEnd implements reactive.Hooks.
func (c *Collector) TxnEnd(depth int, _ string, outcome reactive.TxnOutcome, atoms int) {
	level := "outer"
	if depth > 1 {
		level = "nested"
	}
	c.transactions.WithLabelValues(level, outcome.String()).Inc()
	c.txnAtoms.Observe(float64(atoms))
}

// CycleDetected implements reactive.Hooks.
func (c *Collector) CycleDetected(reactive.NodeInfo) {
	c.cycles.Inc()
}

// AutoCacheSwept implements reactive.Hooks.
func (c *Collector) AutoCacheSwept(n int) {
	c.swept.Add(float64(n))
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	var cycle *reactive.CycleError
	switch {
	case errors.As(err, &cycle):
		return "cycle"
	case errors.Is(err, reactive.ErrUnresolved):
		return "unresolved"
	default:
		return "compute"
	}
}
