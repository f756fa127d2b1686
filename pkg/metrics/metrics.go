package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Graph/node metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cloudconductor_nodes_total",
			Help: "Total number of graph nodes by state",
		},
		[]string{"state"},
	)

	NodeFinalizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudconductor_node_finalize_duration_seconds",
			Help:    "Time from node start() to a successful finalize() in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s .. ~4.5h
		},
	)

	NodesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudconductor_nodes_failed_total",
			Help: "Total number of nodes whose worker failed, by module",
		},
		[]string{"module"},
	)

	// Validation metrics
	ValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudconductor_validation_errors_total",
			Help: "Total number of validation errors found, by kind",
		},
		[]string{"kind"},
	)

	// Processor lifecycle metrics
	ProcessorsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudconductor_processors_created_total",
			Help: "Total number of processors successfully created",
		},
	)

	ProcessorCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudconductor_processor_create_duration_seconds",
			Help:    "Time from create() call to a ready (SSH-reachable) processor",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34min
		},
	)

	ProcessorRecreatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudconductor_processor_recreates_total",
			Help: "Total number of processor recreate cycles (destroy+create retries)",
		},
	)

	ProcessorRateLimitRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudconductor_processor_rate_limit_retries_total",
			Help: "Total number of rate-limit-triggered backoff cycles across all processors",
		},
	)

	ProcessorCommandRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudconductor_processor_command_retries_total",
			Help: "Total number of command retries, by job name",
		},
		[]string{"job"},
	)

	ProcessorFatalErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudconductor_processor_fatal_errors_total",
			Help: "Total number of fatal (non-retryable) processor errors",
		},
	)

	// Cost tracking
	ProcessorCostCentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudconductor_processor_cost_cents_total",
			Help: "Cumulative accrued processor cost in cents",
		},
	)

	// Scheduling
	SchedulingLoopDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudconductor_scheduling_loop_duration_seconds",
			Help:    "Time taken for one pass of the graph engine's run loop",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		NodesTotal,
		NodeFinalizeDuration,
		NodesFailedTotal,
		ValidationErrorsTotal,
		ProcessorsCreatedTotal,
		ProcessorCreateDuration,
		ProcessorRecreatesTotal,
		ProcessorRateLimitRetriesTotal,
		ProcessorCommandRetriesTotal,
		ProcessorFatalErrorsTotal,
		ProcessorCostCentsTotal,
		SchedulingLoopDuration,
	)
}

// Handler returns the Prometheus HTTP handler, for CLI invocations that want
// to expose a scrape endpoint alongside a long-running pipeline run.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an elapsed duration for observation into a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer was created.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time since the timer was created
// into the histogram of vec selected by labels.
func (t *Timer) ObserveDurationVec(vec *prometheus.HistogramVec, labels ...string) {
	vec.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
