package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// quoteDuration tracks the time taken for a quote by model and outcome.
	quoteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sourcing_quote_duration_seconds",
		Help:    "Time taken to compute a sourcing quote by model and outcome",
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"model", "outcome"})

	// quoteOutcomes counts quotes by model and outcome.
	quoteOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_quote_outcomes_total",
		Help: "Total number of quotes by model and outcome",
	}, []string{"model", "outcome"})

	// quoteErrors counts failed quotes by reason.
	quoteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_quote_errors_total",
		Help: "Total number of failed quotes by model and reason",
	}, []string{"model", "reason"}) // reason: too_large, timeout, invalid

	// orderLines tracks the distribution of order sizes after filtering.
	orderLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sourcing_order_lines_count",
		Help:    "Number of distinct products in quoted orders",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	// assignmentsEvaluated tracks how many assignments a quote walked.
	assignmentsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sourcing_assignments_evaluated_count",
		Help:    "Number of product to center assignments evaluated per quote",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// routesEvaluated tracks how many routes a quote priced.
	routesEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sourcing_routes_evaluated_count",
		Help:    "Number of routes priced per quote",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	// inflightSearches tracks concurrent assignment workers.
	inflightSearches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sourcing_search_workers_inflight",
		Help: "Number of assignment evaluation workers currently running",
	})
)

// MetricsRecorder provides methods to record optimizer metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordQuote records a completed quote.
func (m *MetricsRecorder) RecordQuote(model string, outcome Outcome, duration time.Duration) {
	quoteDuration.WithLabelValues(model, string(outcome)).Observe(duration.Seconds())
	quoteOutcomes.WithLabelValues(model, string(outcome)).Inc()
}

// RecordQuoteError records a quote that ended in an error.
func (m *MetricsRecorder) RecordQuoteError(model, reason string) {
	quoteErrors.WithLabelValues(model, reason).Inc()
}

// RecordOrderLines records the number of distinct products in an order.
func (m *MetricsRecorder) RecordOrderLines(n int) {
	orderLines.Observe(float64(n))
}

// RecordSearch records the size of a finished search.
func (m *MetricsRecorder) RecordSearch(assignments, routes int) {
	assignmentsEvaluated.Observe(float64(assignments))
	routesEvaluated.Observe(float64(routes))
}

// IncrementWorkers increments the in-flight worker gauge.
func (m *MetricsRecorder) IncrementWorkers() {
	inflightSearches.Inc()
}

// DecrementWorkers decrements the in-flight worker gauge.
func (m *MetricsRecorder) DecrementWorkers() {
	inflightSearches.Dec()
}
