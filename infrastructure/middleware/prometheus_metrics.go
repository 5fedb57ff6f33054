// Package middleware provides cross-cutting concerns for the assessment
// engine: metrics collection, stage observation and tracing setup.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-champion/internal/ports"
)

const namespace = "champion"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. Known metric names get dedicated vectors; anything else
// lands in the generic operation counter, latency and gauge vectors.
type PrometheusMetrics struct {
	stageLatency      *prometheus.HistogramVec
	testInvocations   *prometheus.CounterVec
	testLatency       *prometheus.HistogramVec
	conditionOutcomes *prometheus.CounterVec
	missingResults    *prometheus.CounterVec
	assessmentScore   *prometheus.HistogramVec
	testsInFlight     prometheus.Gauge

	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance whose metrics
// are registered with reg. A nil reg uses the default registry, which
// allows only one instance per process.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Execution time of assessment pipeline stages.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage", "status"},
		),
		testInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "test_invocations_total",
				Help:      "Calls made to FAIR test services, by outcome.",
			},
			[]string{"status", "host"},
		),
		testLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "test_invocation_duration_seconds",
				Help:      "Latency of calls to FAIR test services.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"status"},
		),
		conditionOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "condition_outcomes_total",
				Help:      "Evaluated conditions by outcome (success, failure, error).",
			},
			[]string{"algorithm", "outcome"},
		),
		missingResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missing_results_total",
				Help:      "Tests of an algorithm that had no result in the result set.",
			},
			[]string{"algorithm"},
		),
		assessmentScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assessment_score",
				Help:      "Distribution of final assessment scores.",
				Buckets:   prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"algorithm"},
		),
		testsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tests_in_flight",
				Help:      "Test service calls currently in progress.",
			},
		),

		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Execution time of other operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of other operations.",
			},
			[]string{"operation", "status"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Current values of other gauges.",
			},
			[]string{"metric"},
		),
	}
}

// label returns labels[name], or "unknown" when it is missing or empty.
func label(labels map[string]string, name string) string {
	if v := labels[name]; v != "" {
		return v
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	switch operation {
	case ports.MetricStageDuration:
		pm.stageLatency.WithLabelValues(label(labels, "stage"), label(labels, "status")).Observe(duration.Seconds())
	case ports.MetricTestLatency:
		pm.testLatency.WithLabelValues(label(labels, "status")).Observe(duration.Seconds())
	default:
		pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordCounter implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case ports.MetricTestInvocations:
		pm.testInvocations.WithLabelValues(label(labels, "status"), label(labels, "host")).Add(value)
	case ports.MetricConditionOutcomes:
		pm.conditionOutcomes.WithLabelValues(label(labels, "algorithm"), label(labels, "outcome")).Add(value)
	case ports.MetricMissingResults:
		pm.missingResults.WithLabelValues(label(labels, "algorithm")).Add(value)
	default:
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface. The in-flight
// gauge is adjusted by value rather than set.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	switch metric {
	case ports.MetricTestsInFlight:
		pm.testsInFlight.Add(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case ports.MetricAssessmentScore:
		pm.assessmentScore.WithLabelValues(label(labels, "algorithm")).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
