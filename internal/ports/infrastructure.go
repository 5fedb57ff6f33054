package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/rdf"
)

// ConfigSource fetches the CSV export that defines a scoring algorithm.
type ConfigSource interface {
	// Fetch returns the export's text split into lines. Any HTTP status of
	// 400 or above is reported as a *domain.ConfigFetchError.
	Fetch(ctx context.Context, calculationURI string) ([]string, error)
}

// TestRegistry resolves test identifiers to callable endpoints.
type TestRegistry interface {
	// EndpointFor returns the endpoint URL of the test. It returns an error
	// wrapping ErrEndpointNotFound when the registry has no binding.
	EndpointFor(ctx context.Context, testIdentifier string) (string, error)
}

// TestInvoker runs one FAIRness test against a subject.
type TestInvoker interface {
	// Invoke posts the subject GUID to the endpoint and returns the raw
	// JSON-LD body of the test result.
	Invoke(ctx context.Context, endpoint, guid string) ([]byte, error)
}

// TestOutput is the raw response of one test invocation.
type TestOutput struct {
	TestIdentifier string
	Body           []byte
}

// ResultSetRequest describes the result set to assemble.
type ResultSetRequest struct {
	SubjectGUID string

	// SetIdentifier names the result set, typically the algorithm GUID.
	SetIdentifier string

	// BenchmarkGUID is optional; when set the result set conforms to it.
	BenchmarkGUID string

	Outputs []TestOutput
}

// OutputAssembler merges individual test outputs into one result set.
type OutputAssembler interface {
	// Assemble returns the merged result set as a JSON-LD string. Every
	// statement of every parseable output is carried through unchanged.
	Assemble(ctx context.Context, req ResultSetRequest) (string, error)
}

// AlgorithmRecord is one entry of the algorithm registry listing.
type AlgorithmRecord struct {
	ID             string `json:"id"`
	GUID           string `json:"guid"`
	CalculationURI string `json:"calculation_uri"`
	Title          string `json:"title,omitempty"`
}

// AlgorithmRegistry persists the algorithm id to calculation URI mapping.
type AlgorithmRegistry interface {
	// Register publishes the algorithm's DCAT description.
	Register(ctx context.Context, def *domain.AlgorithmDefinition, metadata *rdf.Graph) error

	// RetrieveByID resolves an algorithm id to its calculation URI. It
	// returns an error wrapping ErrAlgorithmNotFound for unknown ids.
	RetrieveByID(ctx context.Context, id string) (string, error)

	// List returns every registered scoring algorithm.
	List(ctx context.Context) ([]AlgorithmRecord, error)
}

// Metric names understood by MetricsCollector implementations.
const (
	// MetricStageDuration is the latency of one pipeline stage. Labels:
	// stage, status.
	MetricStageDuration = "stage_duration"

	// MetricTestInvocations counts test calls. Labels: status, host.
	MetricTestInvocations = "test_invocations_total"

	// MetricTestLatency is the latency of one test call. Labels: status.
	MetricTestLatency = "test_invocation_duration"

	// MetricConditionOutcomes counts evaluated conditions. Labels:
	// algorithm, outcome.
	MetricConditionOutcomes = "condition_outcomes_total"

	// MetricMissingResults counts tests without a result. Labels: algorithm.
	MetricMissingResults = "missing_results_total"

	// MetricAssessmentScore is the distribution of final scores. Labels:
	// algorithm.
	MetricAssessmentScore = "assessment_score"

	// MetricTestsInFlight is the number of test calls in progress.
	MetricTestsInFlight = "tests_in_flight"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like test outcomes and errors.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
