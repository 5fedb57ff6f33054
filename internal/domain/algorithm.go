// Package domain contains the domain models of the scoring engine: algorithm
// definitions, test and condition specifications, per-test results and the
// final evaluation outcome, plus the typed State that carries them through
// the assessment pipeline.
package domain

import (
	"strings"
)

// Result values recognised by weight selection. Matching is exact and
// case-sensitive.
const (
	ResultPass          = "pass"
	ResultFail          = "fail"
	ResultIndeterminate = "indeterminate"

	// ResultNotFound is synthesised for a test that has no output in the
	// result set.
	ResultNotFound = "indeterminate (result data not found)"
)

// TestSpec is one row of the tests block of an algorithm configuration.
type TestSpec struct {
	// Reference is the short symbolic name used inside formulas, e.g. "T1".
	Reference string `json:"reference" validate:"required"`

	// TestIdentifier is the globally unique test URI.
	TestIdentifier string `json:"test_identifier" validate:"required"`

	// Endpoint is the callable HTTP URL of the test. It is resolved through
	// the test registry and is empty until then.
	Endpoint string `json:"endpoint,omitempty"`

	PassWeight          float64 `json:"pass_weight"`
	FailWeight          float64 `json:"fail_weight"`
	IndeterminateWeight float64 `json:"indeterminate_weight"`
}

// WeightFor maps a result value to this test's weight. Unknown values map
// to 0.0.
func (t TestSpec) WeightFor(result string) float64 {
	switch result {
	case ResultPass:
		return t.PassWeight
	case ResultFail:
		return t.FailWeight
	case ResultIndeterminate:
		return t.IndeterminateWeight
	default:
		return 0.0
	}
}

// Guidance is a remediation hint surfaced when a condition fails.
type Guidance struct {
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// ConditionSpec is one row of the conditions block.
type ConditionSpec struct {
	ID             string     `json:"condition"`
	Description    string     `json:"description"`
	Formula        string     `json:"formula"`
	SuccessMessage string     `json:"success_message"`
	FailureMessage string     `json:"failure_message"`
	Guidance       []Guidance `json:"guidance,omitempty"`
}

// MetadataEntry is one property/value row of the metadata block, in the
// order it appeared.
type MetadataEntry struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// AlgorithmDefinition identifies a scoring algorithm and carries its parsed
// configuration. It is built once per assessment and not mutated after
// loading completes.
type AlgorithmDefinition struct {
	AlgorithmID    string          `json:"algorithm_id"`
	CalculationURI string          `json:"calculation_uri"`
	BaseURI        string          `json:"base_uri"`
	BenchmarkGUID  string          `json:"benchmark_guid,omitempty"`
	Metadata       []MetadataEntry `json:"metadata"`
	Tests          []TestSpec      `json:"tests"`
	Conditions     []ConditionSpec `json:"conditions"`
}

// GUID returns the algorithm's public identifier, <base>/algorithms/<id>.
func (a *AlgorithmDefinition) GUID() string {
	return AlgorithmGUID(a.BaseURI, a.AlgorithmID)
}

// AssessURL returns the endpoint that runs this algorithm.
func (a *AlgorithmDefinition) AssessURL() string {
	return strings.TrimRight(a.BaseURI, "/") + "/assess/algorithm/" + a.AlgorithmID
}

// TestByReference finds the test with the given reference.
func (a *AlgorithmDefinition) TestByReference(ref string) (TestSpec, bool) {
	for _, t := range a.Tests {
		if t.Reference == ref {
			return t, true
		}
	}
	return TestSpec{}, false
}

// AlgorithmGUID joins a base URI and an algorithm id.
func AlgorithmGUID(baseURI, id string) string {
	return strings.TrimRight(baseURI, "/") + "/algorithms/" + id
}
