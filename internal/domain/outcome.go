package domain

import (
	"maps"
	"slices"

	"github.com/ahrav/go-champion/internal/rdf"
)

// ResultRecord is the outcome of one test, keyed by the test reference.
type ResultRecord struct {
	Result string  `json:"result"`
	Weight float64 `json:"weight"`
}

// EvaluationOutcome is the product of one assessment.
type EvaluationOutcome struct {
	AlgorithmID   string `json:"algorithm_id"`
	AlgorithmGUID string `json:"algorithm_guid"`

	// Metadata is the DCAT description of the algorithm. It marshals as
	// JSON-LD.
	Metadata *rdf.Graph `json:"metadata"`

	TestResults map[string]ResultRecord `json:"test_results"`

	// Narratives and Guidances are parallel to the algorithm's conditions.
	Narratives []string     `json:"narratives"`
	Guidances  [][]Guidance `json:"guidances"`

	// ResultSet is the JSON-LD result set the scores were computed from.
	ResultSet string `json:"resultset"`

	TestedGUID string `json:"tested_guid"`

	// Score is the sum of all result weights.
	Score float64 `json:"score"`

	Diagnostics []string `json:"diagnostics,omitempty"`
}

// TotalWeight sums the weights of all records in reference order.
func TotalWeight(results map[string]ResultRecord) float64 {
	var sum float64
	for _, ref := range slices.Sorted(maps.Keys(results)) {
		sum += results[ref].Weight
	}
	return sum
}
