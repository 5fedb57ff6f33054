package algorithm

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/rdf"
)

// resultPatterns returns the alternative ways a result set can tie a test to
// its result value. Every alternative requires a TestResult generated by a
// TestExecutionActivity and bearing a prov:value.
func resultPatterns(testIdentifier string) [][]rdf.Pattern {
	var (
		exec   = rdf.Var("execution")
		result = rdf.Var("result")
		value  = rdf.Var("value")
		typ    = rdf.Bound(rdf.IRI(rdf.RDFType))
		test   = rdf.Bound(rdf.IRI(testIdentifier))
	)
	activity := rdf.P(exec, typ, rdf.Bound(rdf.IRI(rdf.FTRTestExecutionActivity)))
	isResult := rdf.P(result, typ, rdf.Bound(rdf.IRI(rdf.FTRTestResult)))
	hasValue := rdf.P(result, rdf.Bound(rdf.IRI(rdf.PROVValue)), value)

	return [][]rdf.Pattern{
		{
			activity,
			rdf.P(exec, rdf.Bound(rdf.IRI(rdf.PROVWasAssociatedWith)), test),
			rdf.P(exec, rdf.Bound(rdf.IRI(rdf.PROVGenerated)), result),
			isResult,
			hasValue,
		},
		{
			activity,
			rdf.P(exec, rdf.Bound(rdf.IRI(rdf.PROVWasAssociatedWith)), test),
			rdf.P(result, rdf.Bound(rdf.IRI(rdf.PROVWasGeneratedBy)), exec),
			isResult,
			hasValue,
		},
		{
			isResult,
			rdf.P(result, rdf.Bound(rdf.IRI(rdf.FTROutputFromTest)), test),
			rdf.P(result, rdf.Bound(rdf.IRI(rdf.PROVWasGeneratedBy)), exec),
			activity,
			hasValue,
		},
	}
}

// ExtractResultValues returns the distinct result values recorded for a
// test, sorted so that the choice of "first" is deterministic.
func ExtractResultValues(g *rdf.Graph, testIdentifier string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, b := range g.Union(resultPatterns(testIdentifier)...) {
		v := b["value"].Value
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// ProcessResultSet returns exactly one ResultRecord per test, keyed by
// reference. A test without output in g is recorded as
// domain.ResultNotFound with its indeterminate weight. When several values
// exist for one test the first is used and a diagnostic is returned.
func ProcessResultSet(tests []domain.TestSpec, g *rdf.Graph) (map[string]domain.ResultRecord, []string) {
	results := make(map[string]domain.ResultRecord, len(tests))
	var diagnostics []string
	for _, t := range tests {
		values := ExtractResultValues(g, t.TestIdentifier)
		switch {
		case len(values) == 0:
			results[t.Reference] = domain.ResultRecord{
				Result: domain.ResultNotFound,
				Weight: t.IndeterminateWeight,
			}
			continue
		case len(values) > 1:
			diagnostics = append(diagnostics, fmt.Sprintf(
				"test %s (%s): %d result values %q, using %q",
				t.Reference, t.TestIdentifier, len(values), values, values[0]))
		}
		results[t.Reference] = domain.ResultRecord{
			Result: values[0],
			Weight: t.WeightFor(values[0]),
		}
	}
	return results, diagnostics
}

// TestedGUID reads the assessed subject back out of a result set. It
// prefers the identifier of the node the set was derived from, then the
// assessment target of a result, then the entity used by an execution.
func TestedGUID(g *rdf.Graph) string {
	set, subject, id := rdf.Var("set"), rdf.Var("subject"), rdf.Var("id")
	derived := g.Query(
		rdf.P(set, rdf.Bound(rdf.IRI(rdf.RDFType)), rdf.Bound(rdf.IRI(rdf.FTRTestResultSet))),
		rdf.P(set, rdf.Bound(rdf.IRI(rdf.PROVWasDerivedFrom)), subject),
		rdf.P(subject, rdf.Bound(rdf.IRI(rdf.SchemaIdentifier)), id),
	)
	if len(derived) > 0 {
		return derived[0]["id"].Value
	}

	for _, pred := range []string{rdf.FTRAssessmentTarget, rdf.PROVUsed} {
		target := g.Query(rdf.P(rdf.Var("s"), rdf.Bound(rdf.IRI(pred)), rdf.Var("target")))
		if len(target) > 0 {
			return target[0]["target"].Value
		}
	}
	return ""
}
