package algorithm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/rdf"
)

var (
	typ = rdf.IRI(rdf.RDFType)
	t1  = "https://tests.example.org/t1"
	t2  = "https://tests.example.org/t2"
)

// addExecution records one test execution in the "generated" shape.
func addExecution(g *rdf.Graph, n int, testID, value string) {
	exec := rdf.Blank(fmt.Sprintf("exec%d", n))
	result := rdf.Blank(fmt.Sprintf("result%d", n))
	g.Add(exec, typ, rdf.IRI(rdf.FTRTestExecutionActivity))
	g.Add(exec, rdf.IRI(rdf.PROVWasAssociatedWith), rdf.IRI(testID))
	g.Add(exec, rdf.IRI(rdf.PROVGenerated), result)
	g.Add(result, typ, rdf.IRI(rdf.FTRTestResult))
	g.Add(result, rdf.IRI(rdf.PROVValue), rdf.Literal(value))
}

func twoTests() []domain.TestSpec {
	return []domain.TestSpec{
		{Reference: "T1", TestIdentifier: t1, PassWeight: 5, FailWeight: 0, IndeterminateWeight: 0},
		{Reference: "T2", TestIdentifier: t2, PassWeight: 5, FailWeight: 0, IndeterminateWeight: 0},
	}
}

// TestProcessResultSet_MissingTest covers a result set that only holds
// output for one of two tests.
func TestProcessResultSet_MissingTest(t *testing.T) {
	g := rdf.NewGraph()
	addExecution(g, 1, t1, "pass")

	results, diags := ProcessResultSet(twoTests(), g)
	assert.Empty(t, diags)
	assert.Equal(t, map[string]domain.ResultRecord{
		"T1": {Result: "pass", Weight: 5.0},
		"T2": {Result: domain.ResultNotFound, Weight: 0.0},
	}, results)
}

// TestProcessResultSet_Coverage verifies one record per test, whatever the
// graph contains.
func TestProcessResultSet_Coverage(t *testing.T) {
	graphs := map[string]*rdf.Graph{
		"empty": rdf.NewGraph(),
		"nil":   nil,
		"unrelated test": func() *rdf.Graph {
			g := rdf.NewGraph()
			addExecution(g, 1, "https://tests.example.org/other", "pass")
			return g
		}(),
	}
	for name, g := range graphs {
		t.Run(name, func(t *testing.T) {
			results, _ := ProcessResultSet(twoTests(), g)
			require.Len(t, results, 2)
			for _, ref := range []string{"T1", "T2"} {
				assert.Equal(t, domain.ResultNotFound, results[ref].Result)
			}
		})
	}
}

func TestProcessResultSet_Weights(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{value: "pass", want: 5},
		{value: "fail", want: -2},
		{value: "indeterminate", want: 1},
		{value: "PASS", want: 0},
		{value: "something else", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			g := rdf.NewGraph()
			addExecution(g, 1, t1, tt.value)
			specs := []domain.TestSpec{{Reference: "T1", TestIdentifier: t1, PassWeight: 5, FailWeight: -2, IndeterminateWeight: 1}}
			results, _ := ProcessResultSet(specs, g)
			assert.Equal(t, domain.ResultRecord{Result: tt.value, Weight: tt.want}, results["T1"])
		})
	}
}

// TestProcessResultSet_MultipleValues verifies that conflicting outputs are
// resolved deterministically and reported.
func TestProcessResultSet_MultipleValues(t *testing.T) {
	g := rdf.NewGraph()
	addExecution(g, 1, t1, "pass")
	addExecution(g, 2, t1, "fail")

	results, diags := ProcessResultSet(twoTests()[:1], g)
	assert.Equal(t, domain.ResultRecord{Result: "fail", Weight: 0}, results["T1"])
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "T1")
}

// TestExtractResultValues_Shapes covers the three ways a result set may link
// a result to its test.
func TestExtractResultValues_Shapes(t *testing.T) {
	exec, result := rdf.Blank("e"), rdf.Blank("r")
	base := func() *rdf.Graph {
		g := rdf.NewGraph()
		g.Add(exec, typ, rdf.IRI(rdf.FTRTestExecutionActivity))
		g.Add(result, typ, rdf.IRI(rdf.FTRTestResult))
		g.Add(result, rdf.IRI(rdf.PROVValue), rdf.Literal("pass"))
		return g
	}

	generatedBy := base()
	generatedBy.Add(exec, rdf.IRI(rdf.PROVWasAssociatedWith), rdf.IRI(t1))
	generatedBy.Add(result, rdf.IRI(rdf.PROVWasGeneratedBy), exec)

	outputFrom := base()
	outputFrom.Add(result, rdf.IRI(rdf.FTROutputFromTest), rdf.IRI(t1))
	outputFrom.Add(result, rdf.IRI(rdf.PROVWasGeneratedBy), exec)

	untyped := rdf.NewGraph()
	untyped.Add(exec, rdf.IRI(rdf.PROVWasAssociatedWith), rdf.IRI(t1))
	untyped.Add(exec, rdf.IRI(rdf.PROVGenerated), result)
	untyped.Add(result, rdf.IRI(rdf.PROVValue), rdf.Literal("pass"))

	assert.Equal(t, []string{"pass"}, ExtractResultValues(generatedBy, t1))
	assert.Equal(t, []string{"pass"}, ExtractResultValues(outputFrom, t1))
	assert.Empty(t, ExtractResultValues(untyped, t1), "untyped nodes do not count")
}

// TestExtractResultValues_JSONLD parses a result set the way a test service
// returns it.
func TestExtractResultValues_JSONLD(t *testing.T) {
	doc := `{
	  "@context": {
	    "ftr": "https://w3id.org/ftr#",
	    "prov": "http://www.w3.org/ns/prov#",
	    "schema": "http://schema.org/"
	  },
	  "@graph": [
	    {
	      "@id": "urn:set",
	      "@type": "ftr:TestResultSet",
	      "prov:wasDerivedFrom": {"@id": "urn:subject"}
	    },
	    {"@id": "urn:subject", "schema:identifier": "https://doi.org/10.1234/abc"},
	    {
	      "@id": "urn:exec",
	      "@type": "ftr:TestExecutionActivity",
	      "prov:wasAssociatedWith": {"@id": "https://tests.example.org/t1"},
	      "prov:generated": {"@id": "urn:result"}
	    },
	    {"@id": "urn:result", "@type": "ftr:TestResult", "prov:value": "pass"}
	  ]
	}`
	g, err := rdf.Codec{}.Parse(context.Background(), []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"pass"}, ExtractResultValues(g, t1))
	assert.Equal(t, "https://doi.org/10.1234/abc", TestedGUID(g))
}

func TestTestedGUID_Fallbacks(t *testing.T) {
	target := rdf.NewGraph()
	target.Add(rdf.Blank("r"), rdf.IRI(rdf.FTRAssessmentTarget), rdf.IRI("https://doi.org/x"))
	assert.Equal(t, "https://doi.org/x", TestedGUID(target))

	used := rdf.NewGraph()
	used.Add(rdf.Blank("e"), rdf.IRI(rdf.PROVUsed), rdf.Literal("https://doi.org/y"))
	assert.Equal(t, "https://doi.org/y", TestedGUID(used))

	assert.Empty(t, TestedGUID(rdf.NewGraph()))
}
