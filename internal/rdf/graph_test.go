package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultGraph() *Graph {
	g := NewGraph()
	exec := IRI("urn:exec:1")
	res := IRI("urn:result:1")
	g.Add(exec, IRI(RDFType), IRI(FTRTestExecutionActivity))
	g.Add(exec, IRI(PROVWasAssociatedWith), IRI("https://tests.example.org/t1"))
	g.Add(exec, IRI(PROVGenerated), res)
	g.Add(res, IRI(RDFType), IRI(FTRTestResult))
	g.Add(res, IRI(PROVValue), LangLiteral("pass", "en"))
	return g
}

// TestGraph_AddDeduplicates verifies that a graph behaves as a set of
// triples while preserving insertion order.
func TestGraph_AddDeduplicates(t *testing.T) {
	g := NewGraph()
	assert.True(t, g.Add(IRI("urn:a"), IRI("urn:p"), Literal("x")))
	assert.False(t, g.Add(IRI("urn:a"), IRI("urn:p"), Literal("x")), "duplicate triple should not be added")
	assert.True(t, g.Add(IRI("urn:a"), IRI("urn:p"), Literal("y")))

	require.Equal(t, 2, g.Len())
	assert.Equal(t, []Term{Literal("x"), Literal("y")}, g.Objects(IRI("urn:a"), IRI("urn:p")))
}

// TestGraph_Query covers basic graph pattern matching with shared variables.
func TestGraph_Query(t *testing.T) {
	g := resultGraph()

	tests := []struct {
		name     string
		patterns []Pattern
		want     []string
	}{
		{
			name: "joins activity to result value",
			patterns: []Pattern{
				P(Var("exec"), Bound(IRI(RDFType)), Bound(IRI(FTRTestExecutionActivity))),
				P(Var("exec"), Bound(IRI(PROVWasAssociatedWith)), Bound(IRI("https://tests.example.org/t1"))),
				P(Var("exec"), Bound(IRI(PROVGenerated)), Var("result")),
				P(Var("result"), Bound(IRI(RDFType)), Bound(IRI(FTRTestResult))),
				P(Var("result"), Bound(IRI(PROVValue)), Var("value")),
			},
			want: []string{"pass"},
		},
		{
			name: "unknown test yields no solutions",
			patterns: []Pattern{
				P(Var("exec"), Bound(IRI(PROVWasAssociatedWith)), Bound(IRI("https://tests.example.org/t2"))),
				P(Var("exec"), Bound(IRI(PROVGenerated)), Var("result")),
				P(Var("result"), Bound(IRI(PROVValue)), Var("value")),
			},
			want: nil,
		},
		{
			name: "shared variable must bind consistently",
			patterns: []Pattern{
				P(Var("x"), Bound(IRI(PROVGenerated)), Var("x")),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, b := range g.Query(tt.patterns...) {
				got = append(got, b["value"].Value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestGraph_Union verifies that alternative pattern groups are combined
// without duplicate solutions.
func TestGraph_Union(t *testing.T) {
	g := resultGraph()
	g.Add(IRI("urn:result:1"), IRI(PROVWasGeneratedBy), IRI("urn:exec:1"))

	solutions := g.Union(
		[]Pattern{P(Var("exec"), Bound(IRI(PROVGenerated)), Var("result"))},
		[]Pattern{P(Var("result"), Bound(IRI(PROVWasGeneratedBy)), Var("exec"))},
	)
	require.Len(t, solutions, 1, "both groups bind the same pair")
	assert.Equal(t, IRI("urn:result:1"), solutions[0]["result"])
}

// TestGraph_Import verifies blank node relabelling across documents.
func TestGraph_Import(t *testing.T) {
	a := NewGraph()
	a.Add(Blank("b0"), IRI(PROVValue), Literal("pass"))
	b := NewGraph()
	b.Add(Blank("b0"), IRI(PROVValue), Literal("fail"))

	merged := NewGraph()
	merged.Import(a, "doc0")
	merged.Import(b, "doc1")

	require.Equal(t, 2, merged.Len(), "blank nodes from different documents must not collide")
	assert.True(t, merged.Has(Triple{Blank("doc0b0"), IRI(PROVValue), Literal("pass")}))
	assert.True(t, merged.Has(Triple{Blank("doc1b0"), IRI(PROVValue), Literal("fail")}))
}

// TestTerm_String checks N-Triples rendering for each term kind.
func TestTerm_String(t *testing.T) {
	assert.Equal(t, "<urn:a>", IRI("urn:a").String())
	assert.Equal(t, "_:b1", Blank("_:b1").String())
	assert.Equal(t, `"x"`, Literal("x").String())
	assert.Equal(t, `"x"@en`, LangLiteral("x", "en").String())
	assert.Equal(t, `"1.5"^^<`+XSDFloat+`>`, TypedLiteral("1.5", XSDFloat).String())
}

func TestLooksLikeHTTPURI(t *testing.T) {
	assert.True(t, LooksLikeHTTPURI("https://example.org/x"))
	assert.True(t, LooksLikeHTTPURI("HTTP://example.org"))
	assert.False(t, LooksLikeHTTPURI("https://"))
	assert.False(t, LooksLikeHTTPURI("mailto:someone@example.org"))
	assert.False(t, LooksLikeHTTPURI("https://example.org/a b"))
}
