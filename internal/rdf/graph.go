package rdf

import (
	"sort"
	"strings"
)

// Graph is an ordered set of triples. Insertion order is preserved so that
// query results and serialization are deterministic. A Graph is not safe for
// concurrent mutation; readers may share a Graph once it is fully built.
type Graph struct {
	triples []Triple
	index   map[Triple]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[Triple]struct{})}
}

// Add inserts the triple (s, p, o) and reports whether it was new.
func (g *Graph) Add(s, p, o Term) bool {
	return g.AddTriple(Triple{Subject: s, Predicate: p, Object: o})
}

// AddTriple inserts t and reports whether it was new.
func (g *Graph) AddTriple(t Triple) bool {
	if g.index == nil {
		g.index = make(map[Triple]struct{})
	}
	if _, ok := g.index[t]; ok {
		return false
	}
	g.index[t] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

// Has reports whether the graph contains t.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.index[t]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Import adds every triple of other to g, relabelling blank nodes with the
// given scope so that nodes from independently parsed documents never
// collide.
func (g *Graph) Import(other *Graph, scope string) {
	if other == nil {
		return
	}
	relabel := func(t Term) Term {
		if t.Kind == KindBlank {
			return Blank(scope + t.Value)
		}
		return t
	}
	for _, t := range other.triples {
		g.AddTriple(Triple{
			Subject:   relabel(t.Subject),
			Predicate: t.Predicate,
			Object:    relabel(t.Object),
		})
	}
}

// Objects returns the objects of all triples matching (s, p, ?o).
func (g *Graph) Objects(s, p Term) []Term {
	var out []Term
	for _, t := range g.triples {
		if t.Subject == s && t.Predicate == p {
			out = append(out, t.Object)
		}
	}
	return out
}

// Subjects returns the subjects of all triples matching (?s, p, o).
func (g *Graph) Subjects(p, o Term) []Term {
	var out []Term
	for _, t := range g.triples {
		if t.Predicate == p && t.Object == o {
			out = append(out, t.Subject)
		}
	}
	return out
}

// SubjectsOfType returns all subjects typed with the given class IRI.
func (g *Graph) SubjectsOfType(class string) []Term {
	return g.Subjects(IRI(RDFType), IRI(class))
}

// NTriples renders the graph as sorted N-Triples, one statement per line.
// The output is stable across runs and suitable for comparing graphs.
func (g *Graph) NTriples() string {
	lines := make([]string, 0, len(g.triples))
	for _, t := range g.triples {
		lines = append(lines, t.String())
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
