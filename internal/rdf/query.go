package rdf

import (
	"slices"
	"strings"
)

// Slot is one position of a triple pattern: either a bound term or a named
// variable.
type Slot struct {
	term     Term
	variable string
}

// Var returns a variable slot.
func Var(name string) Slot { return Slot{variable: name} }

// Bound returns a slot that only matches t.
func Bound(t Term) Slot { return Slot{term: t} }

// IsVar reports whether the slot is a variable.
func (s Slot) IsVar() bool { return s.variable != "" }

// Pattern is a triple pattern.
type Pattern struct {
	Subject, Predicate, Object Slot
}

// P is shorthand for building a Pattern.
func P(s, p, o Slot) Pattern { return Pattern{Subject: s, Predicate: p, Object: o} }

// Binding maps variable names to the terms they matched.
type Binding map[string]Term

func (b Binding) clone() Binding {
	c := make(Binding, len(b)+1)
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Query evaluates a basic graph pattern: every pattern must match, and a
// variable used in several patterns must bind to the same term. Solutions
// are returned in graph insertion order of the first pattern's matches.
func (g *Graph) Query(patterns ...Pattern) []Binding {
	if len(patterns) == 0 || g == nil {
		return nil
	}
	solutions := []Binding{{}}
	for _, p := range patterns {
		var next []Binding
		for _, b := range solutions {
			next = append(next, g.extend(p, b)...)
		}
		if len(next) == 0 {
			return nil
		}
		solutions = next
	}
	return solutions
}

// Union evaluates each pattern group and concatenates the distinct
// solutions, like a SPARQL UNION of basic graph patterns.
func (g *Graph) Union(groups ...[]Pattern) []Binding {
	var out []Binding
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, b := range g.Query(group...) {
			k := bindingKey(b)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}

func (g *Graph) extend(p Pattern, b Binding) []Binding {
	var out []Binding
	for _, t := range g.triples {
		nb, ok := match(p.Subject, t.Subject, b)
		if !ok {
			continue
		}
		nb, ok = match(p.Predicate, t.Predicate, nb)
		if !ok {
			continue
		}
		nb, ok = match(p.Object, t.Object, nb)
		if !ok {
			continue
		}
		out = append(out, nb)
	}
	return out
}

// match returns b extended with the slot's binding. b itself is never
// modified.
func match(s Slot, t Term, b Binding) (Binding, bool) {
	if !s.IsVar() {
		return b, s.term == t
	}
	if bound, ok := b[s.variable]; ok {
		return b, bound == t
	}
	nb := b.clone()
	nb[s.variable] = t
	return nb, true
}

func bindingKey(b Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(b[k].String())
		sb.WriteByte(0)
	}
	return sb.String()
}
