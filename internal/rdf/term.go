// Package rdf provides a minimal in-memory triple graph with basic graph
// pattern matching and JSON-LD encoding. It is not a general purpose RDF
// store: graphs are small, owned by a single assessment and never shared
// for concurrent mutation.
package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// TermKind distinguishes the three RDF term types.
type TermKind int

const (
	// KindIRI is an absolute IRI reference.
	KindIRI TermKind = iota + 1
	// KindBlank is a blank node scoped to the graph that holds it.
	KindBlank
	// KindLiteral is a literal value with an optional datatype or language.
	KindLiteral
)

// Term is an RDF term. Terms are comparable and may be used as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

// IRI returns an IRI term.
func IRI(value string) Term { return Term{Kind: KindIRI, Value: value} }

// Blank returns a blank node term. A leading "_:" is stripped.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")}
}

// Literal returns a plain xsd:string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: XSDString}
}

// TypedLiteral returns a literal with the given datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: RDFLangString, Language: lang}
}

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool { return t.Kind == 0 }

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether t is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String renders t in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		switch {
		case t.Language != "":
			return s + "@" + t.Language
		case t.Datatype != "" && t.Datatype != XSDString:
			return s + "^^<" + t.Datatype + ">"
		default:
			return s
		}
	default:
		return fmt.Sprintf("<invalid term %q>", t.Value)
	}
}

// Triple is a single subject, predicate, object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String renders the triple as one N-Triples line without a trailing newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// LooksLikeHTTPURI reports whether s is an absolute http or https URI.
func LooksLikeHTTPURI(s string) bool {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	lower := strings.ToLower(s)
	return (strings.HasPrefix(lower, "http://") && len(s) > len("http://")) ||
		(strings.HasPrefix(lower, "https://") && len(s) > len("https://"))
}
