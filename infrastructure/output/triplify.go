package output

import (
	"regexp"
	"strings"

	"github.com/ahrav/go-champion/internal/rdf"
)

var (
	uriLike     = regexp.MustCompile(`\A\w+:/?/?\w[^\s]+\z`)
	timestamp   = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d`)
	decimalLike = regexp.MustCompile(`^[+-]?\d+\.\d+$`)
	integerLike = regexp.MustCompile(`^[+-]?\d+$`)
)

// Object types a generated value: URI-looking strings become resources,
// ISO timestamps xsd:date, decimals xsd:float, integers xsd:int and anything
// else a plain string literal.
func Object(value string) rdf.Term {
	v := strings.TrimSpace(value)
	switch {
	case uriLike.MatchString(v):
		return rdf.IRI(v)
	case timestamp.MatchString(v):
		return rdf.TypedLiteral(v, rdf.XSDDate)
	case decimalLike.MatchString(v):
		return rdf.TypedLiteral(v, rdf.XSDFloat)
	case integerLike.MatchString(v):
		return rdf.TypedLiteral(v, rdf.XSDInt)
	default:
		return rdf.Literal(v)
	}
}
