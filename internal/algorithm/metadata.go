package algorithm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/rdf"
)

// propertyPredicates maps normalised metadata property names to predicates.
var propertyPredicates = map[string]string{
	"title":               rdf.DCTitle,
	"version":             rdf.DCATVersion,
	"description":         rdf.DCDescription,
	"endpointdescription": rdf.DCATEndpointDescription,
	"endpointurl":         rdf.DCATEndpointURL,
	"keyword":             rdf.DCATKeyword,
	"keywords":            rdf.DCATKeyword,
	"license":             rdf.DCLicense,
	"applicationarea":     rdf.FTRApplicationArea,
	"isimplementationof":  rdf.SIOIsImplementationOf,
	"sio000233":           rdf.SIOIsImplementationOf,
	"benchmarkguid":       rdf.SIOIsImplementationOf,
	"scoringfunction":     rdf.FTRScoringFunction,
	"contactpoint":        rdf.DCATContactPoint,
}

// knownProperties lists the table keys for suggestions.
var knownProperties = func() []string {
	out := make([]string, 0, len(propertyPredicates))
	for k := range propertyPredicates {
		out = append(out, k)
	}
	return out
}()

// NormalizeProperty reduces a property name to its lookup key: the local
// name after any prefix or namespace, case folded, without spaces,
// underscores or hyphens. "dcterms:title", "Title" and
// "http://purl.org/dc/terms/title" all normalise to "title".
func NormalizeProperty(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, ":/#"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	name = foldName(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, name)
}

// PredicateFor returns the predicate for a metadata property name.
func PredicateFor(property string) (string, bool) {
	p, ok := propertyPredicates[NormalizeProperty(property)]
	return p, ok
}

// MetadataBuilder describes an algorithm as a DCAT data service.
type MetadataBuilder struct {
	logger *slog.Logger
}

// NewMetadataBuilder creates a builder. A nil logger uses slog.Default.
func NewMetadataBuilder(logger *slog.Logger) *MetadataBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataBuilder{logger: logger}
}

// Build returns the metadata graph of def and the benchmark GUID declared by
// its isImplementationOf property, or "" when there is none.
func (b *MetadataBuilder) Build(def *domain.AlgorithmDefinition) (*rdf.Graph, string) {
	g := rdf.NewGraph()
	algo := rdf.IRI(def.GUID())
	typ := rdf.IRI(rdf.RDFType)

	g.Add(algo, typ, rdf.IRI(rdf.FTRScoringAlgorithm))
	g.Add(algo, typ, rdf.IRI(rdf.DCATDataService))
	g.Add(algo, rdf.IRI(rdf.DCIdentifier), algo)
	g.Add(algo, rdf.IRI(rdf.DCATEndpointURL), rdf.IRI(def.AssessURL()))
	g.Add(algo, rdf.IRI(rdf.DCATEndpointDescription), algo)
	if def.CalculationURI != "" {
		g.Add(algo, rdf.IRI(rdf.DCSource), valueTerm(def.CalculationURI))
	}

	var benchmark string
	contacts := 0
	for _, m := range def.Metadata {
		if m.Value == "" {
			continue
		}
		pred, ok := PredicateFor(m.Property)
		if !ok {
			b.logger.Debug("unknown metadata property",
				"property", m.Property,
				"suggestion", suggestProperty(m.Property))
			g.Add(algo, rdf.IRI(rdf.FTRUnknownProperty), rdf.Literal(m.Property+": "+m.Value))
			continue
		}

		switch pred {
		case rdf.DCATContactPoint:
			contact := rdf.Blank(fmt.Sprintf("contact%d", contacts))
			contacts++
			g.Add(algo, rdf.IRI(rdf.DCATContactPoint), contact)
			g.Add(contact, typ, rdf.IRI(rdf.VCardIndividual))
			g.Add(contact, rdf.IRI(rdf.VCardHasEmail), rdf.Literal(m.Value))
		case rdf.DCATKeyword:
			for _, kw := range strings.Split(m.Value, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					g.Add(algo, rdf.IRI(pred), valueTerm(kw))
				}
			}
		case rdf.SIOIsImplementationOf:
			if benchmark == "" {
				benchmark = m.Value
			}
			g.Add(algo, rdf.IRI(pred), valueTerm(m.Value))
		default:
			g.Add(algo, rdf.IRI(pred), valueTerm(m.Value))
		}
	}

	for _, t := range def.Tests {
		g.Add(algo, rdf.IRI(rdf.FTRInvokesTest), valueTerm(t.TestIdentifier))
	}
	return g, benchmark
}

// valueTerm emits absolute HTTP(S) URIs as resources and everything else
// as plain literals.
func valueTerm(v string) rdf.Term {
	v = strings.TrimSpace(v)
	if rdf.LooksLikeHTTPURI(v) {
		return rdf.IRI(v)
	}
	return rdf.Literal(v)
}

// suggestProperty returns the known property closest to name by edit
// distance.
func suggestProperty(name string) string {
	norm := NormalizeProperty(name)
	best, bestDist := "", -1
	for _, k := range knownProperties {
		d := levenshtein.ComputeDistance(norm, k)
		if bestDist < 0 || d < bestDist || (d == bestDist && k < best) {
			best, bestDist = k, d
		}
	}
	return best
}
