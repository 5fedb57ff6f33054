package rdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// ErrInvalidJSONLD indicates that a document could not be decoded as JSON-LD.
var ErrInvalidJSONLD = errors.New("invalid JSON-LD document")

const defaultGraph = "@default"

// Codec converts between JSON-LD documents and Graphs. The zero value
// refuses remote @context references.
type Codec struct {
	// Contexts resolves remote @context references. Nil refuses them.
	Contexts *ContextLoader
}

func (c Codec) options(ctx context.Context) *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = c.Contexts.bind(ctx)
	return opts
}

// Parse decodes a JSON-LD document into a graph. Statements of named graphs
// are flattened into the returned graph.
func (c Codec) Parse(ctx context.Context, data []byte) (*Graph, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSONLD, err)
	}
	return c.ParseDocument(ctx, doc)
}

// ParseDocument converts an already unmarshalled JSON-LD document.
func (c Codec) ParseDocument(ctx context.Context, doc any) (*Graph, error) {
	proc := ld.NewJsonLdProcessor()
	out, err := proc.ToRDF(doc, c.options(ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSONLD, err)
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected dataset type %T", ErrInvalidJSONLD, out)
	}

	names := make([]string, 0, len(ds.Graphs))
	for name := range ds.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)

	g := NewGraph()
	for _, name := range names {
		for _, q := range ds.Graphs[name] {
			s, err := fromNode(q.Subject)
			if err != nil {
				return nil, err
			}
			p, err := fromNode(q.Predicate)
			if err != nil {
				return nil, err
			}
			o, err := fromNode(q.Object)
			if err != nil {
				return nil, err
			}
			g.Add(s, p, o)
		}
	}
	return g, nil
}

// MarshalJSONLD serializes g as compacted JSON-LD using the vocabulary
// prefixes as context.
func (g *Graph) MarshalJSONLD() ([]byte, error) { return Codec{}.Marshal(g) }

// Marshal serializes g as compacted JSON-LD.
func (c Codec) Marshal(g *Graph) ([]byte, error) {
	doc, err := c.Document(g)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Document returns the compacted JSON-LD form of g as a generic value.
func (c Codec) Document(g *Graph) (map[string]any, error) {
	ds := ld.NewRDFDataset()
	quads := make([]*ld.Quad, 0, g.Len())
	if g != nil {
		for _, t := range g.triples {
			quads = append(quads, ld.NewQuad(toNode(t.Subject), toNode(t.Predicate), toNode(t.Object), defaultGraph))
		}
	}
	ds.Graphs[defaultGraph] = quads

	// The dataset is converted directly; the processor's FromRDF only
	// accepts serialized input.
	opts := c.options(context.Background())
	expanded, err := ld.NewJsonLdApi().FromRDF(ds, opts)
	if err != nil {
		return nil, fmt.Errorf("serializing graph: %w", err)
	}

	prefixes := make(map[string]any, len(Prefixes))
	for prefix, ns := range Prefixes {
		prefixes[prefix] = ns
	}
	compacted, err := ld.NewJsonLdProcessor().Compact(expanded, map[string]any{"@context": prefixes}, opts)
	if err != nil {
		return nil, fmt.Errorf("compacting graph: %w", err)
	}
	return compacted, nil
}

// MarshalJSON lets graphs embed directly in JSON responses as JSON-LD.
func (g *Graph) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("null"), nil
	}
	return g.MarshalJSONLD()
}

func fromNode(n ld.Node) (Term, error) {
	switch v := n.(type) {
	case *ld.IRI:
		return IRI(v.Value), nil
	case *ld.BlankNode:
		return Blank(v.Attribute), nil
	case *ld.Literal:
		dt := v.Datatype
		if dt == "" {
			dt = XSDString
		}
		return Term{Kind: KindLiteral, Value: v.Value, Datatype: dt, Language: v.Language}, nil
	default:
		return Term{}, fmt.Errorf("%w: unsupported node %T", ErrInvalidJSONLD, n)
	}
}

func toNode(t Term) ld.Node {
	switch t.Kind {
	case KindBlank:
		return ld.NewBlankNode("_:" + strings.TrimPrefix(t.Value, "_:"))
	case KindLiteral:
		return ld.NewLiteral(t.Value, t.Datatype, t.Language)
	default:
		return ld.NewIRI(t.Value)
	}
}
