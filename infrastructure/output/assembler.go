// Package output merges the raw responses of individual test services into
// a single provenance-annotated FAIR test result set.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

// URN prefixes of the nodes minted for every result set.
const (
	SetPrefix      = "urn:fairchampionoutput:"
	AuthorPrefix   = "urn:fairchampionauthor:"
	ContactPrefix  = "urn:fairchampioncontact:"
	SoftwarePrefix = "urn:fairchampionsoftware:"
	SubjectPrefix  = "urn:fairtestsetsubject:"
)

// Options describes the result set and the agents it is attributed to.
type Options struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	License     string `yaml:"license"`
	ContactURL  string `yaml:"contact_url"`
	SoftwareURL string `yaml:"software_url"`
}

// DefaultOptions returns the descriptive defaults used when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		Title:       "FAIR Champion output",
		Description: "Results of the execution of test set",
		Version:     "0.0.1",
		License:     "https://creativecommons.org/licenses/by/4.0/",
		ContactURL:  "https://wilkinsonlab.info",
		SoftwareURL: "https://github.com/markwilkinson/FAIR-Champion",
	}
}

// Assembler implements ports.OutputAssembler.
type Assembler struct {
	opts   Options
	codec  rdf.Codec
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

var _ ports.OutputAssembler = (*Assembler)(nil)

// NewAssembler creates an Assembler. Empty option fields take their
// defaults. Remote @context references in test outputs are refused unless
// WithContexts supplies a loader.
func NewAssembler(opts Options, logger *slog.Logger) *Assembler {
	def := DefaultOptions()
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.Description == "" {
		opts.Description = def.Description
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}
	if opts.License == "" {
		opts.License = def.License
	}
	if opts.ContactURL == "" {
		opts.ContactURL = def.ContactURL
	}
	if opts.SoftwareURL == "" {
		opts.SoftwareURL = def.SoftwareURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		opts:   opts,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// WithContexts resolves remote @context references of test outputs
// through loader.
func (a *Assembler) WithContexts(loader *rdf.ContextLoader) *Assembler {
	a.codec = rdf.Codec{Contexts: loader}
	return a
}

// Assemble builds the result set and serializes it as JSON-LD.
func (a *Assembler) Assemble(ctx context.Context, req ports.ResultSetRequest) (string, error) {
	g, err := a.Build(ctx, req)
	if err != nil {
		return "", err
	}
	data, err := a.codec.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("serializing result set: %w", err)
	}
	return string(data), nil
}

// Build returns the result set graph. Every statement of every parseable
// output is carried through; each body's blank nodes are scoped to that
// body. Outputs that are not JSON-LD are skipped with a warning.
func (a *Assembler) Build(ctx context.Context, req ports.ResultSetRequest) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	typ := rdf.IRI(rdf.RDFType)
	set := rdf.IRI(SetPrefix + a.newID())

	g.Add(set, typ, rdf.IRI(rdf.FTRTestResultSet))
	g.Add(set, typ, rdf.IRI(rdf.PROVCollection))
	g.Add(set, typ, rdf.IRI(rdf.PROVEntity))
	g.Add(set, rdf.IRI(rdf.SchemaIdentifier), set)
	g.Add(set, rdf.IRI(rdf.SchemaName), Object(a.opts.Title))
	g.Add(set, rdf.IRI(rdf.SchemaDescription), Object(strings.TrimSpace(a.opts.Description+" "+req.SetIdentifier)))
	g.Add(set, rdf.IRI(rdf.SchemaLicense), Object(a.opts.License))
	g.Add(set, rdf.IRI(rdf.PROVGeneratedAtTime),
		rdf.TypedLiteral(a.now().UTC().Format(time.RFC3339), rdf.XSDDateTime))
	if req.BenchmarkGUID != "" {
		g.Add(set, rdf.IRI(rdf.DCConformsTo), rdf.IRI(req.BenchmarkGUID))
	}

	author := rdf.IRI(AuthorPrefix + a.newID())
	contact := rdf.IRI(ContactPrefix + a.newID())
	g.Add(set, rdf.IRI(rdf.PROVWasAttributedTo), author)
	g.Add(set, rdf.IRI(rdf.SchemaAuthor), author)
	g.Add(author, typ, rdf.IRI(rdf.PROVAgent))
	g.Add(author, rdf.IRI(rdf.SchemaContactPoint), contact)
	g.Add(contact, typ, rdf.IRI(rdf.SchemaContactPointType))
	g.Add(contact, rdf.IRI(rdf.SchemaURL), Object(a.opts.ContactURL))

	software := rdf.IRI(SoftwarePrefix + a.newID())
	g.Add(set, rdf.IRI(rdf.PROVWasAttributedTo), software)
	g.Add(software, typ, rdf.IRI(rdf.PROVSoftwareAgent))
	g.Add(software, typ, rdf.IRI(rdf.SchemaSoftwareApplication))
	g.Add(software, rdf.IRI(rdf.SchemaSoftwareVersion), rdf.Literal(a.opts.Version))
	g.Add(software, rdf.IRI(rdf.SchemaURL), Object(a.opts.SoftwareURL))

	for i, out := range req.Outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := a.codec.Parse(ctx, out.Body)
		if err != nil {
			a.logger.Warn("skipping unparseable test output",
				"test", out.TestIdentifier, "error", err)
			continue
		}
		scope := fmt.Sprintf("t%d_", i)
		g.Import(body, scope)
		for _, result := range body.SubjectsOfType(rdf.FTRTestResult) {
			if result.IsBlank() {
				result = rdf.Blank(scope + result.Value)
			}
			g.Add(set, rdf.IRI(rdf.PROVHadMember), result)
		}
	}

	subject := rdf.IRI(SubjectPrefix + a.newID())
	g.Add(set, rdf.IRI(rdf.PROVWasDerivedFrom), subject)
	g.Add(subject, typ, rdf.IRI(rdf.PROVEntity))
	g.Add(subject, rdf.IRI(rdf.SchemaIdentifier), Object(req.SubjectGUID))
	if rdf.LooksLikeHTTPURI(req.SubjectGUID) {
		g.Add(subject, rdf.IRI(rdf.SchemaURL), rdf.IRI(strings.TrimSpace(req.SubjectGUID)))
	}
	return g, nil
}
