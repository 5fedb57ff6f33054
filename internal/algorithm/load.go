package algorithm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/formula"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

// Loader fetches, parses and describes scoring algorithms.
type Loader struct {
	source  ports.ConfigSource
	baseURI string
	builder *MetadataBuilder
	logger  *slog.Logger
}

// NewLoader creates a Loader. baseURI is the public root under which
// algorithm identifiers and endpoints are minted.
func NewLoader(source ports.ConfigSource, baseURI string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source:  source,
		baseURI: baseURI,
		builder: NewMetadataBuilder(logger),
		logger:  logger,
	}
}

// Load fetches the configuration export of calculationURI and returns the
// loaded definition with its metadata graph. Either both are returned or
// an error is; there is no partial definition.
func (l *Loader) Load(ctx context.Context, calculationURI string) (*domain.AlgorithmDefinition, *rdf.Graph, error) {
	if calculationURI == "" {
		return nil, nil, fmt.Errorf("calculation uri: %w", domain.ErrEmptyValue)
	}
	lines, err := l.source.Fetch(ctx, calculationURI)
	if err != nil {
		return nil, nil, err
	}
	return l.FromLines(calculationURI, lines)
}

// FromLines builds a definition from already fetched export lines.
func (l *Loader) FromLines(calculationURI string, lines []string) (*domain.AlgorithmDefinition, *rdf.Graph, error) {
	cfg, err := ParseConfig(lines)
	if err != nil {
		return nil, nil, err
	}

	def := &domain.AlgorithmDefinition{
		AlgorithmID:    ID(calculationURI),
		CalculationURI: calculationURI,
		BaseURI:        l.baseURI,
		Metadata:       cfg.Metadata,
		Tests:          cfg.Tests,
		Conditions:     cfg.Conditions,
	}
	graph, benchmark := l.builder.Build(def)
	def.BenchmarkGUID = benchmark

	l.checkFormulas(def)
	l.logger.Info("algorithm configuration loaded",
		"algorithm_id", def.AlgorithmID,
		"tests", len(def.Tests),
		"conditions", len(def.Conditions),
		"benchmark", def.BenchmarkGUID)
	return def, graph, nil
}

// checkFormulas warns about formulas that reference unknown tests. Such
// formulas still load; they evaluate to a diagnostic narrative.
func (l *Loader) checkFormulas(def *domain.AlgorithmDefinition) {
	for _, c := range def.Conditions {
		ids, err := formula.Identifiers(c.Formula)
		if err != nil {
			l.logger.Warn("condition formula does not lex", "condition", c.ID, "formula", c.Formula, "error", err)
			continue
		}
		for _, id := range ids {
			if _, ok := def.TestByReference(id); !ok {
				l.logger.Warn("condition references unknown test", "condition", c.ID, "reference", id)
			}
		}
	}
}
