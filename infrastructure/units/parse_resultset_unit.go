package units

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

var _ ports.Unit = (*ParseResultSetUnit)(nil)

// ErrInvalidResultSet is returned when the result set is not JSON-LD.
var ErrInvalidResultSet = errors.New("result set is not valid JSON-LD")

// ParseResultSetUnit parses the result set once, reads the assessed subject
// back out of it and records exactly one result per test.
type ParseResultSetUnit struct {
	codec   rdf.Codec
	metrics ports.MetricsCollector
	logger  *slog.Logger
}

// NewParseResultSetUnit creates the result set stage. metrics may be nil.
func NewParseResultSetUnit(codec rdf.Codec, metrics ports.MetricsCollector, logger *slog.Logger) *ParseResultSetUnit {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseResultSetUnit{codec: codec, metrics: metrics, logger: logger}
}

// Name returns the stage name.
func (u *ParseResultSetUnit) Name() string { return NameParseResultSet }

// Execute parses the result set and computes per-test results.
func (u *ParseResultSetUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	def, ok := domain.Get(state, domain.KeyAlgorithm)
	if !ok || def == nil {
		return state, fmt.Errorf("%w: algorithm definition", ErrMissingState)
	}
	rs, ok := domain.Get(state, domain.KeyResultSet)
	if !ok {
		return state, fmt.Errorf("%w: result set", ErrMissingState)
	}

	g, err := u.codec.Parse(ctx, []byte(rs))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return state, ctxErr
		}
		return state, domain.NewStageError(domain.StageResultSet, fmt.Errorf("%w: %v", ErrInvalidResultSet, err))
	}

	tested := algorithm.TestedGUID(g)
	if tested == "" {
		tested, _ = domain.Get(state, domain.KeySubjectGUID)
	}

	results, diagnostics := algorithm.ProcessResultSet(def.Tests, g)
	missing := 0
	for _, r := range results {
		if r.Result == domain.ResultNotFound {
			missing++
		}
	}
	for _, d := range diagnostics {
		u.logger.Warn("multiple result values for test, taking the first", "detail", d)
	}
	if missing > 0 {
		u.logger.Info("tests without results", "algorithm_id", def.AlgorithmID, "missing", missing)
		if u.metrics != nil {
			u.metrics.RecordCounter(ports.MetricMissingResults, float64(missing),
				map[string]string{"algorithm": def.AlgorithmID})
		}
	}

	state = domain.With(state, domain.KeyTestedGUID, tested)
	state = domain.With(state, domain.KeyTestResults, results)
	return domain.AppendDiagnostics(state, diagnostics...), nil
}

// Validate always succeeds; the unit has no required collaborators.
func (u *ParseResultSetUnit) Validate() error { return nil }
