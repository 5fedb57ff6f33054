package units

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

var _ ports.Unit = (*RunTestsUnit)(nil)

// DefaultMaxConcurrency bounds the number of test calls in flight when the
// configuration does not.
const DefaultMaxConcurrency = 16

// RunTestsConfig defines the configuration parameters for RunTestsUnit.
type RunTestsConfig struct {
	// MaxConcurrency caps concurrent test calls. The effective limit is the
	// smaller of this and the number of tests.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"min=0,max=256"`
}

// RunTestsUnit produces the result set of an assessment. When the caller
// supplied one it is passed through untouched; otherwise every test of the
// algorithm is invoked against the subject and the outputs are merged.
//
// A test that cannot be called, or answers with an error, becomes a
// diagnostic and is left without a result, which makes it indeterminate
// downstream. Only an unreachable registry or a cancelled assessment stops
// the stage.
type RunTestsUnit struct {
	registry  ports.TestRegistry
	invoker   ports.TestInvoker
	assembler ports.OutputAssembler
	metrics   ports.MetricsCollector
	logger    *slog.Logger
	config    RunTestsConfig
}

// NewRunTestsUnit creates the test execution stage. metrics may be nil.
func NewRunTestsUnit(
	registry ports.TestRegistry,
	invoker ports.TestInvoker,
	assembler ports.OutputAssembler,
	metrics ports.MetricsCollector,
	logger *slog.Logger,
	config RunTestsConfig,
) (*RunTestsUnit, error) {
	switch {
	case registry == nil:
		return nil, fmt.Errorf("%w: test registry", ErrNilDependency)
	case invoker == nil:
		return nil, fmt.Errorf("%w: test invoker", ErrNilDependency)
	case assembler == nil:
		return nil, fmt.Errorf("%w: output assembler", ErrNilDependency)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunTestsUnit{
		registry:  registry,
		invoker:   invoker,
		assembler: assembler,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}, nil
}

// Name returns the stage name.
func (u *RunTestsUnit) Name() string { return NameRunTests }

// testRun is the outcome of one test call.
type testRun struct {
	body       []byte
	diagnostic string
}

// Execute runs the tests or passes a supplied result set through.
func (u *RunTestsUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if rs, ok := domain.Get(state, domain.KeyResultSet); ok && rs != "" {
		return state, nil
	}

	def, ok := domain.Get(state, domain.KeyAlgorithm)
	if !ok || def == nil {
		return state, fmt.Errorf("%w: algorithm definition", ErrMissingState)
	}
	guid, _ := domain.Get(state, domain.KeySubjectGUID)
	if guid == "" {
		return state, domain.NewStageError(domain.StageTestExecution, ErrMissingSubject)
	}

	runs := make([]testRun, len(def.Tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(u.config.MaxConcurrency, len(def.Tests))))

	for i, test := range def.Tests {
		g.Go(func() error {
			endpoint, err := u.endpoint(gctx, test)
			if err != nil {
				switch {
				case errors.Is(err, ports.ErrEndpointNotFound):
					runs[i].diagnostic = fmt.Sprintf("test %s (%s): no endpoint registered", test.Reference, test.TestIdentifier)
					u.logger.Warn("test has no registered endpoint",
						"reference", test.Reference, "test", test.TestIdentifier)
				case errors.Is(err, ports.ErrInvalidIRI):
					runs[i].diagnostic = fmt.Sprintf("test %s (%s): test identifier is not a valid IRI", test.Reference, test.TestIdentifier)
					u.logger.Warn("test identifier is not a valid IRI",
						"reference", test.Reference, "test", test.TestIdentifier)
				default:
					return domain.NewStageError(domain.StageRegistry, err)
				}
				return nil
			}

			u.gauge(1)
			start := time.Now()
			body, err := u.invoker.Invoke(gctx, endpoint, guid)
			u.gauge(-1)

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				runs[i].diagnostic = fmt.Sprintf("test %s (%s): %v", test.Reference, endpoint, err)
				u.logger.Warn("test invocation failed",
					"reference", test.Reference, "endpoint", endpoint, "error", err)
				return nil
			}
			u.logger.Debug("test invoked",
				"reference", test.Reference, "endpoint", endpoint, "duration", time.Since(start))
			runs[i].body = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, domain.NewStageError(domain.StageTestExecution, err)
	}
	if err := ctx.Err(); err != nil {
		return state, domain.NewStageError(domain.StageTestExecution, err)
	}

	req := ports.ResultSetRequest{
		SubjectGUID:   guid,
		SetIdentifier: def.GUID(),
		BenchmarkGUID: def.BenchmarkGUID,
	}
	var diagnostics []string
	for i, run := range runs {
		if run.diagnostic != "" {
			diagnostics = append(diagnostics, run.diagnostic)
			continue
		}
		req.Outputs = append(req.Outputs, ports.TestOutput{
			TestIdentifier: def.Tests[i].TestIdentifier,
			Body:           run.body,
		})
	}

	resultSet, err := u.assembler.Assemble(ctx, req)
	if err != nil {
		return state, domain.NewStageError(domain.StageTestExecution, fmt.Errorf("assembling result set: %w", err))
	}

	state = domain.With(state, domain.KeyResultSet, resultSet)
	return domain.AppendDiagnostics(state, diagnostics...), nil
}

// endpoint returns the test's configured endpoint or asks the registry.
func (u *RunTestsUnit) endpoint(ctx context.Context, test domain.TestSpec) (string, error) {
	if test.Endpoint != "" {
		return test.Endpoint, nil
	}
	return u.registry.EndpointFor(ctx, test.TestIdentifier)
}

func (u *RunTestsUnit) gauge(delta float64) {
	if u.metrics != nil {
		u.metrics.RecordGauge(ports.MetricTestsInFlight, delta, nil)
	}
}

// Validate checks the unit's collaborators and configuration.
func (u *RunTestsUnit) Validate() error {
	if u.registry == nil || u.invoker == nil || u.assembler == nil {
		return fmt.Errorf("%w: run tests unit is missing a collaborator", ErrNilDependency)
	}
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
