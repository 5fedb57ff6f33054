package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-champion/infrastructure/middleware"
	"github.com/ahrav/go-champion/infrastructure/units"
	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

var (
	// ErrInvalidRequest is returned for assessment requests that name no
	// algorithm or no subject.
	ErrInvalidRequest = errors.New("invalid assessment request")

	// ErrNoAlgorithmRegistry is returned by registry operations when the
	// orchestrator was built without one.
	ErrNoAlgorithmRegistry = errors.New("no algorithm registry configured")
)

// Dependencies are the collaborators of an Orchestrator. Metrics, Observer
// and Logger are optional; Algorithms is needed only for the registry
// operations. A nil Contexts refuses remote @context references in
// supplied result sets.
type Dependencies struct {
	Source     ports.ConfigSource
	Tests      ports.TestRegistry
	Invoker    ports.TestInvoker
	Assembler  ports.OutputAssembler
	Algorithms ports.AlgorithmRegistry
	Contexts   *rdf.ContextLoader
	Metrics    ports.MetricsCollector
	Observer   middleware.StageObserver
	Logger     *slog.Logger
}

// Request asks for one assessment. When ResultSet is set the tests are
// not run and GUID is only a fallback for the tested subject.
type Request struct {
	CalculationURI string
	GUID           string
	ResultSet      string
}

// Orchestrator runs assessments through the stage pipeline and fronts the
// algorithm registry.
type Orchestrator struct {
	loader     *algorithm.Loader
	algorithms ports.AlgorithmRegistry
	pipeline   *Pipeline
	logger     *slog.Logger
	newID      func() string
}

// NewOrchestrator validates cfg and assembles the pipeline:
// configuration, test execution, result set parsing and condition
// evaluation, in that order.
func NewOrchestrator(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("%w: configuration source", units.ErrNilDependency)
	}
	loader := algorithm.NewLoader(deps.Source, cfg.BaseURI, deps.Logger)

	load, err := units.NewLoadConfigurationUnit(loader)
	if err != nil {
		return nil, err
	}
	run, err := units.NewRunTestsUnit(deps.Tests, deps.Invoker, deps.Assembler, deps.Metrics, deps.Logger,
		units.RunTestsConfig{MaxConcurrency: cfg.HTTP.MaxConcurrency})
	if err != nil {
		return nil, err
	}

	stages := []struct {
		unit  ports.Unit
		stage string
	}{
		{load, domain.StageConfiguration},
		{run, domain.StageTestExecution},
		{units.NewParseResultSetUnit(rdf.Codec{Contexts: deps.Contexts}, deps.Metrics, deps.Logger), domain.StageResultSet},
		{units.NewEvaluateConditionsUnit(deps.Metrics, deps.Logger), domain.StageConditions},
	}

	pipeline := NewPipeline("assessment")
	for _, s := range stages {
		if err := s.unit.Validate(); err != nil {
			return nil, fmt.Errorf("unit %s: %w", s.unit.Name(), err)
		}
		var unit ports.Unit = s.unit
		if deps.Observer != nil {
			unit = middleware.NewObservedUnit(unit, deps.Observer)
		}
		if err := pipeline.Add(NewUnitAdapter(unit, s.stage)); err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		loader:     loader,
		algorithms: deps.Algorithms,
		pipeline:   pipeline,
		logger:     deps.Logger,
		newID:      uuid.NewString,
	}, nil
}

// Process runs one assessment. Any error is fatal and names the failing
// stage; see StageOf.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*domain.EvaluationOutcome, error) {
	req.CalculationURI = strings.TrimSpace(req.CalculationURI)
	req.GUID = strings.TrimSpace(req.GUID)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	execID := o.newID()
	logger := o.logger.With("execution_id", execID)

	state := domain.With(domain.NewState(), domain.KeyExecutionID, execID)
	state = domain.With(state, domain.KeyCalculationURI, req.CalculationURI)
	state = domain.With(state, domain.KeySubjectGUID, req.GUID)
	if strings.TrimSpace(req.ResultSet) != "" {
		state = domain.With(state, domain.KeyResultSet, req.ResultSet)
	}

	start := time.Now()
	final, err := o.pipeline.Execute(ctx, state)
	if err != nil {
		logger.Error("assessment failed", "stage", StageOf(err), "error", err)
		return nil, err
	}

	outcome := outcomeFrom(final)
	logger.Info("assessment complete",
		"algorithm_id", outcome.AlgorithmID,
		"tested_guid", outcome.TestedGUID,
		"score", outcome.Score,
		"diagnostics", len(outcome.Diagnostics),
		"duration", time.Since(start))
	return outcome, nil
}

// ProcessByID resolves a registered algorithm id and assesses with it.
func (o *Orchestrator) ProcessByID(ctx context.Context, id string, req Request) (*domain.EvaluationOutcome, error) {
	uri, err := o.retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	req.CalculationURI = uri
	return o.Process(ctx, req)
}

// Register loads the algorithm at calculationURI and publishes its
// description to the registry.
func (o *Orchestrator) Register(ctx context.Context, calculationURI string) (*domain.AlgorithmDefinition, error) {
	if o.algorithms == nil {
		return nil, ErrNoAlgorithmRegistry
	}
	def, metadata, err := o.loader.Load(ctx, strings.TrimSpace(calculationURI))
	if err != nil {
		return nil, domain.NewStageError(domain.StageConfiguration, err)
	}
	if err := o.algorithms.Register(ctx, def, metadata); err != nil {
		return nil, domain.NewStageError(domain.StageRegistry, err)
	}
	o.logger.Info("algorithm registered", "algorithm_id", def.AlgorithmID, "guid", def.GUID())
	return def, nil
}

// Describe loads a registered algorithm and its DCAT description.
func (o *Orchestrator) Describe(ctx context.Context, id string) (*domain.AlgorithmDefinition, *rdf.Graph, error) {
	uri, err := o.retrieve(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	def, metadata, err := o.loader.Load(ctx, uri)
	if err != nil {
		return nil, nil, domain.NewStageError(domain.StageConfiguration, err)
	}
	return def, metadata, nil
}

// List returns the registered scoring algorithms.
func (o *Orchestrator) List(ctx context.Context) ([]ports.AlgorithmRecord, error) {
	if o.algorithms == nil {
		return nil, ErrNoAlgorithmRegistry
	}
	records, err := o.algorithms.List(ctx)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRegistry, err)
	}
	return records, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, id string) (string, error) {
	if o.algorithms == nil {
		return "", ErrNoAlgorithmRegistry
	}
	uri, err := o.algorithms.RetrieveByID(ctx, id)
	if err != nil {
		return "", domain.NewStageError(domain.StageRegistry, err)
	}
	return uri, nil
}

func validateRequest(req Request) error {
	verr := domain.NewValidationError("assessment request")
	if req.CalculationURI == "" {
		verr.AddError("calculation uri is required")
	}
	if req.GUID == "" && strings.TrimSpace(req.ResultSet) == "" {
		verr.AddError("a guid or a result set is required")
	}
	if verr.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, verr)
	}
	return nil
}

// StageOf returns the stage a fatal error is attributed to, or "" when
// the error carries none.
func StageOf(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// outcomeFrom reads the finished pipeline state.
func outcomeFrom(state domain.State) *domain.EvaluationOutcome {
	def, _ := domain.Get(state, domain.KeyAlgorithm)
	metadata, _ := domain.Get(state, domain.KeyMetadata)
	results, _ := domain.Get(state, domain.KeyTestResults)
	narratives, _ := domain.Get(state, domain.KeyNarratives)
	guidances, _ := domain.Get(state, domain.KeyGuidances)
	resultSet, _ := domain.Get(state, domain.KeyResultSet)
	tested, _ := domain.Get(state, domain.KeyTestedGUID)
	diagnostics, _ := domain.Get(state, domain.KeyDiagnostics)

	return &domain.EvaluationOutcome{
		AlgorithmID:   def.AlgorithmID,
		AlgorithmGUID: def.GUID(),
		Metadata:      metadata,
		TestResults:   results,
		Narratives:    narratives,
		Guidances:     guidances,
		ResultSet:     resultSet,
		TestedGUID:    tested,
		Score:         domain.TotalWeight(results),
		Diagnostics:   diagnostics,
	}
}
