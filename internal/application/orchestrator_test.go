package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-champion/infrastructure/configsource"
	"github.com/ahrav/go-champion/infrastructure/middleware"
	"github.com/ahrav/go-champion/infrastructure/output"
	"github.com/ahrav/go-champion/infrastructure/testclient"
	"github.com/ahrav/go-champion/infrastructure/units"
	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
	"github.com/ahrav/go-champion/internal/testutils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryAlgorithms is an in-memory ports.AlgorithmRegistry.
type memoryAlgorithms struct {
	mu      sync.Mutex
	records map[string]ports.AlgorithmRecord
	err     error
}

func newMemoryAlgorithms() *memoryAlgorithms {
	return &memoryAlgorithms{records: make(map[string]ports.AlgorithmRecord)}
}

func (m *memoryAlgorithms) Register(_ context.Context, def *domain.AlgorithmDefinition, metadata *rdf.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	var title string
	if titles := metadata.Objects(rdf.IRI(def.GUID()), rdf.IRI(rdf.DCTitle)); len(titles) > 0 {
		title = titles[0].Value
	}
	m.records[def.AlgorithmID] = ports.AlgorithmRecord{
		ID:             def.AlgorithmID,
		GUID:           def.GUID(),
		CalculationURI: def.CalculationURI,
		Title:          title,
	}
	return nil
}

func (m *memoryAlgorithms) RetrieveByID(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return "", ports.NewRegistryError(id, "retrieve", fmt.Errorf("%w: %s", ports.ErrAlgorithmNotFound, id))
	}
	return rec.CalculationURI, nil
}

func (m *memoryAlgorithms) List(context.Context) ([]ports.AlgorithmRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]ports.AlgorithmRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// recordingObserver records the stages it sees, in order.
type recordingObserver struct {
	mu     sync.Mutex
	stages []string
	errs   []error
}

func (r *recordingObserver) PreExecute(ctx context.Context, _ string, _ domain.State) context.Context {
	return ctx
}

func (r *recordingObserver) PostExecute(_ context.Context, stage string, _ domain.State, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	r.errs = append(r.errs, err)
}

// fixture bundles an orchestrator with the fakes behind it.
type fixture struct {
	cfg        Config
	service    *testutils.TestService
	tests      *testutils.MockTestRegistry
	algorithms *memoryAlgorithms
	observer   *recordingObserver
	orch       *Orchestrator
}

func newFixture(t *testing.T, results map[string]string) *fixture {
	t.Helper()
	service := testutils.NewTestService(results)
	t.Cleanup(service.Close)

	logger := discardLogger()
	f := &fixture{
		cfg:        DefaultConfig(),
		service:    service,
		tests:      testutils.NewMockTestRegistry(service.Endpoints()),
		algorithms: newMemoryAlgorithms(),
		observer:   &recordingObserver{},
	}
	orch, err := NewOrchestrator(f.cfg, Dependencies{
		Source:     configsource.New(configsource.Config{Timeout: 5 * time.Second}, logger),
		Tests:      f.tests,
		Invoker:    testclient.NewClient(testclient.Config{Timeout: 5 * time.Second}),
		Assembler:  output.NewAssembler(output.DefaultOptions(), logger),
		Algorithms: f.algorithms,
		Observer:   f.observer,
		Logger:     logger,
	})
	require.NoError(t, err)
	f.orch = orch
	return f
}

func TestOrchestrator_Process(t *testing.T) {
	const subject = testutils.SampleSubject

	tests := []struct {
		name    string
		results map[string]string
		verify  func(t *testing.T, f *fixture, outcome *domain.EvaluationOutcome)
	}{
		{
			name:    "indexing test fails",
			results: map[string]string{"t1": "pass", "t2": "pass", "t3": "fail"},
			verify: func(t *testing.T, f *fixture, outcome *domain.EvaluationOutcome) {
				assert.Equal(t, testutils.SampleAlgorithmID, outcome.AlgorithmID)
				assert.Equal(t, domain.AlgorithmGUID(f.cfg.BaseURI, testutils.SampleAlgorithmID), outcome.AlgorithmGUID)
				assert.Equal(t, 4.0, outcome.Score)
				assert.Equal(t, subject, outcome.TestedGUID)
				assert.Equal(t, []string{"Identifiers resolve", "Metadata is not indexed", "Needs work"}, outcome.Narratives)
				assert.Len(t, outcome.Guidances[1], 2)
				assert.Empty(t, outcome.Diagnostics)
				assert.NotNil(t, outcome.Metadata)
				assert.NotEmpty(t, outcome.ResultSet)
				assert.Equal(t, []string{subject, subject, subject}, f.service.Subjects())
			},
		},
		{
			name:    "all tests pass",
			results: map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"},
			verify: func(t *testing.T, _ *fixture, outcome *domain.EvaluationOutcome) {
				assert.Equal(t, 6.0, outcome.Score)
				assert.Equal(t, []string{"Identifiers resolve", "Metadata is indexed", "Good overall"}, outcome.Narratives)
			},
		},
		{
			name:    "a crashing test is indeterminate",
			results: map[string]string{"t1": "pass", "t2": testutils.ServiceError, "t3": "pass"},
			verify: func(t *testing.T, _ *fixture, outcome *domain.EvaluationOutcome) {
				assert.Equal(t, domain.ResultRecord{Result: domain.ResultNotFound, Weight: 1}, outcome.TestResults["T2"])
				assert.Equal(t, 5.0, outcome.Score)
				require.Len(t, outcome.Diagnostics, 1)
				assert.Contains(t, outcome.Diagnostics[0], "test T2")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.results)
			outcome, err := f.orch.Process(context.Background(), Request{
				CalculationURI: f.service.CalculationURI(),
				GUID:           subject,
			})
			require.NoError(t, err)
			tt.verify(t, f, outcome)

			assert.Equal(t, []string{
				units.NameLoadConfiguration,
				units.NameRunTests,
				units.NameParseResultSet,
				units.NameEvaluateConditions,
			}, f.observer.stages)
		})
	}
}

// TestOrchestrator_ProcessResultSet verifies a supplied result set is scored
// without calling any test.
func TestOrchestrator_ProcessResultSet(t *testing.T) {
	f := newFixture(t, map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"})

	rs, err := output.NewAssembler(output.DefaultOptions(), nil).Assemble(context.Background(), ports.ResultSetRequest{
		SubjectGUID: testutils.SampleSubject,
		Outputs: []ports.TestOutput{
			{TestIdentifier: testutils.TestT1, Body: testutils.ResultDocument(testutils.TestT1, testutils.SampleSubject, "pass")},
			{TestIdentifier: testutils.TestT2, Body: testutils.ResultDocument(testutils.TestT2, testutils.SampleSubject, "pass")},
			{TestIdentifier: testutils.TestT3, Body: testutils.ResultDocument(testutils.TestT3, testutils.SampleSubject, "pass")},
		},
	})
	require.NoError(t, err)

	outcome, err := f.orch.Process(context.Background(), Request{
		CalculationURI: f.service.CalculationURI(),
		ResultSet:      rs,
	})
	require.NoError(t, err)

	assert.Equal(t, 6.0, outcome.Score)
	assert.Equal(t, testutils.SampleSubject, outcome.TestedGUID)
	assert.Equal(t, rs, outcome.ResultSet)
	assert.Empty(t, f.service.Subjects(), "no test may be called")
	assert.Empty(t, f.tests.Calls())
	assert.Equal(t, 1, f.service.Exports())
}

func TestOrchestrator_ProcessErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       func(f *fixture) Request
		setup     func(f *fixture)
		wantErr   error
		wantStage string
	}{
		{
			name:    "missing calculation uri",
			req:     func(*fixture) Request { return Request{GUID: testutils.SampleSubject} },
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "no subject and no result set",
			req:     func(f *fixture) Request { return Request{CalculationURI: f.service.CalculationURI()} },
			wantErr: ErrInvalidRequest,
		},
		{
			name: "export not found",
			req: func(f *fixture) Request {
				return Request{CalculationURI: f.service.URL + "/missing/edit", GUID: testutils.SampleSubject}
			},
			wantStage: domain.StageConfiguration,
		},
		{
			name: "registry outage",
			req: func(f *fixture) Request {
				return Request{CalculationURI: f.service.CalculationURI(), GUID: testutils.SampleSubject}
			},
			setup:     func(f *fixture) { f.tests.Err = ports.ErrServiceUnavailable },
			wantErr:   ports.ErrServiceUnavailable,
			wantStage: domain.StageRegistry,
		},
		{
			name: "unparseable result set",
			req: func(f *fixture) Request {
				return Request{CalculationURI: f.service.CalculationURI(), ResultSet: "not json"}
			},
			wantErr:   units.ErrInvalidResultSet,
			wantStage: domain.StageResultSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"})
			if tt.setup != nil {
				tt.setup(f)
			}

			outcome, err := f.orch.Process(context.Background(), tt.req(f))
			require.Error(t, err)
			assert.Nil(t, outcome)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if errors.Is(err, ErrInvalidRequest) {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Len(t, verr.Errors, 1)
			}
			assert.Equal(t, tt.wantStage, StageOf(err))
		})
	}
}

func TestOrchestrator_Registry(t *testing.T) {
	f := newFixture(t, map[string]string{"t1": "pass", "t2": "pass", "t3": "fail"})
	ctx := context.Background()

	def, err := f.orch.Register(ctx, f.service.CalculationURI())
	require.NoError(t, err)
	assert.Equal(t, testutils.SampleAlgorithmID, def.AlgorithmID)

	records, err := f.orch.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sample findability algorithm", records[0].Title)
	assert.Equal(t, def.GUID(), records[0].GUID)

	described, metadata, err := f.orch.Describe(ctx, testutils.SampleAlgorithmID)
	require.NoError(t, err)
	assert.Equal(t, def.CalculationURI, described.CalculationURI)
	assert.NotNil(t, metadata)

	outcome, err := f.orch.ProcessByID(ctx, testutils.SampleAlgorithmID, Request{GUID: testutils.SampleSubject})
	require.NoError(t, err)
	assert.Equal(t, 4.0, outcome.Score)

	_, err = f.orch.ProcessByID(ctx, "unknown", Request{GUID: testutils.SampleSubject})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrAlgorithmNotFound)
	assert.Equal(t, domain.StageRegistry, StageOf(err))

	_, _, err = f.orch.Describe(ctx, "unknown")
	assert.ErrorIs(t, err, ports.ErrAlgorithmNotFound)
}

func TestOrchestrator_RegistryFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.orch.Register(ctx, f.service.URL+"/missing/edit")
	require.Error(t, err)
	assert.Equal(t, domain.StageConfiguration, StageOf(err))

	f.algorithms.err = ports.ErrServiceUnavailable
	_, err = f.orch.Register(ctx, f.service.CalculationURI())
	assert.ErrorIs(t, err, ports.ErrServiceUnavailable)
	assert.Equal(t, domain.StageRegistry, StageOf(err))

	_, err = f.orch.List(ctx)
	assert.ErrorIs(t, err, ports.ErrServiceUnavailable)
}

func TestOrchestrator_WithoutAlgorithmRegistry(t *testing.T) {
	orch, err := NewOrchestrator(DefaultConfig(), Dependencies{
		Source:    configsource.New(configsource.Config{}, nil),
		Tests:     testutils.NewMockTestRegistry(nil),
		Invoker:   testclient.Wrap(testclient.NewMockCore()),
		Assembler: output.NewAssembler(output.DefaultOptions(), nil),
	})
	require.NoError(t, err)

	_, err = orch.List(context.Background())
	assert.ErrorIs(t, err, ErrNoAlgorithmRegistry)
	_, err = orch.Register(context.Background(), testutils.SampleCalculationURI)
	assert.ErrorIs(t, err, ErrNoAlgorithmRegistry)
	_, err = orch.ProcessByID(context.Background(), "x", Request{GUID: testutils.SampleSubject})
	assert.ErrorIs(t, err, ErrNoAlgorithmRegistry)
}

func TestNewOrchestrator_Validation(t *testing.T) {
	deps := func() Dependencies {
		return Dependencies{
			Source:    configsource.New(configsource.Config{}, nil),
			Tests:     testutils.NewMockTestRegistry(nil),
			Invoker:   testclient.Wrap(testclient.NewMockCore()),
			Assembler: output.NewAssembler(output.DefaultOptions(), nil),
		}
	}

	tests := []struct {
		name    string
		cfg     func() Config
		deps    func() Dependencies
		wantErr error
		errMsg  string
	}{
		{
			name: "invalid config",
			cfg: func() Config {
				cfg := DefaultConfig()
				cfg.BaseURI = "not a url"
				return cfg
			},
			deps:   deps,
			errMsg: "config validation failed",
		},
		{
			name: "no configuration source",
			cfg:  DefaultConfig,
			deps: func() Dependencies {
				d := deps()
				d.Source = nil
				return d
			},
			wantErr: units.ErrNilDependency,
		},
		{
			name: "no invoker",
			cfg:  DefaultConfig,
			deps: func() Dependencies {
				d := deps()
				d.Invoker = nil
				return d
			},
			wantErr: units.ErrNilDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrchestrator(tt.cfg(), tt.deps())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestStageOf(t *testing.T) {
	assert.Empty(t, StageOf(nil))
	assert.Empty(t, StageOf(errors.New("plain")))
	wrapped := fmt.Errorf("outer: %w", domain.NewStageError(domain.StageConditions, errors.New("x")))
	assert.Equal(t, domain.StageConditions, StageOf(wrapped))
}

func TestNewDependencies(t *testing.T) {
	metrics := middleware.NewPrometheusMetrics(prometheus.NewRegistry())
	deps := NewDependencies(DefaultConfig(), WiringOptions{Metrics: metrics, Logger: discardLogger()})

	assert.NotNil(t, deps.Source)
	assert.NotNil(t, deps.Tests)
	assert.NotNil(t, deps.Invoker)
	assert.NotNil(t, deps.Assembler)
	assert.NotNil(t, deps.Algorithms)
	assert.NotNil(t, deps.Observer)
	assert.Same(t, metrics, deps.Metrics)

	_, err := NewOrchestrator(DefaultConfig(), deps)
	require.NoError(t, err)
}

func TestInvokerMiddleware(t *testing.T) {
	metrics := middleware.NewPrometheusMetrics(prometheus.NewRegistry())

	tests := []struct {
		name    string
		cfg     HTTPConfig
		metrics ports.MetricsCollector
		want    int
	}{
		{name: "defaults with metrics", cfg: DefaultConfig().HTTP, metrics: metrics, want: 4},
		{name: "tracing only", cfg: HTTPConfig{}, want: 1},
		{name: "breaker without limiter", cfg: HTTPConfig{BreakerFailures: 2, BreakerCooldown: time.Second}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, invokerMiddleware(tt.cfg, tt.metrics), tt.want)
		})
	}
}

// TestOrchestrator_LoaderAgreesWithStage verifies the orchestrator's loader
// produces the same definition the configuration stage stores.
func TestOrchestrator_LoaderAgreesWithStage(t *testing.T) {
	f := newFixture(t, map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"})
	def, _, err := algorithm.NewLoader(nil, f.cfg.BaseURI, nil).
		FromLines(f.service.CalculationURI(), testutils.SampleAlgorithmLines())
	require.NoError(t, err)

	registered, err := f.orch.Register(context.Background(), f.service.CalculationURI())
	require.NoError(t, err)
	assert.Equal(t, def.GUID(), registered.GUID())
	assert.Len(t, registered.Tests, 3)
	assert.Len(t, registered.Conditions, 3)
}
