package units

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-champion/infrastructure/testclient"
	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
	"github.com/ahrav/go-champion/internal/testutils"
)

func TestNewRunTestsUnit(t *testing.T) {
	reg := testutils.NewMockTestRegistry(nil)
	core := testclient.NewMockCore()
	asm := newAssembler()

	tests := []struct {
		name          string
		build         func() (*RunTestsUnit, error)
		expectedError string
	}{
		{
			name: "valid with defaults",
			build: func() (*RunTestsUnit, error) {
				return NewRunTestsUnit(reg, core, asm, nil, nil, RunTestsConfig{})
			},
		},
		{
			name: "nil registry",
			build: func() (*RunTestsUnit, error) {
				return NewRunTestsUnit(nil, core, asm, nil, nil, RunTestsConfig{})
			},
			expectedError: "test registry",
		},
		{
			name: "nil invoker",
			build: func() (*RunTestsUnit, error) {
				return NewRunTestsUnit(reg, nil, asm, nil, nil, RunTestsConfig{})
			},
			expectedError: "test invoker",
		},
		{
			name: "nil assembler",
			build: func() (*RunTestsUnit, error) {
				return NewRunTestsUnit(reg, core, nil, nil, nil, RunTestsConfig{})
			},
			expectedError: "output assembler",
		},
		{
			name: "concurrency out of range",
			build: func() (*RunTestsUnit, error) {
				return NewRunTestsUnit(reg, core, asm, nil, nil, RunTestsConfig{MaxConcurrency: 1000})
			},
			expectedError: "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := tt.build()
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, unit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, NameRunTests, unit.Name())
			assert.Equal(t, DefaultMaxConcurrency, unit.config.MaxConcurrency)
			assert.NoError(t, unit.Validate())
		})
	}
}

// TestRunTestsUnit_Execute invokes every test and checks the assembled
// result set scores the way the tests answered.
func TestRunTestsUnit_Execute(t *testing.T) {
	metrics := newRecordingMetrics()
	unit, err := NewRunTestsUnit(
		testutils.NewMockTestRegistry(sampleEndpoints()),
		answering(map[string]string{"t1": "pass", "t2": "pass", "t3": "fail"}),
		newAssembler(), metrics, discardLogger(), RunTestsConfig{MaxConcurrency: 2},
	)
	require.NoError(t, err)

	state, err := unit.Execute(context.Background(), stateWith(t, testutils.SampleSubject))
	require.NoError(t, err)

	rs, ok := domain.Get(state, domain.KeyResultSet)
	require.True(t, ok)
	g, err := rdf.Codec{}.Parse(context.Background(), []byte(rs))
	require.NoError(t, err)

	def, _ := domain.Get(state, domain.KeyAlgorithm)
	results, diags := algorithm.ProcessResultSet(def.Tests, g)
	assert.Empty(t, diags)
	assert.Equal(t, map[string]domain.ResultRecord{
		"T1": {Result: "pass", Weight: 3},
		"T2": {Result: "pass", Weight: 2},
		"T3": {Result: "fail", Weight: -1},
	}, results)
	assert.Equal(t, testutils.SampleSubject, algorithm.TestedGUID(g))

	_, hasDiags := domain.Get(state, domain.KeyDiagnostics)
	assert.False(t, hasDiags)
	assert.Zero(t, metrics.gauge, "in-flight gauge returns to zero")
	assert.Equal(t, 6, metrics.gaugeCalls)
}

// TestRunTestsUnit_PassThrough verifies a supplied result set is left
// alone and no test is called.
func TestRunTestsUnit_PassThrough(t *testing.T) {
	core := testclient.NewMockCore()
	reg := testutils.NewMockTestRegistry(sampleEndpoints())
	unit, err := NewRunTestsUnit(reg, core, newAssembler(), nil, discardLogger(), RunTestsConfig{})
	require.NoError(t, err)

	in := domain.With(stateWith(t, ""), domain.KeyResultSet, `{"@id":"urn:x"}`)
	out, err := unit.Execute(context.Background(), in)
	require.NoError(t, err)

	rs, _ := domain.Get(out, domain.KeyResultSet)
	assert.Equal(t, `{"@id":"urn:x"}`, rs)
	assert.Zero(t, core.GetCallCount())
	assert.Empty(t, reg.Calls())
}

// TestRunTestsUnit_Degraded covers failures that only cost one test its
// result.
func TestRunTestsUnit_Degraded(t *testing.T) {
	tests := []struct {
		name      string
		endpoints map[string]string
		values    map[string]string
		invalid   string
		wantDiag  string
		wantRefs  []string
	}{
		{
			name:      "test service failure",
			endpoints: sampleEndpoints(),
			values:    map[string]string{"t1": "pass", "t2": "pass"},
			wantDiag:  "test T3",
			wantRefs:  []string{"T1", "T2"},
		},
		{
			name: "endpoint not registered",
			endpoints: map[string]string{
				testutils.TestT1: "http://svc.example.org/tests/t1",
				testutils.TestT3: "http://svc.example.org/tests/t3",
			},
			values:   map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"},
			wantDiag: "no endpoint registered",
			wantRefs: []string{"T1", "T3"},
		},
		{
			name:      "test identifier is not a valid IRI",
			endpoints: sampleEndpoints(),
			values:    map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"},
			invalid:   testutils.TestT2,
			wantDiag:  "not a valid IRI",
			wantRefs:  []string{"T1", "T3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reg ports.TestRegistry = testutils.NewMockTestRegistry(tt.endpoints)
			if tt.invalid != "" {
				reg = rejectingRegistry{TestRegistry: reg, invalid: tt.invalid}
			}
			unit, err := NewRunTestsUnit(
				reg, answering(tt.values),
				newAssembler(), nil, discardLogger(), RunTestsConfig{},
			)
			require.NoError(t, err)

			state, err := unit.Execute(context.Background(), stateWith(t, testutils.SampleSubject))
			require.NoError(t, err)

			diags, _ := domain.Get(state, domain.KeyDiagnostics)
			require.Len(t, diags, 1)
			assert.Contains(t, diags[0], tt.wantDiag)

			rs, _ := domain.Get(state, domain.KeyResultSet)
			g, err := rdf.Codec{}.Parse(context.Background(), []byte(rs))
			require.NoError(t, err)
			def, _ := domain.Get(state, domain.KeyAlgorithm)
			results, _ := algorithm.ProcessResultSet(def.Tests, g)

			var found []string
			for _, ref := range []string{"T1", "T2", "T3"} {
				if results[ref].Result != domain.ResultNotFound {
					found = append(found, ref)
				}
			}
			assert.Equal(t, tt.wantRefs, found)
		})
	}
}

// rejectingRegistry refuses one test identifier the way the SPARQL
// registry refuses identifiers it cannot embed in a query.
type rejectingRegistry struct {
	ports.TestRegistry
	invalid string
}

func (r rejectingRegistry) EndpointFor(ctx context.Context, testIdentifier string) (string, error) {
	if testIdentifier == r.invalid {
		return "", ports.NewRegistryError(testIdentifier, "endpoint_for",
			fmt.Errorf("%w: %q", ports.ErrInvalidIRI, testIdentifier))
	}
	return r.TestRegistry.EndpointFor(ctx, testIdentifier)
}

// TestRunTestsUnit_RegistryOutage verifies an unreachable registry stops
// the assessment and is attributed to the registry.
func TestRunTestsUnit_RegistryOutage(t *testing.T) {
	reg := testutils.NewMockTestRegistry(nil)
	reg.Err = ports.NewRegistryError("", "endpoint_for", ports.ErrServiceUnavailable)
	unit, err := NewRunTestsUnit(reg, testclient.NewMockCore(), newAssembler(), nil, discardLogger(), RunTestsConfig{})
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), stateWith(t, testutils.SampleSubject))
	require.Error(t, err)
	var se *domain.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StageRegistry, se.Stage)
	assert.ErrorIs(t, err, ports.ErrServiceUnavailable)
}

// TestRunTestsUnit_EndpointOverride verifies a test with a known endpoint
// skips the registry.
func TestRunTestsUnit_EndpointOverride(t *testing.T) {
	state := stateWith(t, testutils.SampleSubject)
	def, _ := domain.Get(state, domain.KeyAlgorithm)
	overridden := *def
	overridden.Tests = append([]domain.TestSpec(nil), def.Tests...)
	for i := range overridden.Tests {
		overridden.Tests[i].Endpoint = "http://direct.example.org/" + []string{"t1", "t2", "t3"}[i]
	}
	state = domain.With(state, domain.KeyAlgorithm, &overridden)

	reg := testutils.NewMockTestRegistry(nil)
	var (
		mu        sync.Mutex
		endpoints []string
	)
	core := testclient.CoreFunc(func(ctx context.Context, endpoint, guid string) ([]byte, error) {
		mu.Lock()
		endpoints = append(endpoints, endpoint)
		mu.Unlock()
		return answering(map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"})(ctx, endpoint, guid)
	})
	unit, err := NewRunTestsUnit(reg, core, newAssembler(), nil, discardLogger(), RunTestsConfig{MaxConcurrency: 1})
	require.NoError(t, err)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, reg.Calls())
	assert.Equal(t, []string{
		"http://direct.example.org/t1",
		"http://direct.example.org/t2",
		"http://direct.example.org/t3",
	}, endpoints)
	_, hasDiags := domain.Get(out, domain.KeyDiagnostics)
	assert.False(t, hasDiags)
}

func TestRunTestsUnit_MissingInputs(t *testing.T) {
	unit, err := NewRunTestsUnit(testutils.NewMockTestRegistry(nil), testclient.NewMockCore(),
		newAssembler(), nil, discardLogger(), RunTestsConfig{})
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, ErrMissingState)

	_, err = unit.Execute(context.Background(), stateWith(t, ""))
	assert.ErrorIs(t, err, ErrMissingSubject)
	var se *domain.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StageTestExecution, se.Stage)
}

// TestRunTestsUnit_ConcurrencyLimit verifies no more calls than configured
// are in flight at once.
func TestRunTestsUnit_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	core := testclient.CoreFunc(func(ctx context.Context, endpoint, guid string) ([]byte, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return answering(map[string]string{"t1": "pass", "t2": "pass", "t3": "pass"})(ctx, endpoint, guid)
	})
	unit, err := NewRunTestsUnit(testutils.NewMockTestRegistry(sampleEndpoints()), core,
		newAssembler(), nil, discardLogger(), RunTestsConfig{MaxConcurrency: 2})
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), stateWith(t, testutils.SampleSubject))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// TestRunTestsUnit_Cancelled verifies a cancelled assessment returns the
// context error rather than a partial result set.
func TestRunTestsUnit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	core := testclient.CoreFunc(func(ctx context.Context, _, _ string) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	unit, err := NewRunTestsUnit(testutils.NewMockTestRegistry(sampleEndpoints()), core,
		newAssembler(), nil, discardLogger(), RunTestsConfig{})
	require.NoError(t, err)

	state, err := unit.Execute(ctx, stateWith(t, testutils.SampleSubject))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.Has(state, domain.KeyResultSet))
}
