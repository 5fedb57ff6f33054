package units

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-champion/infrastructure/output"
	"github.com/ahrav/go-champion/infrastructure/testclient"
	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
	"github.com/ahrav/go-champion/internal/testutils"
)

const testBaseURI = "https://tools.example.org/champion"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleDefinition loads the shared sample algorithm without a network.
func sampleDefinition(t *testing.T) (*domain.AlgorithmDefinition, *rdf.Graph) {
	t.Helper()
	def, g, err := algorithm.NewLoader(nil, testBaseURI, discardLogger()).
		FromLines(testutils.SampleCalculationURI, testutils.SampleAlgorithmLines())
	require.NoError(t, err)
	return def, g
}

// stateWith returns a state holding the sample algorithm and subject.
func stateWith(t *testing.T, subject string) domain.State {
	t.Helper()
	def, g := sampleDefinition(t)
	s := domain.With(domain.NewState(), domain.KeyAlgorithm, def)
	s = domain.With(s, domain.KeyMetadata, g)
	return domain.With(s, domain.KeySubjectGUID, subject)
}

// answering returns a core whose tests, named by the last segment of the
// endpoint, answer with the given values.
func answering(values map[string]string) testclient.CoreFunc {
	return func(_ context.Context, endpoint, guid string) ([]byte, error) {
		name := endpoint[strings.LastIndex(endpoint, "/")+1:]
		value, ok := values[name]
		if !ok {
			return nil, ports.NewInvocationError(endpoint, 404, ports.ErrInvalidResponse)
		}
		return testutils.ResultDocument("https://tests.example.org/tests/"+name, guid, value), nil
	}
}

func sampleEndpoints() map[string]string {
	return map[string]string{
		testutils.TestT1: "http://svc.example.org/tests/t1",
		testutils.TestT2: "http://svc.example.org/tests/t2",
		testutils.TestT3: "http://svc.example.org/tests/t3",
	}
}

func newAssembler() *output.Assembler {
	return output.NewAssembler(output.Options{}, discardLogger())
}

// recordingMetrics is a MetricsCollector that keeps every call.
type recordingMetrics struct {
	mu         sync.Mutex
	gauge      float64
	gaugeCalls int
	counters   map[string]float64
	histograms []float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: make(map[string]float64)}
}

func (r *recordingMetrics) RecordLatency(string, time.Duration, map[string]string) {}

func (r *recordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := metric
	if o, ok := labels["outcome"]; ok {
		key += ":" + o
	}
	r.counters[key] += value
}

func (r *recordingMetrics) RecordGauge(_ string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauge += value
	r.gaugeCalls++
}

func (r *recordingMetrics) RecordHistogram(_ string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms = append(r.histograms, value)
}
