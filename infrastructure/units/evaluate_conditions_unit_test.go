package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

func TestEvaluateConditionsUnit_Execute(t *testing.T) {
	tests := []struct {
		name           string
		results        map[string]domain.ResultRecord
		wantNarratives []string
		wantGuidance   []int
		wantOutcomes   map[string]float64
		wantScore      float64
	}{
		{
			name: "all pass",
			results: map[string]domain.ResultRecord{
				"T1": {Result: "pass", Weight: 3},
				"T2": {Result: "pass", Weight: 2},
				"T3": {Result: "pass", Weight: 1},
			},
			wantNarratives: []string{"Identifiers resolve", "Metadata is indexed", "Good overall"},
			wantGuidance:   []int{0, 0, 0},
			wantOutcomes:   map[string]float64{"success": 3},
			wantScore:      6,
		},
		{
			name: "indexing fails",
			results: map[string]domain.ResultRecord{
				"T1": {Result: "pass", Weight: 3},
				"T2": {Result: "pass", Weight: 2},
				"T3": {Result: "fail", Weight: -1},
			},
			wantNarratives: []string{"Identifiers resolve", "Metadata is not indexed", "Needs work"},
			wantGuidance:   []int{0, 2, 0},
			wantOutcomes:   map[string]float64{"success": 1, "failure": 2},
			wantScore:      4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := newRecordingMetrics()
			unit := NewEvaluateConditionsUnit(metrics, discardLogger())
			require.NoError(t, unit.Validate())

			state := domain.With(stateWith(t, ""), domain.KeyTestResults, tt.results)
			out, err := unit.Execute(context.Background(), state)
			require.NoError(t, err)

			narratives, _ := domain.Get(out, domain.KeyNarratives)
			assert.Equal(t, tt.wantNarratives, narratives)

			guidances, _ := domain.Get(out, domain.KeyGuidances)
			require.Len(t, guidances, len(tt.wantGuidance))
			for i, n := range tt.wantGuidance {
				assert.Len(t, guidances[i], n, "condition %d", i)
			}

			for outcome, n := range tt.wantOutcomes {
				assert.Equal(t, n, metrics.counters[ports.MetricConditionOutcomes+":"+outcome])
			}
			assert.Equal(t, []float64{tt.wantScore}, metrics.histograms)
		})
	}
}

// TestEvaluateConditionsUnit_BrokenFormula verifies a formula that cannot
// be evaluated becomes a narrative and a diagnostic, not an error.
func TestEvaluateConditionsUnit_BrokenFormula(t *testing.T) {
	state := stateWith(t, "")
	def, _ := domain.Get(state, domain.KeyAlgorithm)
	broken := *def
	broken.Conditions = []domain.ConditionSpec{{ID: "C9", Formula: "T1 +", SuccessMessage: "ok", FailureMessage: "no"}}
	state = domain.With(state, domain.KeyAlgorithm, &broken)
	state = domain.With(state, domain.KeyTestResults, map[string]domain.ResultRecord{"T1": {Result: "pass", Weight: 3}})

	metrics := newRecordingMetrics()
	out, err := NewEvaluateConditionsUnit(metrics, nil).Execute(context.Background(), state)
	require.NoError(t, err)

	narratives, _ := domain.Get(out, domain.KeyNarratives)
	require.Len(t, narratives, 1)
	assert.Contains(t, narratives[0], "Problem solving for 3.0 +")

	diags, _ := domain.Get(out, domain.KeyDiagnostics)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "C9")
	assert.Equal(t, 1.0, metrics.counters[ports.MetricConditionOutcomes+":error"])
}

func TestEvaluateConditionsUnit_MissingResults(t *testing.T) {
	_, err := NewEvaluateConditionsUnit(nil, nil).Execute(context.Background(), stateWith(t, ""))
	assert.ErrorIs(t, err, ErrMissingState)
}
