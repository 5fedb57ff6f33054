package units

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

var _ ports.Unit = (*EvaluateConditionsUnit)(nil)

// EvaluateConditionsUnit evaluates the algorithm's conditions over the
// per-test results and stores one narrative and guidance list per
// condition. A condition that cannot be evaluated yields a diagnostic
// narrative; it never fails the stage.
type EvaluateConditionsUnit struct {
	metrics ports.MetricsCollector
	logger  *slog.Logger
}

// NewEvaluateConditionsUnit creates the conditions stage. metrics may be
// nil.
func NewEvaluateConditionsUnit(metrics ports.MetricsCollector, logger *slog.Logger) *EvaluateConditionsUnit {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateConditionsUnit{metrics: metrics, logger: logger}
}

// Name returns the stage name.
func (u *EvaluateConditionsUnit) Name() string { return NameEvaluateConditions }

// Execute evaluates every condition in order.
func (u *EvaluateConditionsUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	def, ok := domain.Get(state, domain.KeyAlgorithm)
	if !ok || def == nil {
		return state, fmt.Errorf("%w: algorithm definition", ErrMissingState)
	}
	results, ok := domain.Get(state, domain.KeyTestResults)
	if !ok {
		return state, fmt.Errorf("%w: test results", ErrMissingState)
	}

	ev := algorithm.EvaluateConditions(def.Conditions, results)
	for _, d := range ev.Diagnostics {
		u.logger.Warn("condition could not be evaluated", "algorithm_id", def.AlgorithmID, "detail", d)
	}

	if u.metrics != nil {
		for _, outcome := range ev.Outcomes {
			u.metrics.RecordCounter(ports.MetricConditionOutcomes, 1, map[string]string{
				"algorithm": def.AlgorithmID,
				"outcome":   string(outcome),
			})
		}
		u.metrics.RecordHistogram(ports.MetricAssessmentScore, domain.TotalWeight(results),
			map[string]string{"algorithm": def.AlgorithmID})
	}

	state = domain.With(state, domain.KeyNarratives, ev.Narratives)
	state = domain.With(state, domain.KeyGuidances, ev.Guidances)
	return domain.AppendDiagnostics(state, ev.Diagnostics...), nil
}

// Validate always succeeds; metrics and logging are optional.
func (u *EvaluateConditionsUnit) Validate() error { return nil }
