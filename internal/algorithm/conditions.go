package algorithm

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/formula"
)

// ConditionOutcome classifies how one condition evaluated.
type ConditionOutcome string

// Condition outcomes.
const (
	ConditionMet    ConditionOutcome = "success"
	ConditionNotMet ConditionOutcome = "failure"
	ConditionError  ConditionOutcome = "error"
)

// Evaluation is the result of evaluating every condition of an algorithm.
// Narratives, Guidances and Outcomes are parallel to the conditions.
type Evaluation struct {
	Narratives  []string
	Guidances   [][]domain.Guidance
	Outcomes    []ConditionOutcome
	Diagnostics []string
}

// Env builds the formula environment from per-test results: each reference
// is bound to its weight.
func Env(results map[string]domain.ResultRecord) formula.Env {
	env := make(formula.Env, len(results))
	for ref, r := range results {
		env[ref] = r.Weight
	}
	return env
}

// EvaluateConditions evaluates each condition's formula against the test
// weights. A condition that holds contributes its success message and no
// guidance; one that does not contributes its failure message and its
// guidance. A formula that cannot be evaluated contributes a narrative
// naming the substituted formula, and evaluation carries on with the next
// condition.
func EvaluateConditions(conditions []domain.ConditionSpec, results map[string]domain.ResultRecord) Evaluation {
	env := Env(results)
	ev := Evaluation{
		Narratives: make([]string, 0, len(conditions)),
		Guidances:  make([][]domain.Guidance, 0, len(conditions)),
		Outcomes:   make([]ConditionOutcome, 0, len(conditions)),
	}

	for _, c := range conditions {
		met, err := formula.EvaluateBool(c.Formula, env)
		switch {
		case err != nil:
			ev.Narratives = append(ev.Narratives,
				fmt.Sprintf("Problem solving for %s: %v", formula.Substitute(c.Formula, env), err))
			ev.Guidances = append(ev.Guidances, []domain.Guidance{})
			ev.Outcomes = append(ev.Outcomes, ConditionError)
			ev.Diagnostics = append(ev.Diagnostics,
				fmt.Sprintf("condition %q: formula %q: %v", c.ID, c.Formula, err))
		case met:
			ev.Narratives = append(ev.Narratives, c.SuccessMessage)
			ev.Guidances = append(ev.Guidances, []domain.Guidance{})
			ev.Outcomes = append(ev.Outcomes, ConditionMet)
		default:
			g := slices.Clone(c.Guidance)
			if g == nil {
				g = []domain.Guidance{}
			}
			ev.Narratives = append(ev.Narratives, c.FailureMessage)
			ev.Guidances = append(ev.Guidances, g)
			ev.Outcomes = append(ev.Outcomes, ConditionNotMet)
		}
	}
	return ev
}
