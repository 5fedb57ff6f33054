package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

// StageObserver provides observability hooks around pipeline stages.
// Implementations can add tracing, metrics, and logging without coupling
// observability concerns to the stages themselves.
type StageObserver interface {
	// PreExecute is called before the stage runs. The returned context is
	// passed to the stage and to PostExecute.
	PreExecute(ctx context.Context, stage string, state domain.State) context.Context

	// PostExecute is called after the stage with its output and timing.
	PostExecute(ctx context.Context, stage string, state domain.State, elapsed time.Duration, err error)
}

// ObservedUnit wraps a pipeline stage with a StageObserver. It holds no
// mutable state and can serve concurrent assessments.
type ObservedUnit struct {
	next     ports.Unit
	observer StageObserver
}

var _ ports.Unit = (*ObservedUnit)(nil)

// NewObservedUnit wraps next. A nil observer makes the wrapper a
// pass-through.
func NewObservedUnit(next ports.Unit, observer StageObserver) *ObservedUnit {
	if next == nil {
		panic("observed unit: next unit is required")
	}
	return &ObservedUnit{next: next, observer: observer}
}

// Name returns the wrapped stage's name so errors and spans stay
// attributed to it.
func (o *ObservedUnit) Name() string { return o.next.Name() }

// Execute runs the wrapped stage between the observer hooks. A cancelled
// context stops the stage before it starts.
func (o *ObservedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}
	if o.observer == nil {
		return o.next.Execute(ctx, state)
	}

	ctx = o.observer.PreExecute(ctx, o.next.Name(), state)
	start := time.Now()
	newState, err := o.next.Execute(ctx, state)
	o.observer.PostExecute(ctx, o.next.Name(), newState, time.Since(start), err)
	return newState, err
}

// Validate checks the wrapped stage.
func (o *ObservedUnit) Validate() error {
	if o.next == nil {
		return fmt.Errorf("observed unit: next unit is required")
	}
	return o.next.Validate()
}

// StageStatus classifies a stage result for metric labels.
func StageStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
