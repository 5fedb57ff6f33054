package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

// ErrNilExecutable is returned when a nil executable is added to a pipeline.
var ErrNilExecutable = errors.New("cannot add nil executable to pipeline")

// Pipeline is a sequential execution container that processes executables
// in strict order, where each executable's output becomes the input for
// the next executable in the sequence.
type Pipeline struct {
	// id is the unique identifier for this pipeline, used in error messages.
	id string
	// executables contains the ordered list of components that will execute
	// sequentially, with data flowing from one to the next.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	mu    sync.RWMutex
}

var _ ports.Pipeline = (*Pipeline)(nil)

// NewPipeline creates a new sequential execution pipeline with the specified
// identifier, ready to accept executable components.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute processes all executables in this pipeline sequentially,
// passing the output state from each executable as input to the next.
// It stops at the first error or when ctx is done, returning the last good
// state alongside the error.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := make([]ports.Executable, len(p.executables))
	copy(executables, p.executables)
	p.mu.RUnlock()

	currentState := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil {
			return currentState, err
		}
		newState, err := exec.Execute(ctx, currentState)
		if err != nil {
			return currentState, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
		}
		currentState = newState
	}
	return currentState, nil
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Add appends an executable to the end of this pipeline's execution
// sequence. Add returns an error if the executable is nil or if an
// executable with the same ID already exists in the pipeline.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return ErrNilExecutable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered list of executables.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}

// UnitAdapter wraps a ports.Unit so it can run inside a Pipeline. Errors
// that do not already name a stage are attributed to the adapter's stage.
type UnitAdapter struct {
	unit  ports.Unit
	stage string
}

// NewUnitAdapter creates an adapter whose ID is the unit's name and whose
// failures are attributed to stage.
func NewUnitAdapter(unit ports.Unit, stage string) *UnitAdapter {
	return &UnitAdapter{unit: unit, stage: stage}
}

// Execute delegates to the wrapped unit.
func (ua *UnitAdapter) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	next, err := ua.unit.Execute(ctx, state)
	if err != nil {
		return state, domain.NewStageError(ua.stage, err)
	}
	return next, nil
}

// ID returns the wrapped unit's name.
func (ua *UnitAdapter) ID() string { return ua.unit.Name() }

// Stage returns the stage failures are attributed to.
func (ua *UnitAdapter) Stage() string { return ua.stage }
