// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-champion/internal/domain"
)

// Unit represents one stage of the assessment pipeline.
// Each Unit performs a specific transformation on the assessment State.
// Units should be stateless and thread-safe so that one pipeline instance
// can serve concurrent assessments.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, tracing and error attribution.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results of the transformation.
	// The original State must not be modified.
	//
	// The context parameter allows for cancellation and deadline propagation.
	// Units should respect context cancellation and return promptly.
	//
	// Example:
	//
	//	newState, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return state, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for execution.
	// It is called while the pipeline is assembled.
	// Return nil if validation passes, or an error describing what is invalid.
	Validate() error
}
