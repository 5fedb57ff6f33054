// Package units provides the assessment pipeline stages. Each stage
// implements ports.Unit and moves one step of an assessment forward over
// the immutable domain.State.
package units

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Stage names. They double as span names and metric labels.
const (
	NameLoadConfiguration  = "load_configuration"
	NameRunTests           = "run_tests"
	NameParseResultSet     = "parse_resultset"
	NameEvaluateConditions = "evaluate_conditions"
)

// Common errors returned by the stages.
var (
	// ErrMissingState is returned when a stage runs before the stage that
	// produces its input.
	ErrMissingState = errors.New("required value not found in state")

	// ErrMissingSubject is returned in from-scratch mode when no subject
	// GUID was supplied.
	ErrMissingSubject = errors.New("subject GUID is required when no result set is supplied")

	// ErrNilDependency is returned by constructors given a nil collaborator.
	ErrNilDependency = errors.New("required dependency is nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
