package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during assessment.
var (
	// ErrMissingSeparators indicates that a configuration export does not
	// contain the two blank-line separators delimiting its three blocks.
	ErrMissingSeparators = errors.New("configuration needs two blank-line separators")

	// ErrMissingColumn indicates that a block header lacks a required column.
	ErrMissingColumn = errors.New("required column missing")

	// ErrDuplicateReference indicates that two tests share a reference.
	ErrDuplicateReference = errors.New("duplicate test reference")

	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Stage names used to attribute fatal errors.
const (
	StageConfiguration = "configuration"
	StageRegistry      = "registry"
	StageTestExecution = "test_execution"
	StageResultSet     = "resultset"
	StageConditions    = "conditions"
)

// ConfigStructureError reports a configuration export whose layout cannot
// be parsed into metadata, tests and conditions blocks.
type ConfigStructureError struct {
	// Block names the block being parsed, empty when the problem is the
	// overall layout.
	Block string

	// Line is the 1-based logical line where the problem was found, or 0.
	Line int

	Err error
}

// Error implements the error interface for ConfigStructureError.
func (e *ConfigStructureError) Error() string {
	switch {
	case e.Block != "" && e.Line > 0:
		return fmt.Sprintf("config structure error: block=%s, line=%d, err=%v", e.Block, e.Line, e.Err)
	case e.Block != "":
		return fmt.Sprintf("config structure error: block=%s, err=%v", e.Block, e.Err)
	default:
		return fmt.Sprintf("config structure error: %v", e.Err)
	}
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *ConfigStructureError) Unwrap() error { return e.Err }

// NewConfigStructureError creates a new ConfigStructureError.
func NewConfigStructureError(block string, line int, err error) *ConfigStructureError {
	return &ConfigStructureError{Block: block, Line: line, Err: err}
}

// ConfigFetchError reports a configuration source that could not be read.
type ConfigFetchError struct {
	URL string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	Err error
}

// Error implements the error interface for ConfigFetchError.
func (e *ConfigFetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("config fetch error: url=%s, status=%d, err=%v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("config fetch error: url=%s, err=%v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigFetchError) Unwrap() error { return e.Err }

// StageError attributes a fatal error to the pipeline stage that raised it.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the stage name. A nil err yields nil, and an
// error that already carries a stage is returned unchanged.
func NewStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
