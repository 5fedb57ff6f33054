package domain

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ahrav/go-champion/internal/rdf"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key's string form.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used by the assessment pipeline.
var (
	// KeyCalculationURI stores the location of the three-block CSV that
	// defines the scoring algorithm.
	KeyCalculationURI = Key[string]{"calculation_uri"}

	// KeySubjectGUID stores the GUID of the resource being assessed in
	// from-scratch mode.
	KeySubjectGUID = Key[string]{"subject_guid"}

	// KeyResultSet stores the JSON-LD result set. It is present at the
	// start of the pipeline only in pass-through mode.
	KeyResultSet = Key[string]{"resultset"}

	// KeyAlgorithm stores the loaded, immutable algorithm definition.
	KeyAlgorithm = Key[*AlgorithmDefinition]{"algorithm"}

	// KeyMetadata stores the DCAT description of the algorithm.
	KeyMetadata = Key[*rdf.Graph]{"metadata"}

	// KeyTestResults stores one ResultRecord per test reference.
	KeyTestResults = Key[map[string]ResultRecord]{"test_results"}

	// KeyTestedGUID stores the subject GUID read back from the result set.
	KeyTestedGUID = Key[string]{"tested_guid"}

	// KeyNarratives stores one narrative per condition, in order.
	KeyNarratives = Key[[]string]{"narratives"}

	// KeyGuidances stores one guidance list per condition, in order.
	KeyGuidances = Key[[][]Guidance]{"guidances"}

	// KeyDiagnostics accumulates non-fatal problems found along the way.
	KeyDiagnostics = Key[[]string]{"diagnostics"}

	// KeyExecutionID stores a unique identifier for this assessment,
	// useful for tracing and log correlation.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// State represents an immutable collection of assessment data that flows
// through the pipeline. It uses copy-on-write semantics: every update
// returns a new State and leaves the original untouched. Values stored in
// State are treated as read-only by every stage; a stage that needs to
// change a slice or map stores a fresh one.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type.
//
// Example:
//
//	def, ok := Get(state, KeyAlgorithm)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}
	val, ok := value.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated, leaving the original unchanged.
//
// Example:
//
//	newState := With(state, KeySubjectGUID, "https://doi.org/10.5281/zenodo.1")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = value
	return State{data: newData}
}

// AppendDiagnostics returns a new State whose diagnostics list is the
// existing one followed by msgs. The stored slice is never appended to in
// place.
func AppendDiagnostics(s State, msgs ...string) State {
	if len(msgs) == 0 {
		return s
	}
	existing, _ := Get(s, KeyDiagnostics)
	return With(s, KeyDiagnostics, append(slices.Clone(existing), msgs...))
}

// Has reports whether the key is present.
func Has[T any](s State, key Key[T]) bool {
	_, ok := s.data[key.name]
	return ok
}

// Keys returns all keys present in the State in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.data))
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.Keys())
}
