package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during external service
// interactions.
var (
	// ErrEndpointNotFound indicates that the registry has no endpoint for a test.
	ErrEndpointNotFound = errors.New("test endpoint not found")

	// ErrInvalidIRI indicates a test identifier that cannot be looked up
	// because it is not a valid IRI.
	ErrInvalidIRI = errors.New("identifier is not a valid IRI")

	// ErrAlgorithmNotFound indicates that an algorithm id is not registered.
	ErrAlgorithmNotFound = errors.New("algorithm not found")

	// ErrRateLimited indicates that the service has rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates that the service returned an invalid
	// response.
	ErrInvalidResponse = errors.New("invalid response")
)

// InvocationError represents a failed call to a test endpoint.
type InvocationError struct {
	// Endpoint is the URL that was called.
	Endpoint string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface for InvocationError.
func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("invocation error: endpoint=%s, err=%v", e.Endpoint, e.Err)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(", status=%d", e.StatusCode)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error { return e.Err }

// IsRetryable returns true if the error is temporary. Tests are never
// retried automatically; the circuit breaker counts only retryable
// failures.
func (e *InvocationError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewInvocationError creates a new InvocationError with the given details.
func NewInvocationError(endpoint string, status int, err error) *InvocationError {
	return &InvocationError{
		Endpoint:   endpoint,
		StatusCode: status,
		Err:        err,
	}
}

// RegistryError represents an error from a registry operation.
// It includes the key and operation that failed.
type RegistryError struct {
	// Key is the test identifier or algorithm id involved.
	Key string

	// Operation is the name of the registry operation that failed.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for RegistryError.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error { return e.Err }

// NewRegistryError creates a new RegistryError with the given details.
func NewRegistryError(key, operation string, err error) *RegistryError {
	return &RegistryError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}
