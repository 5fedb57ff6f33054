package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInvocationError tests message formatting and retryable classification.
func TestInvocationError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewInvocationError("https://tests.example.org/t1", 0, ErrTimeout)

		assert.Equal(t, "invocation error: endpoint=https://tests.example.org/t1, err=operation timed out", err.Error())
		assert.True(t, errors.Is(err, ErrTimeout))
	})

	t.Run("with status", func(t *testing.T) {
		err := NewInvocationError("https://tests.example.org/t1", 503, ErrServiceUnavailable)
		assert.Contains(t, err.Error(), "status=503")
	})

	t.Run("retryable errors", func(t *testing.T) {
		for _, baseErr := range []error{ErrRateLimited, ErrServiceUnavailable, ErrTimeout} {
			err := NewInvocationError("e", 0, baseErr)
			assert.True(t, err.IsRetryable(), "%v should be retryable", baseErr)
		}
		for _, baseErr := range []error{ErrInvalidResponse, ErrEndpointNotFound} {
			err := NewInvocationError("e", 0, baseErr)
			assert.False(t, err.IsRetryable(), "%v should not be retryable", baseErr)
		}
	})
}

// TestRegistryError verifies formatting and unwrapping through extra
// wrapping layers.
func TestRegistryError(t *testing.T) {
	err := NewRegistryError("abc", "RetrieveByID", ErrAlgorithmNotFound)
	assert.Equal(t, "registry error: operation=RetrieveByID, key=abc, err=algorithm not found", err.Error())

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, ErrAlgorithmNotFound))

	var re *RegistryError
	assert.True(t, errors.As(wrapped, &re))
	assert.Equal(t, "abc", re.Key)
}
