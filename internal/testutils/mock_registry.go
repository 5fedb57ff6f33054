package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/go-champion/internal/ports"
)

// MockTestRegistry is an in-memory ports.TestRegistry.
type MockTestRegistry struct {
	mu        sync.Mutex
	endpoints map[string]string

	// Err, when set, is returned for every lookup.
	Err error

	calls []string
}

// NewMockTestRegistry creates a registry with the given test id to
// endpoint bindings.
func NewMockTestRegistry(endpoints map[string]string) *MockTestRegistry {
	m := &MockTestRegistry{endpoints: make(map[string]string, len(endpoints))}
	for id, ep := range endpoints {
		m.endpoints[id] = ep
	}
	return m
}

// Bind adds or replaces a binding.
func (m *MockTestRegistry) Bind(testIdentifier, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[testIdentifier] = endpoint
}

// EndpointFor implements ports.TestRegistry.
func (m *MockTestRegistry) EndpointFor(ctx context.Context, testIdentifier string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, testIdentifier)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	ep, ok := m.endpoints[testIdentifier]
	if !ok {
		return "", ports.NewRegistryError(testIdentifier, "endpoint_for",
			fmt.Errorf("%w: %s", ports.ErrEndpointNotFound, testIdentifier))
	}
	return ep, nil
}

// Calls returns the test identifiers looked up so far.
func (m *MockTestRegistry) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var _ ports.TestRegistry = (*MockTestRegistry)(nil)
