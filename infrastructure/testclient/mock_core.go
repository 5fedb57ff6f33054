package testclient

import (
	"context"
	"sync"
	"time"
)

// MockCore is a configurable Core for exercising middleware without a
// network.
type MockCore struct {
	mu sync.Mutex

	// Response configuration
	Body          []byte
	Error         error
	ResponseDelay time.Duration

	// FailUntilAttempt makes the first N calls fail with Error.
	FailUntilAttempt int

	// Tracking
	CallCount      int
	LastEndpoint   string
	LastGUID       string
	Contexts       []context.Context
	CallTimestamps []time.Time
}

// NewMockCore creates a MockCore that answers with a minimal JSON-LD body.
func NewMockCore() *MockCore {
	return &MockCore{
		Body: []byte(`{"@id":"urn:result"}`),
	}
}

// Invoke implements Core.
func (m *MockCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	m.mu.Lock()
	m.CallCount++
	call := m.CallCount
	m.LastEndpoint = endpoint
	m.LastGUID = guid
	m.Contexts = append(m.Contexts, ctx)
	m.CallTimestamps = append(m.CallTimestamps, time.Now())
	delay, body, err, failUntil := m.ResponseDelay, m.Body, m.Error, m.FailUntilAttempt
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failUntil > 0 {
		if call <= failUntil {
			return nil, err
		}
		return body, nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetCallCount returns the number of calls made so far.
func (m *MockCore) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// SetError changes the error returned by subsequent calls.
func (m *MockCore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err
}
