package testclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-champion/internal/ports"
)

// ErrCircuitOpen indicates that the circuit breaker rejected a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

// Circuit breaker states.
const (
	// StateClosed lets every call through.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects calls until the cooldown has passed.
	StateOpen

	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker trips after maxFailures consecutive failures and stays open
// for cooldown before admitting one probe call. The lock is never held
// while a call is in flight.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	probing     bool
	now         func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		state:       StateClosed,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Allow reports whether a call may proceed. It returns ErrCircuitOpen while
// the breaker is open or while a half-open probe is in flight.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = true
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

// Record updates the breaker with the outcome of an allowed call. Calls
// abandoned because the caller cancelled are neither successes nor
// failures. An *ports.InvocationError counts as a failure only when it is
// retryable: a service that answers 4xx is up and closes the circuit.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false

	switch {
	case errors.Is(err, context.Canceled):
		// Neither outcome; a half-open breaker lets the next caller probe.
	case err == nil || !isBreakerFailure(err):
		cb.failures = 0
		cb.state = StateClosed
	default:
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	}
}

func isBreakerFailure(err error) bool {
	var ie *ports.InvocationError
	if errors.As(err, &ie) {
		return ie.IsRetryable()
	}
	return true
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// breakerCore keeps one CircuitBreaker per endpoint so a single failing
// test service does not block calls to the others.
type breakerCore struct {
	next        Core
	maxFailures int
	cooldown    time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// CircuitBreakerMiddleware creates middleware that opens a per-endpoint
// circuit after maxFailures consecutive failures and keeps it open for
// cooldown. Rejected calls fail fast with an *InvocationError wrapping both
// ports.ErrServiceUnavailable and ErrCircuitOpen.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return func(next Core) Core {
		return &breakerCore{
			next:        next,
			maxFailures: maxFailures,
			cooldown:    cooldown,
			breakers:    make(map[string]*CircuitBreaker),
		}
	}
}

func (b *breakerCore) breakerFor(endpoint string) *CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[endpoint]
	if !ok {
		cb = NewCircuitBreaker(b.maxFailures, b.cooldown)
		b.breakers[endpoint] = cb
	}
	return cb
}

// Invoke runs the call through the endpoint's breaker.
func (b *breakerCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	cb := b.breakerFor(endpoint)
	if err := cb.Allow(); err != nil {
		return nil, ports.NewInvocationError(endpoint, 0,
			fmt.Errorf("%w: %w", ports.ErrServiceUnavailable, err))
	}
	body, err := b.next.Invoke(ctx, endpoint, guid)
	cb.Record(err)
	return body, err
}
