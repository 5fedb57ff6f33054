package testclient

import (
	"context"
	"time"
)

// timeoutCore bounds every invocation with a deadline so a hung test
// service cannot stall the assessment.
type timeoutCore struct {
	next    Core
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-call timeout.
// A shorter deadline already on the context still wins.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Core) Core {
		return &timeoutCore{
			next:    next,
			timeout: timeout,
		}
	}
}

// Invoke executes the call with a timeout context.
func (t *timeoutCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Invoke(ctx, endpoint, guid)
}
