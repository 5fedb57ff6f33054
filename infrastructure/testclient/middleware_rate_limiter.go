package testclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-champion/internal/ports"
)

// rateLimitedCore paces outbound test calls with a token bucket shared by
// every assessment using the client.
type rateLimitedCore struct {
	next    Core
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces limit calls per
// second with the given burst.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next Core) Core {
		return &rateLimitedCore{
			next:    next,
			limiter: limiter,
		}
	}
}

// Invoke waits for a token before forwarding the call. A context that ends
// while waiting is reported as an invocation error for the endpoint.
func (r *rateLimitedCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, ports.NewInvocationError(endpoint, 0, fmt.Errorf("rate limit: %w", err))
	}
	return r.next.Invoke(ctx, endpoint, guid)
}
