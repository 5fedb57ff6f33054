// Package testclient invokes FAIRness test services over HTTP with built-in
// support for timeouts, rate limiting, circuit breaking, metrics and tracing.
//
// A test service is called by posting the subject GUID to its endpoint; it
// answers with a JSON-LD document describing one TestResult. The Core
// interface captures that single call so the middleware chain can wrap any
// conforming implementation.
//
// Basic usage:
//
//	client := testclient.NewClient(testclient.Config{
//	    Timeout: 30 * time.Second,
//	    Middleware: []testclient.Middleware{
//	        testclient.TracingMiddleware("champion"),
//	        testclient.MetricsMiddleware(collector),
//	        testclient.RateLimitMiddleware(20, 40),
//	    },
//	})
//	body, err := client.Invoke(ctx, endpoint, guid)
package testclient

import (
	"context"
	"net/http"
	"time"

	"github.com/ahrav/go-champion/internal/ports"
)

// Core defines the minimal call a test transport must implement.
type Core interface {
	// Invoke posts guid to the test endpoint and returns the raw response
	// body. Failures are reported as *ports.InvocationError.
	Invoke(ctx context.Context, endpoint, guid string) ([]byte, error)
}

// CoreFunc adapts a function to the Core interface.
type CoreFunc func(ctx context.Context, endpoint, guid string) ([]byte, error)

// Invoke calls f.
func (f CoreFunc) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	return f(ctx, endpoint, guid)
}

// Middleware wraps a Core to add cross-cutting behaviour.
type Middleware func(Core) Core

// Config holds the options for creating a Client.
type Config struct {
	// HTTPClient performs the requests. Nil uses a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds each invocation. Zero disables the per-call timeout.
	Timeout time.Duration

	// UserAgent is sent with every request when set.
	UserAgent string

	// MaxBodyBytes caps the size of a response body. Zero uses
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Middleware is applied in order: the first entry is the outermost.
	Middleware []Middleware
}

// Client implements ports.TestInvoker on top of a middleware-wrapped Core.
type Client struct {
	core Core
}

var _ ports.TestInvoker = (*Client)(nil)

// NewClient creates an HTTP backed Client. The per-call timeout, when set,
// is the innermost middleware so it bounds only the HTTP exchange.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	core := Core(NewHTTPCore(httpClient, cfg.UserAgent, cfg.MaxBodyBytes))
	if cfg.Timeout > 0 {
		core = TimeoutMiddleware(cfg.Timeout)(core)
	}
	return Wrap(core, cfg.Middleware...)
}

// Wrap builds a Client from an arbitrary Core and middleware.
func Wrap(core Core, middleware ...Middleware) *Client {
	// Apply in reverse so the first middleware is the outermost.
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return &Client{core: core}
}

// Invoke runs one test against guid.
func (c *Client) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	return c.core.Invoke(ctx, endpoint, guid)
}
