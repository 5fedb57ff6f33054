package testclient

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/ahrav/go-champion/internal/ports"
)

// metricsCore records the latency and outcome of every test call.
type metricsCore struct {
	next      Core
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports test calls to
// collector. A nil collector makes the middleware a pass-through.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next Core) Core {
		return &metricsCore{
			next:      next,
			collector: collector,
		}
	}
}

// Invoke executes the call and records its latency and status.
func (m *metricsCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	if m.collector == nil {
		return m.next.Invoke(ctx, endpoint, guid)
	}

	start := time.Now()
	body, err := m.next.Invoke(ctx, endpoint, guid)

	status := Status(err)
	m.collector.RecordLatency(ports.MetricTestLatency, time.Since(start), map[string]string{"status": status})
	m.collector.RecordCounter(ports.MetricTestInvocations, 1, map[string]string{
		"status": status,
		"host":   host(endpoint),
	})
	return body, err
}

// Status classifies an invocation result for metrics and logs.
func Status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ports.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ports.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ports.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, ports.ErrInvalidResponse):
		return "invalid_response"
	default:
		return "error"
	}
}

func host(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
