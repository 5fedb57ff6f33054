package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahrav/go-champion/internal/ports"
)

// HostFallback resolves tests the index does not know to an endpoint on a
// default test host: <host>/<last path segment of the test identifier>.
type HostFallback struct {
	next   ports.TestRegistry
	host   string
	logger *slog.Logger
}

var _ ports.TestRegistry = (*HostFallback)(nil)

// NewHostFallback wraps next. An empty host disables the fallback.
func NewHostFallback(next ports.TestRegistry, host string, logger *slog.Logger) *HostFallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostFallback{next: next, host: strings.TrimRight(host, "/"), logger: logger}
}

// EndpointFor implements ports.TestRegistry. Only ErrEndpointNotFound
// triggers the fallback; index outages are passed through.
func (f *HostFallback) EndpointFor(ctx context.Context, testIdentifier string) (string, error) {
	endpoint, err := f.next.EndpointFor(ctx, testIdentifier)
	if err == nil || f.host == "" || !errors.Is(err, ports.ErrEndpointNotFound) {
		return endpoint, err
	}

	name := strings.TrimRight(testIdentifier, "/")
	name = name[strings.LastIndexAny(name, "/#")+1:]
	if name == "" {
		return "", err
	}
	endpoint = f.host + "/" + name
	f.logger.Debug("test not indexed, using default test host", "test", testIdentifier, "endpoint", endpoint)
	return endpoint, nil
}
