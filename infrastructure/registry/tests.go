package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

// TestEndpoints resolves test identifiers to their dcat:endpointURL.
type TestEndpoints struct {
	sparql *SPARQLClient
	cache  *ttlCache
	sf     singleflight.Group
	logger *slog.Logger
}

var _ ports.TestRegistry = (*TestEndpoints)(nil)

// NewTestEndpoints creates a lookup over the index behind sparql. Resolved
// endpoints are cached for ttl.
func NewTestEndpoints(sparql *SPARQLClient, cacheSize int, ttl time.Duration, logger *slog.Logger) *TestEndpoints {
	if logger == nil {
		logger = slog.Default()
	}
	return &TestEndpoints{
		sparql: sparql,
		cache:  newTTLCache(cacheSize, ttl),
		logger: logger,
	}
}

// EndpointFor implements ports.TestRegistry. When the index lists several
// endpoints the first is used.
func (t *TestEndpoints) EndpointFor(ctx context.Context, testIdentifier string) (string, error) {
	if endpoint, ok := t.cache.get(testIdentifier); ok {
		return endpoint, nil
	}

	subject, err := iriRef(testIdentifier)
	if err != nil {
		return "", ports.NewRegistryError(testIdentifier, "endpoint_for", err)
	}

	endpoint, err := sharedLookup(ctx, &t.sf, testIdentifier, func(ctx context.Context) (string, error) {
		if endpoint, ok := t.cache.get(testIdentifier); ok {
			return endpoint, nil
		}

		query := fmt.Sprintf("SELECT DISTINCT ?endpoint WHERE { %s <%s> ?endpoint }", subject, rdf.DCATEndpointURL)
		bindings, err := t.sparql.Select(ctx, query)
		if err != nil {
			return "", err
		}

		var endpoints []string
		for _, b := range bindings {
			if e := b["endpoint"]; e != "" {
				endpoints = append(endpoints, e)
			}
		}
		if len(endpoints) == 0 {
			return "", ports.ErrEndpointNotFound
		}
		if len(endpoints) > 1 {
			t.logger.Warn("multiple endpoints registered for test, using the first",
				"test", testIdentifier, "endpoints", endpoints)
		}
		t.cache.put(testIdentifier, endpoints[0])
		return endpoints[0], nil
	})
	if err != nil {
		return "", ports.NewRegistryError(testIdentifier, "endpoint_for", err)
	}
	return endpoint, nil
}
