package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

var algorithmIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// AlgorithmsConfig holds the settings of an Algorithms registry.
type AlgorithmsConfig struct {
	// ProxyURL receives the DCAT descriptions of registered algorithms.
	ProxyURL string

	// BaseURI is the public root under which algorithm GUIDs are minted.
	BaseURI string

	HTTPClient *http.Client
	CacheSize  int
	CacheTTL   time.Duration
}

// Algorithms implements ports.AlgorithmRegistry on top of the FDP Index.
type Algorithms struct {
	sparql   *SPARQLClient
	proxyURL string
	baseURI  string
	client   *http.Client
	codec    rdf.Codec
	cache    *ttlCache
	sf       singleflight.Group
	logger   *slog.Logger
}

var _ ports.AlgorithmRegistry = (*Algorithms)(nil)

// NewAlgorithms creates an algorithm registry.
func NewAlgorithms(sparql *SPARQLClient, cfg AlgorithmsConfig, logger *slog.Logger) *Algorithms {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Algorithms{
		sparql:   sparql,
		proxyURL: cfg.ProxyURL,
		baseURI:  cfg.BaseURI,
		client:   client,
		cache:    newTTLCache(cfg.CacheSize, cfg.CacheTTL),
		logger:   logger,
	}
}

// Register posts the algorithm's description to the index proxy and caches
// its calculation URI.
func (a *Algorithms) Register(ctx context.Context, def *domain.AlgorithmDefinition, metadata *rdf.Graph) error {
	if def == nil || metadata == nil {
		return ports.NewRegistryError("", "register", domain.ErrEmptyValue)
	}
	body, err := a.codec.Marshal(metadata)
	if err != nil {
		return ports.NewRegistryError(def.AlgorithmID, "register", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.proxyURL, bytes.NewReader(body))
	if err != nil {
		return ports.NewRegistryError(def.AlgorithmID, "register", err)
	}
	req.Header.Set("Content-Type", "application/ld+json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return ports.NewRegistryError(def.AlgorithmID, "register",
			fmt.Errorf("%w: %w", ports.ErrServiceUnavailable, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return ports.NewRegistryError(def.AlgorithmID, "register",
			fmt.Errorf("%w: index proxy returned %d", ports.ErrServiceUnavailable, resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return ports.NewRegistryError(def.AlgorithmID, "register",
			fmt.Errorf("%w: index proxy returned %d", ports.ErrInvalidResponse, resp.StatusCode))
	}

	a.cache.put(def.AlgorithmID, def.CalculationURI)
	attrs := []any{"algorithm_id", def.AlgorithmID, "guid", def.GUID()}
	if titles := metadata.Objects(rdf.IRI(def.GUID()), rdf.IRI(rdf.DCTitle)); len(titles) > 0 {
		attrs = append(attrs, "title", titles[0].Value)
	}
	a.logger.Info("algorithm registered", attrs...)
	return nil
}

// RetrieveByID implements ports.AlgorithmRegistry.
func (a *Algorithms) RetrieveByID(ctx context.Context, id string) (string, error) {
	if !algorithmIDPattern.MatchString(id) {
		return "", ports.NewRegistryError(id, "retrieve_by_id", ports.ErrAlgorithmNotFound)
	}
	if calc, ok := a.cache.get(id); ok {
		return calc, nil
	}

	calc, err := sharedLookup(ctx, &a.sf, id, func(ctx context.Context) (string, error) {
		if calc, ok := a.cache.get(id); ok {
			return calc, nil
		}

		guid := domain.AlgorithmGUID(a.baseURI, id)
		query := fmt.Sprintf(`SELECT ?calc WHERE { <%s> <%s> <%s> ; <%s> ?calc } LIMIT 1`,
			guid, rdf.DCIdentifier, guid, rdf.DCSource)
		bindings, err := a.sparql.Select(ctx, query)
		if err != nil {
			return "", err
		}
		if len(bindings) == 0 || bindings[0]["calc"] == "" {
			return "", ports.ErrAlgorithmNotFound
		}
		calc := bindings[0]["calc"]
		a.cache.put(id, calc)
		return calc, nil
	})
	if err != nil {
		return "", ports.NewRegistryError(id, "retrieve_by_id", err)
	}
	return calc, nil
}

// List implements ports.AlgorithmRegistry. Records come back in GUID order.
func (a *Algorithms) List(ctx context.Context) ([]ports.AlgorithmRecord, error) {
	query := fmt.Sprintf(`SELECT ?algo ?calc ?title WHERE { ?algo a <%s> ; <%s> ?calc . OPTIONAL { ?algo <%s> ?title } } ORDER BY ?algo`,
		rdf.FTRScoringAlgorithm, rdf.DCSource, rdf.DCTitle)
	bindings, err := a.sparql.Select(ctx, query)
	if err != nil {
		return nil, ports.NewRegistryError("", "list", err)
	}

	seen := make(map[string]bool, len(bindings))
	records := make([]ports.AlgorithmRecord, 0, len(bindings))
	for _, b := range bindings {
		guid := b["algo"]
		if guid == "" || seen[guid] {
			continue
		}
		seen[guid] = true
		rec := ports.AlgorithmRecord{
			ID:             algorithm.ID(guid),
			GUID:           guid,
			CalculationURI: b["calc"],
			Title:          b["title"],
		}
		a.cache.put(rec.ID, rec.CalculationURI)
		records = append(records, rec)
	}
	return records, nil
}
