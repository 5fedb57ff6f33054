package application

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-champion/infrastructure/configsource"
	"github.com/ahrav/go-champion/infrastructure/middleware"
	"github.com/ahrav/go-champion/infrastructure/output"
	"github.com/ahrav/go-champion/infrastructure/registry"
	"github.com/ahrav/go-champion/infrastructure/testclient"
	"github.com/ahrav/go-champion/internal/ports"
	"github.com/ahrav/go-champion/internal/rdf"
)

// tracerName names the spans of test calls and pipeline stages.
const tracerName = "champion/pipeline"

// WiringOptions carries process-level collaborators into NewDependencies.
type WiringOptions struct {
	Logger  *slog.Logger
	Metrics ports.MetricsCollector

	// HTTPClient is shared by the configuration source and the index
	// clients. Nil uses a client bounded by the configured timeout.
	HTTPClient *http.Client

	// AllowFiles lets the configuration source read local exports.
	AllowFiles bool
}

// NewDependencies builds the production collaborators described by cfg:
// the export fetcher, the FDP Index backed registries with the default
// test host fallback, and a test client wrapped in tracing, metrics, rate
// limiting and per-endpoint circuit breaking.
func NewDependencies(cfg Config, opts WiringOptions) Dependencies {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	contexts := newContextLoader(cfg, httpClient, logger)
	sparql := registry.NewSPARQLClient(cfg.FDPIndex.SPARQLEndpoint, httpClient)
	index := registry.NewTestEndpoints(sparql, cfg.Registry.CacheSize, cfg.Registry.CacheTTL, logger)

	return Dependencies{
		Source: configsource.New(configsource.Config{
			HTTPClient: httpClient,
			Timeout:    cfg.HTTP.Timeout,
			UserAgent:  cfg.HTTP.UserAgent,
			AllowFiles: opts.AllowFiles,
		}, logger),
		Tests: registry.NewHostFallback(index, cfg.TestHost, logger),
		Invoker: testclient.NewClient(testclient.Config{
			Timeout:    cfg.HTTP.Timeout,
			UserAgent:  cfg.HTTP.UserAgent,
			Middleware: invokerMiddleware(cfg.HTTP, opts.Metrics),
		}),
		Assembler: output.NewAssembler(cfg.Output, logger).WithContexts(contexts),
		Algorithms: registry.NewAlgorithms(sparql, registry.AlgorithmsConfig{
			ProxyURL:   cfg.FDPIndex.ProxyURL,
			BaseURI:    cfg.BaseURI,
			HTTPClient: httpClient,
			CacheSize:  cfg.Registry.CacheSize,
			CacheTTL:   cfg.Registry.CacheTTL,
		}, logger),
		Contexts: contexts,
		Metrics:  opts.Metrics,
		Observer: middleware.NewOTelStageObserver(opts.Metrics, tracerName),
		Logger:   logger,
	}
}

// newContextLoader builds the shared JSON-LD context loader. A local copy
// that cannot be read is skipped; its URL is then fetched like any other.
func newContextLoader(cfg Config, client *http.Client, logger *slog.Logger) *rdf.ContextLoader {
	loader := rdf.NewContextLoader(client, cfg.JSONLD.AllowedContextHosts...)
	for u, path := range cfg.JSONLD.Contexts {
		if err := loader.PreloadFile(u, path); err != nil {
			logger.Warn("context preload failed", "url", u, "error", err)
		}
	}
	return loader
}

// invokerMiddleware orders the test client chain outermost first. The
// breaker sits innermost so an open circuit still shows up in spans and
// metrics.
func invokerMiddleware(cfg HTTPConfig, metrics ports.MetricsCollector) []testclient.Middleware {
	mws := []testclient.Middleware{testclient.TracingMiddleware(tracerName)}
	if metrics != nil {
		mws = append(mws, testclient.MetricsMiddleware(metrics))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		mws = append(mws, testclient.RateLimitMiddleware(rate.Limit(cfg.RateLimit), burst))
	}
	if cfg.BreakerFailures > 0 {
		mws = append(mws, testclient.CircuitBreakerMiddleware(cfg.BreakerFailures, cfg.BreakerCooldown))
	}
	return mws
}
