// Package application wires the assessment pipeline together and exposes
// the operations the outer layers call: assess, register, list and
// describe scoring algorithms.
package application

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-champion/infrastructure/middleware"
	"github.com/ahrav/go-champion/infrastructure/output"
)

// Defaults of the public deployment.
const (
	DefaultBaseURI        = "https://tools.ostrails.eu/champion"
	DefaultTestHost       = "https://tests.ostrails.eu/tests"
	DefaultSPARQLEndpoint = "https://tools.ostrails.eu/repositories/fdpindex-fdp"
	DefaultProxyURL       = "https://tools.ostrails.eu/fdp-index-proxy/proxy"
	DefaultTimeout        = 30 * time.Second
	DefaultAddr           = ":8282"
)

// Config is the complete service configuration. It is built once at
// startup, from a YAML file and the environment, and passed explicitly to
// every constructor that needs it.
type Config struct {
	// BaseURI is the public root under which algorithm GUIDs and assessment
	// endpoints are minted.
	BaseURI string `yaml:"base_uri" validate:"required,absurl"`

	// TestHost is where tests without an index entry are expected to live.
	// Empty disables the fallback.
	TestHost string `yaml:"test_host" validate:"omitempty,absurl"`

	FDPIndex FDPIndexConfig           `yaml:"fdp_index"`
	HTTP     HTTPConfig               `yaml:"http"`
	Registry RegistryConfig           `yaml:"registry"`
	JSONLD   JSONLDConfig             `yaml:"jsonld"`
	Server   ServerConfig             `yaml:"server"`
	Output   output.Options           `yaml:"output"`
	Tracing  middleware.TracingConfig `yaml:"tracing"`
}

// FDPIndexConfig locates the FAIR Data Point index.
type FDPIndexConfig struct {
	SPARQLEndpoint string `yaml:"sparql_endpoint" validate:"required,absurl"`
	ProxyURL       string `yaml:"proxy_url" validate:"required,absurl"`
}

// HTTPConfig controls outbound calls to the configuration source and the
// test services.
type HTTPConfig struct {
	// Timeout bounds each outbound call.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// MaxConcurrency caps concurrent test calls per assessment.
	MaxConcurrency int `yaml:"max_concurrency" validate:"min=0,max=256"`

	// RateLimit is the sustained test calls per second across all
	// assessments. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"min=0"`
	RateBurst int     `yaml:"rate_burst" validate:"min=0"`

	// BreakerFailures consecutive failures open an endpoint's circuit for
	// BreakerCooldown. Zero disables the breaker.
	BreakerFailures int           `yaml:"breaker_failures" validate:"min=0,max=100"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" validate:"gte=0"`

	UserAgent string `yaml:"user_agent"`
}

// RegistryConfig sizes the index lookup caches.
type RegistryConfig struct {
	CacheSize int           `yaml:"cache_size" validate:"min=0,max=1000000"`
	CacheTTL  time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// JSONLDConfig controls how remote @context references in test outputs
// and supplied result sets are resolved. Contexts from any other host are
// refused.
type JSONLDConfig struct {
	AllowedContextHosts []string `yaml:"allowed_context_hosts" validate:"dive,hostname"`

	// Contexts maps context URLs to local copies that are served without
	// a fetch.
	Contexts map[string]string `yaml:"contexts" validate:"dive,keys,absurl,endkeys,required"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// DefaultConfig returns the configuration of the public deployment.
func DefaultConfig() Config {
	return Config{
		BaseURI:  DefaultBaseURI,
		TestHost: DefaultTestHost,
		FDPIndex: FDPIndexConfig{
			SPARQLEndpoint: DefaultSPARQLEndpoint,
			ProxyURL:       DefaultProxyURL,
		},
		HTTP: HTTPConfig{
			Timeout:         DefaultTimeout,
			MaxConcurrency:  16,
			RateLimit:       20,
			RateBurst:       40,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
			UserAgent:       "fair-champion",
		},
		Registry: RegistryConfig{
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		JSONLD: JSONLDConfig{
			AllowedContextHosts: []string{"w3id.org"},
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: 10 * time.Second,
		},
		Output: output.DefaultOptions(),
		Tracing: middleware.TracingConfig{
			ServiceName: "fair-champion",
			SampleRate:  1,
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseConfig(bytes.NewReader(data))
}

// ParseConfig decodes YAML over the defaults and validates the result.
// Unknown fields are rejected so typos are not silently ignored.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("YAML decode failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("absurl", validateAbsURL); err != nil {
		panic(fmt.Sprintf("failed to register absurl validator: %v", err))
	}
	return v
}

// validateAbsURL accepts absolute http(s) URLs with a host.
func validateAbsURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
