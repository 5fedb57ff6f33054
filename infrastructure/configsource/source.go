// Package configsource fetches the CSV export that defines a scoring
// algorithm, either from the spreadsheet host or from a local file.
package configsource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ahrav/go-champion/internal/algorithm"
	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

// DefaultMaxBytes caps the size of an export.
const DefaultMaxBytes = 5 << 20

// Config holds the settings of an HTTP Source.
type Config struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64

	// AllowFiles enables file:// URIs and plain paths. Only the CLI sets it.
	AllowFiles bool
}

// Source implements ports.ConfigSource.
type Source struct {
	client     *http.Client
	userAgent  string
	maxBytes   int64
	allowFiles bool
	logger     *slog.Logger
}

var _ ports.ConfigSource = (*Source)(nil)

// New creates a Source.
func New(cfg Config, logger *slog.Logger) *Source {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fair-champion"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		client:     client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBytes,
		allowFiles: cfg.AllowFiles,
		logger:     logger,
	}
}

// Fetch implements ports.ConfigSource. Remote calculation URIs are read
// from their CSV export; redirects are followed.
func (s *Source) Fetch(ctx context.Context, calculationURI string) ([]string, error) {
	if path, ok := s.localPath(calculationURI); ok {
		return s.readFile(path)
	}

	exportURL := algorithm.ExportURL(calculationURI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, &domain.ConfigFetchError{URL: exportURL, Err: err}
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.ConfigFetchError{URL: exportURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.ConfigFetchError{
			URL:        exportURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, &domain.ConfigFetchError{URL: exportURL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > s.maxBytes {
		return nil, &domain.ConfigFetchError{
			URL:        exportURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("export exceeds %d bytes", s.maxBytes),
		}
	}

	s.logger.Debug("configuration export fetched",
		"url", exportURL, "bytes", len(body), "duration", time.Since(start))
	return SplitLines(string(body)), nil
}

func (s *Source) localPath(uri string) (string, bool) {
	if !s.allowFiles {
		return "", false
	}
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}
	if strings.Contains(uri, "://") {
		return "", false
	}
	return uri, true
}

func (s *Source) readFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigFetchError{URL: path, Err: err}
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits an export into physical lines, keeping terminators so
// that quoted multi-line cells survive reassembly.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
