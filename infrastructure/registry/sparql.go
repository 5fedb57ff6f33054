// Package registry talks to the FDP Index: it resolves test identifiers to
// their endpoints and keeps the scoring algorithm registry.
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-champion/internal/ports"
)

const sparqlResultsJSON = "application/sparql-results+json"

// Binding is one solution of a SELECT query: variable name to value.
type Binding map[string]string

// SPARQLClient runs SELECT queries against a SPARQL 1.1 endpoint.
type SPARQLClient struct {
	endpoint  string
	client    *http.Client
	userAgent string
}

// NewSPARQLClient creates a client for endpoint. A nil client uses
// http.DefaultClient.
func NewSPARQLClient(endpoint string, client *http.Client) *SPARQLClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &SPARQLClient{endpoint: endpoint, client: client, userAgent: "fair-champion"}
}

// Select posts query and returns its bindings in result order.
func (c *SPARQLClient) Select(ctx context.Context, query string) ([]Binding, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", sparqlResultsJSON)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading sparql response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: sparql endpoint returned %d", ports.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: sparql endpoint returned %d", ports.ErrInvalidResponse, resp.StatusCode)
	}
	return parseBindings(body)
}

func parseBindings(body []byte) ([]Binding, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: sparql response is not JSON", ports.ErrInvalidResponse)
	}
	bindings := gjson.GetBytes(body, "results.bindings")
	if !bindings.IsArray() {
		return nil, fmt.Errorf("%w: sparql response has no results.bindings", ports.ErrInvalidResponse)
	}

	var out []Binding
	bindings.ForEach(func(_, solution gjson.Result) bool {
		b := Binding{}
		solution.ForEach(func(name, value gjson.Result) bool {
			b[name.String()] = value.Get("value").String()
			return true
		})
		out = append(out, b)
		return true
	})
	return out, nil
}

// iriRef renders s as a SPARQL IRI reference.
func iriRef(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "<>\"{}|^`\\ \t\r\n") || !strings.Contains(s, ":") {
		return "", fmt.Errorf("%w: %q", ports.ErrInvalidIRI, s)
	}
	return "<" + s + ">", nil
}
