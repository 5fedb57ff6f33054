package testclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ahrav/go-champion/internal/ports"
)

// DefaultMaxBodyBytes caps test responses at 10 MiB.
const DefaultMaxBodyBytes int64 = 10 << 20

// invokeRequest is the body posted to a test endpoint.
type invokeRequest struct {
	ResourceIdentifier string `json:"resource_identifier"`
}

// HTTPCore is the transport Core: one POST per invocation.
type HTTPCore struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTPCore creates an HTTPCore. A maxBody of zero or less uses
// DefaultMaxBodyBytes.
func NewHTTPCore(client *http.Client, userAgent string, maxBody int64) *HTTPCore {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &HTTPCore{client: client, userAgent: userAgent, maxBody: maxBody}
}

// Invoke posts {"resource_identifier": guid} to endpoint. Any status outside
// 2xx, an empty body or a body that is not JSON is an error.
func (h *HTTPCore) Invoke(ctx context.Context, endpoint, guid string) ([]byte, error) {
	payload, err := json.Marshal(invokeRequest{ResourceIdentifier: guid})
	if err != nil {
		return nil, ports.NewInvocationError(endpoint, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, ports.NewInvocationError(endpoint, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, ports.NewInvocationError(endpoint, 0, transportError(ctx, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody))
	if err != nil {
		return nil, ports.NewInvocationError(endpoint, resp.StatusCode, transportError(ctx, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ports.NewInvocationError(endpoint, resp.StatusCode, statusError(resp.StatusCode, body))
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ports.NewInvocationError(endpoint, resp.StatusCode,
			fmt.Errorf("%w: empty body", ports.ErrInvalidResponse))
	}
	if !json.Valid(body) {
		return nil, ports.NewInvocationError(endpoint, resp.StatusCode,
			fmt.Errorf("%w: body is not JSON", ports.ErrInvalidResponse))
	}
	return body, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ports.ErrServiceUnavailable, err)
}

// statusError classifies an HTTP failure status.
func statusError(status int, body []byte) error {
	var sentinel error
	switch {
	case status == http.StatusTooManyRequests:
		sentinel = ports.ErrRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		sentinel = ports.ErrTimeout
	case status >= http.StatusInternalServerError:
		sentinel = ports.ErrServiceUnavailable
	default:
		sentinel = ports.ErrInvalidResponse
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	if snippet == "" {
		return fmt.Errorf("%w: HTTP %d", sentinel, status)
	}
	return fmt.Errorf("%w: HTTP %d: %s", sentinel, status, snippet)
}
