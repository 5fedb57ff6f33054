package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/piprate/json-gold/ld"
)

// ErrRemoteContext indicates that a remote @context was refused or could
// not be fetched.
var ErrRemoteContext = errors.New("remote JSON-LD context unavailable")

const (
	maxContextBytes       = 1 << 20
	defaultContextTimeout = 10 * time.Second
)

// ContextLoader resolves remote @context documents for a Codec. Preloaded
// and fetched documents are cached for the life of the loader. Only hosts
// on the allowlist are fetched, and every fetch is bound to the context of
// the parse that triggered it.
type ContextLoader struct {
	client  *http.Client
	allowed map[string]struct{}

	mu   sync.RWMutex
	docs map[string]*ld.RemoteDocument
}

// NewContextLoader creates a loader that may fetch contexts from
// allowedHosts with client. A nil client gets a 10s timeout.
func NewContextLoader(client *http.Client, allowedHosts ...string) *ContextLoader {
	if client == nil {
		client = &http.Client{Timeout: defaultContextTimeout}
	}
	allowed := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &ContextLoader{
		client:  client,
		allowed: allowed,
		docs:    make(map[string]*ld.RemoteDocument),
	}
}

// Preload serves doc for u without touching the network.
func (l *ContextLoader) Preload(u string, doc any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[u] = &ld.RemoteDocument{DocumentURL: u, Document: doc}
}

// PreloadFile serves the JSON document at path for u.
func (l *ContextLoader) PreloadFile(u, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("preloading context %s: %w", u, err)
	}
	defer f.Close()
	doc, err := ld.DocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("preloading context %s: %w", u, err)
	}
	l.Preload(u, doc)
	return nil
}

// bind returns a json-gold loader whose fetches honor ctx. A nil loader
// refuses every remote context.
func (l *ContextLoader) bind(ctx context.Context) ld.DocumentLoader {
	return boundLoader{loader: l, ctx: ctx}
}

type boundLoader struct {
	loader *ContextLoader
	ctx    context.Context
}

func (b boundLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if b.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrRemoteContext, u)
	}
	return b.loader.load(b.ctx, u)
}

func (l *ContextLoader) load(ctx context.Context, u string) (*ld.RemoteDocument, error) {
	l.mu.RLock()
	doc, ok := l.docs[u]
	l.mu.RUnlock()
	if ok {
		return doc, nil
	}

	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrRemoteContext, u)
	}
	if _, ok := l.allowed[strings.ToLower(parsed.Hostname())]; !ok {
		return nil, fmt.Errorf("%w: host %q is not allowed", ErrRemoteContext, parsed.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteContext, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json;q=0.9")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteContext, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned %d", ErrRemoteContext, u, resp.StatusCode)
	}

	body, err := ld.DocumentFromReader(io.LimitReader(resp.Body, maxContextBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteContext, err)
	}
	doc = &ld.RemoteDocument{DocumentURL: u, Document: body}

	l.mu.Lock()
	l.docs[u] = doc
	l.mu.Unlock()
	return doc, nil
}
