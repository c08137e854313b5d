package docstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodySize caps how much of a response body is read. Exported files in
// this domain are small; anything larger is a misaddressed resource.
var MaxBodySize int64 = 64 << 20 // 64MB

// DefaultRequestTimeout applies when no timeout is configured.
var DefaultRequestTimeout = 30 * time.Second

// Getter is the single-method transport the client fetches through.
// Implementations perform one GET of the given URL; candidate selection,
// fallback order, and diagnostics stay in the client. Tests substitute a
// scripted Getter.
type Getter interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// Response is the transport-neutral result of one request.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// HTTPConfig configures the production transport.
type HTTPConfig struct {
	// Timeout bounds one request including body read. Zero means
	// DefaultRequestTimeout.
	Timeout time.Duration

	// BaseHeaders are set on every request, e.g. a gateway API key header
	// injected by the deployment environment.
	BaseHeaders map[string]string

	// Transport overrides the underlying RoundTripper, nil for
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// HTTPGetter is the production Getter backed by net/http.
type HTTPGetter struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPGetter creates the production transport.
func NewHTTPGetter(cfg HTTPConfig) *HTTPGetter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPGetter{
		client: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		headers: cfg.BaseHeaders,
	}
}

// Get performs one GET and reads the body up to MaxBodySize. The body is
// BOM-stripped and UTF-8-repaired as it streams in (see reader.go). Non-2xx
// statuses are not errors here; classification belongs to the client, which
// needs the status and body for its diagnostics.
func (g *HTTPGetter) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, application/json")
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(newBodyReader(io.LimitReader(resp.Body, MaxBodySize)))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}
