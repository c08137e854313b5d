// Package docstore retrieves tabular text files from the remote document
// gateway.
//
// Exported files live in a path-addressed store whose gateway accepts the
// same file under several request forms, and which form works varies by
// gateway version and folder configuration. The client therefore builds a
// normalized locator for each (container, sub-path, leaf) address and tries
// a fixed priority list of candidate request forms sequentially; the first
// success wins. Every failed candidate is recorded as a diagnostic because
// pinpointing which endpoint variant worked is the main support burden with
// this gateway.
//
// Transport is abstracted behind the single-method Getter interface so
// tests script responses without a network.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the gateway endpoint, e.g. "https://docs.internal/api".
	BaseURL string

	// RootPath is the fixed prefix all locators live under, e.g. "sites/ops".
	RootPath string

	// Suffix filters folder listings to tabular files. Default ".csv".
	Suffix string

	// Getter overrides the transport. Nil builds an HTTPGetter with
	// Timeout and Headers.
	Getter Getter

	// Timeout bounds one candidate request when Getter is nil. Candidates
	// run sequentially, so a fully failed fetch takes up to
	// len(candidates) * Timeout.
	Timeout time.Duration

	// Headers are set on every request when Getter is nil.
	Headers map[string]string
}

// Client fetches documents by candidate fallback and enumerates folders.
type Client struct {
	baseURL string
	root    string
	suffix  string
	getter  Getter
}

// FetchResult is a successful fetch: the body plus the diagnostics of the
// candidates that failed before one succeeded.
type FetchResult struct {
	Locator  string
	Form     string
	Body     string
	Attempts []Diagnostic
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("docstore: base URL is required")
	}
	suffix := cfg.Suffix
	if suffix == "" {
		suffix = ".csv"
	}
	getter := cfg.Getter
	if getter == nil {
		getter = NewHTTPGetter(HTTPConfig{Timeout: cfg.Timeout, BaseHeaders: cfg.Headers})
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		root:    strings.Trim(cfg.RootPath, "/"),
		suffix:  strings.ToLower(suffix),
		getter:  getter,
	}, nil
}

// Locator returns the normalized locator for an address triple.
func (c *Client) Locator(container, subPath, leaf string) string {
	return BuildLocator(c.root, container, subPath, leaf)
}

// Fetch retrieves the addressed file, trying each candidate request form in
// priority order. The first success short-circuits the sequence; its body
// and the failed attempts so far are returned. When every candidate fails,
// the error is a *FetchError carrying one diagnostic per candidate in
// attempt order.
//
// Candidates run sequentially, never in parallel: on a fully failed fetch
// the latency is the sum of the candidate timeouts. That trade-off is
// deliberate; ordered diagnostics matter more here than speed.
func (c *Client) Fetch(ctx context.Context, container, subPath, leaf string) (*FetchResult, error) {
	locator := c.Locator(container, subPath, leaf)
	candidates := c.fileCandidates(locator)
	diags := make([]Diagnostic, 0, len(candidates))

	for _, cand := range candidates {
		resp, err := c.getter.Get(ctx, cand.URL)
		if err != nil {
			diags = append(diags, Diagnostic{Form: cand.Form, URL: cand.URL, Detail: err.Error()})
			slog.Debug("candidate failed", "form", cand.Form, "locator", locator, "error", err)
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			slog.Debug("candidate succeeded",
				"form", cand.Form, "locator", locator, "status", resp.StatusCode, "bytes", len(resp.Body))
			return &FetchResult{
				Locator:  locator,
				Form:     cand.Form,
				Body:     string(resp.Body),
				Attempts: diags,
			}, nil
		}
		diags = append(diags, Diagnostic{
			Form:   cand.Form,
			URL:    cand.URL,
			Status: resp.StatusCode,
			Detail: failureDetail(resp),
		})
		slog.Debug("candidate rejected", "form", cand.Form, "locator", locator, "status", resp.StatusCode)
	}

	err := &FetchError{Locator: locator, Kind: classify(diags), Diagnostics: diags}
	slog.Warn("fetch exhausted", "locator", locator, "kind", err.Kind.String(), "candidates", len(diags))
	return nil, err
}

// FetchText retrieves the raw text of the addressed file.
func (c *Client) FetchText(ctx context.Context, container, subPath, leaf string) (string, error) {
	res, err := c.Fetch(ctx, container, subPath, leaf)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// folderListing is the gateway's enumeration response shape.
type folderListing struct {
	Entries []struct {
		Name string `json:"name"`
	} `json:"entries"`
}

// ListEntries enumerates a folder with a single request and returns the
// leaf names whose lowercase form ends in the tabular-file suffix, in
// gateway order. Zero matches is a valid empty result, not an error.
func (c *Client) ListEntries(ctx context.Context, container, subPath string) ([]string, error) {
	locator := BuildLocator(c.root, container, subPath, "")
	listURL := c.folderListURL(locator)

	resp, err := c.getter.Get(ctx, listURL)
	if err != nil {
		return nil, &FetchError{
			Locator:     locator,
			Kind:        KindUnreachable,
			Diagnostics: []Diagnostic{{Form: FormFolderList, URL: listURL, Detail: err.Error()}},
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d := Diagnostic{Form: FormFolderList, URL: listURL, Status: resp.StatusCode, Detail: failureDetail(resp)}
		return nil, &FetchError{Locator: locator, Kind: classify([]Diagnostic{d}), Diagnostics: []Diagnostic{d}}
	}

	var listing folderListing
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, &FetchError{
			Locator: locator,
			Kind:    KindMalformed,
			Diagnostics: []Diagnostic{{
				Form:   FormFolderList,
				URL:    listURL,
				Status: resp.StatusCode,
				Detail: "decode listing: " + err.Error(),
			}},
		}
	}

	names := make([]string, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		if strings.HasSuffix(strings.ToLower(e.Name), c.suffix) {
			names = append(names, e.Name)
		}
	}
	slog.Debug("folder listed", "locator", locator, "total", len(listing.Entries), "matching", len(names))
	return names, nil
}

// failureDetail renders a non-2xx response for a diagnostic: the status
// line plus a bounded single-line body snippet.
func failureDetail(resp *Response) string {
	snippet := bodySnippet(resp.Body, 200)
	if snippet == "" {
		return resp.Status
	}
	return resp.Status + ": " + snippet
}

// bodySnippet collapses a response body to one bounded line of printable
// text for diagnostics.
func bodySnippet(body []byte, limit int) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, string(body))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
