package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ChartFeed/internal/config"
	"github.com/JonMunkholm/ChartFeed/internal/core"
	"github.com/JonMunkholm/ChartFeed/internal/docstore"
	"github.com/JonMunkholm/ChartFeed/internal/store"
)

// stubGetter scripts the document gateway: file fetches are served from
// files keyed by leaf name, folder listings from entries.
type stubGetter struct {
	files   map[string]string
	entries []string
}

func (g *stubGetter) Get(ctx context.Context, rawURL string) (*docstore.Response, error) {
	if strings.Contains(rawURL, "/folders?") {
		type entry struct {
			Name string `json:"name"`
		}
		listing := struct {
			Entries []entry `json:"entries"`
		}{}
		for _, name := range g.entries {
			listing.Entries = append(listing.Entries, entry{Name: name})
		}
		body, _ := json.Marshal(listing)
		return &docstore.Response{StatusCode: 200, Status: "200 OK", Body: body}, nil
	}
	for leaf, body := range g.files {
		if strings.Contains(rawURL, leaf) {
			return &docstore.Response{StatusCode: 200, Status: "200 OK", Body: []byte(body)}, nil
		}
	}
	return &docstore.Response{StatusCode: 404, Status: "404 Not Found", Body: []byte("no such file")}, nil
}

const feedCSV = "Property,Title,Label,Value,TextData\n" +
	"P1,Revenue,Q1,100,\n" +
	"P1,Revenue,Q2,200,\n" +
	"P1,Unit Types,Studio,,10\n" +
	"P1,Unit Types,One Bedroom,,20\n" +
	"P2,Occupancy,Jan,0.92,\n"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, g *stubGetter, st *store.Store, cfg *config.Config) *Server {
	t.Helper()
	docs, err := docstore.New(docstore.Config{BaseURL: "https://gw.test/api", RootPath: "sites/ops", Getter: g})
	if err != nil {
		t.Fatalf("docstore.New() error = %v", err)
	}
	svc, err := core.NewService(docs, nil, core.ServiceConfig{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewServer(svc, st, cfg)
}

func feedServer(t *testing.T) *Server {
	t.Helper()
	g := &stubGetter{
		files:   map[string]string{"report.csv": feedCSV},
		entries: []string{"report.csv", "notes.txt"},
	}
	return newTestServer(t, g, nil, testConfig())
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// ===== HEALTH =====

func TestHealthEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body struct {
		Status       string `json:"status"`
		CachedTables int    `json:"cached_tables"`
		Refreshes    struct {
			Active        int `json:"active"`
			Available     int `json:"available"`
			MaxConcurrent int `json:"max_concurrent"`
		} `json:"refreshes"`
	}
	decodeBody(t, rr, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.CachedTables != 0 {
		t.Errorf("cached_tables = %d, want 0 on a cold server", body.CachedTables)
	}
	if body.Refreshes.MaxConcurrent != core.DefaultMaxConcurrentRefreshes {
		t.Errorf("refreshes.max_concurrent = %d, want %d",
			body.Refreshes.MaxConcurrent, core.DefaultMaxConcurrentRefreshes)
	}
	if body.Refreshes.Active != 0 {
		t.Errorf("refreshes.active = %d, want 0", body.Refreshes.Active)
	}
}

// ===== TABLES =====

func TestTableEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/table?container=finance&file=report.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Locator   string `json:"locator"`
		FromCache bool   `json:"fromCache"`
		Table     struct {
			Headers []string   `json:"headers"`
			Rows    []core.Row `json:"rows"`
		} `json:"table"`
	}
	decodeBody(t, rr, &body)
	if body.Locator != "/sites/ops/finance/report.csv" {
		t.Errorf("locator = %q", body.Locator)
	}
	if body.FromCache {
		t.Error("fromCache = true on first fetch")
	}
	if len(body.Table.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(body.Table.Rows))
	}
	if len(body.Table.Headers) != 5 {
		t.Errorf("headers = %v, want the five canonical names", body.Table.Headers)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/table?container=finance&file=report.csv", "")
	decodeBody(t, rr, &body)
	if !body.FromCache {
		t.Error("fromCache = false on second fetch, want cache hit")
	}
}

func TestTableEndpoint_MissingFile(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/table", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &body)
	if body.Error != "missing file parameter" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestTableEndpoint_NotFound(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/table?file=absent.csv", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}

	var body ErrorResponse
	decodeBody(t, rr, &body)
	if body.Code != "FETCH001" {
		t.Errorf("code = %q, want FETCH001", body.Code)
	}
	if body.Message != "The requested file was not found" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Action == "" {
		t.Error("action is empty, want guidance")
	}
}

// ===== FOLDER LISTING =====

func TestFilesEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/files?container=finance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Files []string `json:"files"`
		Count int      `json:"count"`
	}
	decodeBody(t, rr, &body)
	if body.Count != 1 || len(body.Files) != 1 || body.Files[0] != "report.csv" {
		t.Errorf("files = %v count = %d, want just report.csv", body.Files, body.Count)
	}
}

// ===== SERIES =====

func TestCategoriesEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/categories?file=report.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Categories []string `json:"categories"`
		Count      int      `json:"count"`
	}
	decodeBody(t, rr, &body)
	if body.Count != 2 || body.Categories[0] != "P1" || body.Categories[1] != "P2" {
		t.Errorf("categories = %v, want [P1 P2]", body.Categories)
	}
}

func TestSeriesEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/series?file=report.csv&category=P1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Series []core.SeriesGroup `json:"series"`
		Count  int                `json:"count"`
	}
	decodeBody(t, rr, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want Revenue and Unit Types", body.Count)
	}
	if body.Series[0].Title != "Revenue" {
		t.Errorf("series[0].title = %q, want Revenue", body.Series[0].Title)
	}
	if len(body.Series[0].Rows) != 2 {
		t.Errorf("series[0] has %d rows, want 2", len(body.Series[0].Rows))
	}
}

func TestSeriesEndpoint_MissingCategory(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/series?file=report.csv", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSeriesSummaryEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet,
		"/api/series/summary?file=report.csv&category=P1&title=Revenue", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body core.Summary
	decodeBody(t, rr, &body)
	if body.Count != 2 || body.Sum != 300 || body.Mean != 150 {
		t.Errorf("summary = %+v, want count 2, sum 300, mean 150", body)
	}

	rr = doRequest(t, srv, http.MethodGet,
		"/api/series/summary?file=report.csv&category=P1&title=Nothing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an unknown title", rr.Code)
	}
	var errBody ErrorResponse
	decodeBody(t, rr, &errBody)
	if errBody.Code != "DATA001" {
		t.Errorf("code = %q, want DATA001", errBody.Code)
	}
}

func TestUnitsEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/units?file=report.csv&category=P1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body core.UnitBreakdown
	decodeBody(t, rr, &body)
	if len(body.Entries) != 2 {
		t.Fatalf("entries = %+v, want studio and 1br", body.Entries)
	}
	if body.Entries[0].Key != "studio" || body.Entries[0].Value != "10" {
		t.Errorf("entries[0] = %+v, want studio=10", body.Entries[0])
	}
	if body.Entries[1].Key != "1br" || body.Entries[1].Value != "20" {
		t.Errorf("entries[1] = %+v, want 1br=20", body.Entries[1])
	}
	if body.Total != 30 {
		t.Errorf("total = %v, want 30", body.Total)
	}
}

// ===== CACHE OPERATIONS =====

func TestRefreshEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/refresh?file=report.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		FromCache   bool   `json:"fromCache"`
		Fingerprint string `json:"fingerprint"`
	}
	decodeBody(t, rr, &body)
	if body.FromCache {
		t.Error("fromCache = true, refresh must always fetch")
	}
	if body.Fingerprint == "" {
		t.Error("fingerprint is empty")
	}
}

func TestInvalidateEndpoint(t *testing.T) {
	srv := feedServer(t)

	doRequest(t, srv, http.MethodGet, "/api/table?file=report.csv", "")

	rr := doRequest(t, srv, http.MethodPost, "/api/cache/invalidate?file=report.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Locator     string `json:"locator"`
		Invalidated bool   `json:"invalidated"`
	}
	decodeBody(t, rr, &body)
	if body.Locator != "/sites/ops/report.csv" {
		t.Errorf("locator = %q", body.Locator)
	}
	if !body.Invalidated {
		t.Error("invalidated = false for a cached table")
	}

	// Second invalidation finds nothing.
	rr = doRequest(t, srv, http.MethodPost, "/api/cache/invalidate?file=report.csv", "")
	decodeBody(t, rr, &body)
	if body.Invalidated {
		t.Error("invalidated = true after the cache entry was already dropped")
	}
}

func TestPrefetchEndpoint(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/prefetch?container=finance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Results []core.PrefetchResult `json:"results"`
		Count   int                   `json:"count"`
	}
	decodeBody(t, rr, &body)
	if body.Count != 1 || body.Results[0].Leaf != "report.csv" {
		t.Errorf("results = %+v, want one entry for report.csv", body.Results)
	}
	if body.Results[0].Rows != 5 || body.Results[0].Error != "" {
		t.Errorf("result = %+v, want 5 rows and no error", body.Results[0])
	}
}

// ===== STORE-BACKED ENDPOINTS =====

func TestConfigEndpointsWithoutStore(t *testing.T) {
	srv := feedServer(t)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/labels", ""},
		{http.MethodPut, "/api/labels/revenue", `{"label":"Revenue"}`},
		{http.MethodDelete, "/api/labels/revenue", ""},
		{http.MethodGet, "/api/charts", ""},
		{http.MethodPost, "/api/charts", `{"name":"Q1","category":"P1"}`},
		{http.MethodGet, "/api/fetches", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := doRequest(t, srv, tt.method, tt.target, tt.body)
			if rr.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503 without a database", rr.Code)
			}
			var body ErrorResponse
			decodeBody(t, rr, &body)
			if body.Code != "DB004" {
				t.Errorf("code = %q, want DB004", body.Code)
			}
		})
	}
}

// Request validation runs before any database access, so a store with no
// usable connection still exercises the 400 paths.
func TestChartValidation(t *testing.T) {
	g := &stubGetter{files: map[string]string{"report.csv": feedCSV}}
	srv := newTestServer(t, g, store.New(nil), testConfig())

	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"malformed body", "{", "invalid request body"},
		{"missing name", `{"category":"P1"}`, "chart name is required"},
		{"missing category", `{"name":"Q1"}`, "chart category is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/api/charts", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var body struct {
				Error string `json:"error"`
			}
			decodeBody(t, rr, &body)
			if body.Error != tt.wantSub {
				t.Errorf("error = %q, want %q", body.Error, tt.wantSub)
			}
		})
	}
}

func TestLabelValidation(t *testing.T) {
	g := &stubGetter{files: map[string]string{"report.csv": feedCSV}}
	srv := newTestServer(t, g, store.New(nil), testConfig())

	rr := doRequest(t, srv, http.MethodPut, "/api/labels/revenue", "{")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/labels/revenue", `{"label":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("blank label status = %d, want 400", rr.Code)
	}
}

// ===== MIDDLEWARE =====

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	g := &stubGetter{files: map[string]string{"report.csv": feedCSV}}
	srv := newTestServer(t, g, nil, cfg)

	for i := 0; i < 2; i++ {
		rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rr.Code)
		}
	}

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 past the limit", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rr.Header().Get("Retry-After"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := feedServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "")
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for name, want := range headers {
		if got := rr.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// ===== STATUS MAPPING =====

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fetch not found", &docstore.FetchError{Kind: docstore.KindNotFound}, http.StatusNotFound},
		{"fetch forbidden", &docstore.FetchError{Kind: docstore.KindForbidden}, http.StatusForbidden},
		{"fetch unreachable", &docstore.FetchError{Kind: docstore.KindUnreachable}, http.StatusBadGateway},
		{"fetch exhausted", &docstore.FetchError{Kind: docstore.KindExhausted}, http.StatusBadGateway},
		{"wrapped fetch error", fmt.Errorf("table: %w", &docstore.FetchError{Kind: docstore.KindNotFound}), http.StatusNotFound},
		{"empty input", core.ErrEmptyInput, http.StatusUnprocessableEntity},
		{"series not found", core.ErrSeriesNotFound, http.StatusNotFound},
		{"store disabled", core.ErrStoreDisabled, http.StatusServiceUnavailable},
		{"refresh limiter", core.ErrTooManyRefreshes, http.StatusTooManyRequests},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"chart missing", errors.New("chart not found: 42"), http.StatusNotFound},
		{"malformed content", errors.New("malformed content at /x: bad row"), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
