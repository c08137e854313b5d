package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/ChartFeed/internal/docstore"
)

// stubGateway scripts the document gateway for service tests. File fetches
// are served from files keyed by leaf name; the folder-list endpoint is
// served from entries. Anything else is a 404.
type stubGateway struct {
	mu       sync.Mutex
	files    map[string]string
	entries  []string
	requests int
}

func (g *stubGateway) Get(ctx context.Context, rawURL string) (*docstore.Response, error) {
	g.mu.Lock()
	g.requests++
	g.mu.Unlock()

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

func (g *stubGateway) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests
}

// fakeConfigStore captures fetch records and serves label overrides.
type fakeConfigStore struct {
	mu        sync.Mutex
	labels    map[string]string
	labelsErr error
	recs      []FetchRecord
}

func (f *fakeConfigStore) LabelOverrides(ctx context.Context) (map[string]string, error) {
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	return f.labels, nil
}

func (f *fakeConfigStore) RecordFetch(ctx context.Context, rec FetchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeConfigStore) outcomes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.recs))
	for i, r := range f.recs {
		out[i] = r.Outcome
	}
	return out
}

const serviceCSV = "Property,Title,Label,Value,TextData\n" +
	"P1,Revenue,Q1,100,\n" +
	"P1,Revenue,Q2,200,\n" +
	"P1,Unit Types,Studio,,10\n" +
	"P1,Unit Types,One Bedroom,,20\n" +
	"P2,Occupancy,Jan,0.92,\n"

func newTestService(t *testing.T, gw *stubGateway, store ConfigStore, cfg ServiceConfig) *Service {
	t.Helper()
	docs, err := docstore.New(docstore.Config{
		BaseURL:  "https://gw.test/api",
		RootPath: "sites/ops",
		Getter:   gw,
	})
	if err != nil {
		t.Fatalf("docstore.New() error = %v", err)
	}
	svc, err := NewService(docs, store, cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewService_RequiresClient(t *testing.T) {
	if _, err := NewService(nil, nil, ServiceConfig{}); err == nil {
		t.Error("NewService(nil) = nil error, want error")
	}
}

func TestServiceTable_CachesByLocator(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	rec := &fakeConfigStore{}
	svc := newTestService(t, gw, rec, ServiceConfig{})
	ref := FileRef{Container: "finance", Leaf: "report.csv"}
	ctx := context.Background()

	first, err := svc.Table(ctx, ref)
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if first.FromCache {
		t.Error("first Table() reported FromCache = true")
	}
	if got := len(first.Table.Rows); got != 5 {
		t.Errorf("parsed %d rows, want 5", got)
	}
	if first.Locator != "/sites/ops/finance/report.csv" {
		t.Errorf("Locator = %q, want normalized path", first.Locator)
	}

	second, err := svc.Table(ctx, ref)
	if err != nil {
		t.Fatalf("second Table() error = %v", err)
	}
	if !second.FromCache {
		t.Error("second Table() reported FromCache = false")
	}
	if second.Table != first.Table {
		t.Error("cache hit returned a different parsed table")
	}
	if gw.requestCount() != 1 {
		t.Errorf("gateway saw %d requests, want 1 (second read from cache)", gw.requestCount())
	}
	if got := svc.CacheSize(); got != 1 {
		t.Errorf("CacheSize() = %d, want 1", got)
	}
	if got := rec.outcomes(); len(got) != 1 || got[0] != OutcomeOK {
		t.Errorf("recorded outcomes = %v, want [ok]", got)
	}
}

func TestServiceRefresh_UnchangedKeepsParsedTable(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	rec := &fakeConfigStore{}
	svc := newTestService(t, gw, rec, ServiceConfig{})
	ref := FileRef{Container: "finance", Leaf: "report.csv"}
	ctx := context.Background()

	first, err := svc.Table(ctx, ref)
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}

	refreshed, err := svc.Refresh(ctx, ref)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if refreshed.FromCache {
		t.Error("Refresh() reported FromCache = true")
	}
	if refreshed.Table != first.Table {
		t.Error("unchanged refresh re-parsed the table")
	}
	if refreshed.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed: %s -> %s", first.Fingerprint, refreshed.Fingerprint)
	}
	if gw.requestCount() != 2 {
		t.Errorf("gateway saw %d requests, want 2 (refresh always fetches)", gw.requestCount())
	}
	if got := rec.outcomes(); len(got) != 2 || got[1] != OutcomeUnchanged {
		t.Errorf("recorded outcomes = %v, want [ok unchanged]", got)
	}
}

func TestServiceRefresh_ChangedReparses(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{})
	ref := FileRef{Container: "finance", Leaf: "report.csv"}
	ctx := context.Background()

	first, err := svc.Table(ctx, ref)
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}

	gw.mu.Lock()
	gw.files["report.csv"] = serviceCSV + "P2,Occupancy,Feb,0.95,\n"
	gw.mu.Unlock()

	refreshed, err := svc.Refresh(ctx, ref)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if refreshed.Table == first.Table {
		t.Error("changed refresh kept the stale parsed table")
	}
	if got := len(refreshed.Table.Rows); got != 6 {
		t.Errorf("refreshed table has %d rows, want 6", got)
	}
	if refreshed.Fingerprint == first.Fingerprint {
		t.Error("fingerprint did not change with the body")
	}
}

func TestServiceTable_FetchFailureRecorded(t *testing.T) {
	gw := &stubGateway{}
	rec := &fakeConfigStore{}
	svc := newTestService(t, gw, rec, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Table(ctx, FileRef{Leaf: "absent.csv"})
	if err == nil {
		t.Fatal("Table() = nil error for a missing file")
	}
	if kind, ok := docstore.KindOf(err); !ok || kind != docstore.KindNotFound {
		t.Errorf("error kind = %v (%v), want KindNotFound", kind, ok)
	}

	recs := rec.recs
	if len(recs) != 1 || recs[0].Outcome != OutcomeFailed {
		t.Fatalf("recorded %v, want one failed record", rec.outcomes())
	}
	if recs[0].Candidates != 4 {
		t.Errorf("Candidates = %d, want 4 (every request form tried)", recs[0].Candidates)
	}
}

func TestServiceTable_MalformedRecorded(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"empty.csv": "   \n\n"}}
	rec := &fakeConfigStore{}
	svc := newTestService(t, gw, rec, ServiceConfig{})

	_, err := svc.Table(context.Background(), FileRef{Leaf: "empty.csv"})
	if err == nil {
		t.Fatal("Table() = nil error for an empty file")
	}
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput in the chain", err)
	}
	if got := rec.outcomes(); len(got) != 1 || got[0] != OutcomeMalformed {
		t.Errorf("recorded outcomes = %v, want [malformed]", got)
	}
}

func TestServiceInvalidate(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{})
	ref := FileRef{Container: "finance", Leaf: "report.csv"}

	if svc.Invalidate(ref) {
		t.Error("Invalidate() = true before anything was cached")
	}

	if _, err := svc.Table(context.Background(), ref); err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if !svc.Invalidate(ref) {
		t.Error("Invalidate() = false for a cached table")
	}
	if got := svc.CacheSize(); got != 0 {
		t.Errorf("CacheSize() = %d after invalidate, want 0", got)
	}
}

func TestServiceListFiles_FiltersBySuffix(t *testing.T) {
	gw := &stubGateway{entries: []string{"report.csv", "Data.CSV", "notes.txt"}}
	svc := newTestService(t, gw, nil, ServiceConfig{})

	names, err := svc.ListFiles(context.Background(), "finance", "2025")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	// Suffix matching is case-insensitive; original casing is preserved.
	want := []string{"report.csv", "Data.CSV"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("ListFiles() = %v, want %v", names, want)
	}
}

func TestServicePrefetch(t *testing.T) {
	gw := &stubGateway{
		files: map[string]string{
			"a.csv": serviceCSV,
			"b.csv": serviceCSV,
		},
		entries: []string{"a.csv", "b.csv", "missing.csv"},
	}
	svc := newTestService(t, gw, nil, ServiceConfig{PrefetchLimit: 2})

	results, err := svc.Prefetch(context.Background(), "finance", "")
	if err != nil {
		t.Fatalf("Prefetch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Prefetch() returned %d results, want 3", len(results))
	}

	byLeaf := make(map[string]PrefetchResult, len(results))
	for _, r := range results {
		byLeaf[r.Leaf] = r
	}
	if r := byLeaf["a.csv"]; r.Error != "" || r.Rows != 5 {
		t.Errorf("a.csv result = %+v, want 5 rows and no error", r)
	}
	// A per-file failure lands in its result, not the overall error.
	if r := byLeaf["missing.csv"]; r.Error == "" {
		t.Errorf("missing.csv result = %+v, want an error", r)
	}
	if got := svc.CacheSize(); got != 2 {
		t.Errorf("CacheSize() = %d after prefetch, want 2", got)
	}

	// A second sweep is served from the cache.
	results, err = svc.Prefetch(context.Background(), "finance", "")
	if err != nil {
		t.Fatalf("second Prefetch() error = %v", err)
	}
	for _, r := range results {
		if r.Leaf != "missing.csv" && !r.FromCache {
			t.Errorf("%s not served from cache on second sweep", r.Leaf)
		}
	}
}

func TestServiceCategories(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{})

	categories, err := svc.Categories(context.Background(), FileRef{Leaf: "report.csv"})
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(categories) != 2 || categories[0] != "P1" || categories[1] != "P2" {
		t.Errorf("Categories() = %v, want [P1 P2] in first-seen order", categories)
	}
}

func TestServiceSeries_MergesLabelLayers(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	rec := &fakeConfigStore{labels: map[string]string{"Revenue": "Stored Revenue"}}
	svc := newTestService(t, gw, rec, ServiceConfig{
		LabelSeed: map[string]string{"Revenue": "Seed Revenue", "Occupancy": "Seed Occupancy"},
	})
	ctx := context.Background()

	groups, err := svc.Series(ctx, FileRef{Leaf: "report.csv"}, "P1")
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if groups[0].DisplayLabel != "Stored Revenue" {
		t.Errorf("DisplayLabel = %q, want stored override over seed", groups[0].DisplayLabel)
	}

	// Seed entries without a stored override still apply.
	groups, err = svc.Series(ctx, FileRef{Leaf: "report.csv"}, "P2")
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if groups[0].DisplayLabel != "Seed Occupancy" {
		t.Errorf("DisplayLabel = %q, want seed label", groups[0].DisplayLabel)
	}
}

func TestServiceSeries_StoreErrorFallsBackToSeed(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	rec := &fakeConfigStore{labelsErr: errors.New("connection refused")}
	svc := newTestService(t, gw, rec, ServiceConfig{
		LabelSeed: map[string]string{"Revenue": "Seed Revenue"},
	})

	groups, err := svc.Series(context.Background(), FileRef{Leaf: "report.csv"}, "P1")
	if err != nil {
		t.Fatalf("Series() error = %v, label store failures must not break charts", err)
	}
	if groups[0].DisplayLabel != "Seed Revenue" {
		t.Errorf("DisplayLabel = %q, want seed fallback", groups[0].DisplayLabel)
	}
}

func TestServiceSeriesSummary(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{})
	ctx := context.Background()
	ref := FileRef{Leaf: "report.csv"}

	sum, err := svc.SeriesSummary(ctx, ref, "P1", "Revenue")
	if err != nil {
		t.Fatalf("SeriesSummary() error = %v", err)
	}
	if sum.Count != 2 || sum.Sum != 300 || sum.Mean != 150 {
		t.Errorf("summary = %+v, want count 2, sum 300, mean 150", sum)
	}

	_, err = svc.SeriesSummary(ctx, ref, "P1", "Nonexistent")
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("SeriesSummary(unknown) error = %v, want ErrSeriesNotFound", err)
	}
}

func TestServiceUnits(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{})

	breakdown, err := svc.Units(context.Background(), FileRef{Leaf: "report.csv"}, "P1")
	if err != nil {
		t.Fatalf("Units() error = %v", err)
	}
	if len(breakdown.Entries) != 2 {
		t.Fatalf("breakdown has %d entries, want 2", len(breakdown.Entries))
	}
	if breakdown.Entries[0].Key != "studio" || breakdown.Entries[0].Value != "10" {
		t.Errorf("first entry = %+v, want studio=10", breakdown.Entries[0])
	}
	if breakdown.Total != 30 {
		t.Errorf("Total = %v, want 30", breakdown.Total)
	}
}

func TestServiceRefresh_LimiterRejectsWhenSaturated(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{
		RefreshLimit:   1,
		RefreshMaxWait: 50 * time.Millisecond,
	})
	ctx := context.Background()

	// Hold the only slot so the refresh cannot get one.
	if err := svc.refreshes.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer svc.refreshes.Release()

	_, err := svc.Refresh(ctx, FileRef{Leaf: "report.csv"})
	if !errors.Is(err, ErrTooManyRefreshes) {
		t.Errorf("saturated Refresh() error = %v, want ErrTooManyRefreshes", err)
	}

	// Cached reads bypass the limiter entirely.
	if _, err := svc.Table(ctx, FileRef{Leaf: "report.csv"}); err != nil {
		t.Errorf("Table() error = %v while limiter saturated, want nil", err)
	}
}

func TestServiceRefreshStatus(t *testing.T) {
	gw := &stubGateway{files: map[string]string{"report.csv": serviceCSV}}
	svc := newTestService(t, gw, nil, ServiceConfig{RefreshLimit: 2})

	status := svc.RefreshStatus()
	if status.MaxConcurrent != 2 || status.Active != 0 {
		t.Errorf("RefreshStatus() = %+v, want 2 slots, none held", status)
	}
}
