package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/ChartFeed/internal/docstore"
	"github.com/JonMunkholm/ChartFeed/internal/logging"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefetchLimit bounds concurrent fetches during a folder prefetch.
var DefaultPrefetchLimit = 4

// ConfigStore persists operator configuration and the fetch history log.
// Implemented by the Postgres store; a nil ConfigStore disables persistence
// and the service runs on the label seed alone.
type ConfigStore interface {
	LabelOverrides(ctx context.Context) (map[string]string, error)
	RecordFetch(ctx context.Context, rec FetchRecord) error
}

// FetchRecord is one fetch outcome for the history log.
type FetchRecord struct {
	ID         string
	Locator    string
	Outcome    string
	Candidates int
	Duration   time.Duration
}

// Fetch outcomes recorded in the history log.
const (
	OutcomeOK        = "ok"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)

// TableResult pairs a parsed table with its cache metadata.
type TableResult struct {
	Ref         FileRef      `json:"ref"`
	Locator     string       `json:"locator"`
	Table       *ParsedTable `json:"table"`
	Fingerprint string       `json:"fingerprint"`
	FetchedAt   time.Time    `json:"fetchedAt"`
	FromCache   bool         `json:"fromCache"`
}

// PrefetchResult is one file's outcome from a folder prefetch.
type PrefetchResult struct {
	Leaf      string `json:"leaf"`
	Rows      int    `json:"rows"`
	FromCache bool   `json:"fromCache"`
	Error     string `json:"error,omitempty"`
}

// ServiceConfig carries the service's tunables.
type ServiceConfig struct {
	// LabelSeed is the base layer of display-label overrides, typically
	// loaded from the seed YAML at startup.
	LabelSeed map[string]string

	// PrefetchLimit caps concurrent fetches in Prefetch. Zero means
	// DefaultPrefetchLimit.
	PrefetchLimit int

	// RefreshLimit caps concurrent refresh and prefetch operations across
	// the whole service. Zero means DefaultMaxConcurrentRefreshes.
	RefreshLimit int

	// RefreshMaxWait is how long a refresh waits for a limiter slot before
	// failing with ErrTooManyRefreshes. Zero means DefaultRefreshMaxWait.
	RefreshMaxWait time.Duration
}

// Service coordinates the pipeline: it fetches files through the document
// store client, parses them, caches parsed tables by locator, and answers
// the grouping and unit queries the chart UI renders.
type Service struct {
	docs          *docstore.Client
	cache         *TableCache
	store         ConfigStore
	seed          map[string]string
	prefetchLimit int
	refreshes     *FetchLimiter
}

// NewService creates a Service. The store may be nil when no database is
// configured; label overrides then come from the seed alone and fetch
// history is not recorded.
func NewService(docs *docstore.Client, store ConfigStore, cfg ServiceConfig) (*Service, error) {
	if docs == nil {
		return nil, errors.New("docstore client is required")
	}
	limit := cfg.PrefetchLimit
	if limit <= 0 {
		limit = DefaultPrefetchLimit
	}
	return &Service{
		docs:          docs,
		cache:         NewTableCache(),
		store:         store,
		seed:          cfg.LabelSeed,
		prefetchLimit: limit,
		refreshes:     NewFetchLimiter(cfg.RefreshLimit, cfg.RefreshMaxWait),
	}, nil
}

// Locator exposes the normalized locator for a file reference.
func (s *Service) Locator(ref FileRef) string {
	return s.docs.Locator(ref.Container, ref.SubPath, ref.Leaf)
}

// Table returns the parsed table for a file, fetching and caching it on
// first use. Subsequent calls for the same locator are served from the
// cache without a network round trip.
func (s *Service) Table(ctx context.Context, ref FileRef) (*TableResult, error) {
	locator := s.Locator(ref)
	if e, ok := s.cache.get(locator); ok {
		return s.result(ref, locator, e, true), nil
	}
	return s.fetchAndParse(ctx, ref, locator, nil)
}

// Refresh re-fetches a file regardless of cache state. When the fetched
// body's fingerprint matches the cached entry, the existing parsed table is
// kept and only the fetch timestamp advances. Refreshes go through the
// fetch limiter; cached reads via Table never do.
func (s *Service) Refresh(ctx context.Context, ref FileRef) (*TableResult, error) {
	if err := s.refreshes.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.refreshes.Release()

	locator := s.Locator(ref)
	if prev, ok := s.cache.get(locator); ok {
		return s.fetchAndParse(ctx, ref, locator, &prev)
	}
	return s.fetchAndParse(ctx, ref, locator, nil)
}

// Invalidate drops a file's cached table. Returns false when nothing was
// cached.
func (s *Service) Invalidate(ref FileRef) bool {
	return s.cache.delete(s.Locator(ref))
}

// CacheSize returns the number of cached tables.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// RefreshStatus snapshots the fetch limiter for health reporting.
func (s *Service) RefreshStatus() FetchLimiterStatus {
	return s.refreshes.Status()
}

// DrainRefreshes blocks until in-flight refreshes finish or ctx is
// cancelled. Called during graceful shutdown.
func (s *Service) DrainRefreshes(ctx context.Context) error {
	return s.refreshes.WaitForDrain(ctx)
}

// fetchAndParse runs one fetch operation end to end: retrieve, fingerprint,
// parse, cache, and record the outcome in the fetch history.
func (s *Service) fetchAndParse(ctx context.Context, ref FileRef, locator string, prev *cacheEntry) (*TableResult, error) {
	opID := uuid.New().String()
	start := time.Now()
	log := logging.WithFields(ctx, "op_id", opID, "locator", locator)

	res, err := s.docs.Fetch(ctx, ref.Container, ref.SubPath, ref.Leaf)
	if err != nil {
		log.Error("fetch failed", "error", err, "elapsed", time.Since(start))
		s.recordFetch(ctx, FetchRecord{
			ID:         opID,
			Locator:    locator,
			Outcome:    OutcomeFailed,
			Candidates: docstore.AttemptCount(err),
			Duration:   time.Since(start),
		})
		return nil, err
	}

	sum := xxh3.HashString(res.Body)
	if prev != nil && prev.table != nil && prev.sum == sum {
		// Same bytes as the cached fetch; keep the parsed table.
		e := cacheEntry{table: prev.table, sum: sum, fetchedAt: time.Now()}
		s.cache.put(locator, e)
		log.Info("refresh unchanged", "fingerprint", fingerprint(sum), "elapsed", time.Since(start))
		s.recordFetch(ctx, FetchRecord{
			ID:         opID,
			Locator:    locator,
			Outcome:    OutcomeUnchanged,
			Candidates: len(res.Attempts) + 1,
			Duration:   time.Since(start),
		})
		return s.result(ref, locator, e, false), nil
	}

	table, err := ParseText(res.Body)
	if err != nil {
		log.Error("parse failed", "error", err, "bytes", len(res.Body))
		s.recordFetch(ctx, FetchRecord{
			ID:         opID,
			Locator:    locator,
			Outcome:    OutcomeMalformed,
			Candidates: len(res.Attempts) + 1,
			Duration:   time.Since(start),
		})
		return nil, fmt.Errorf("malformed content at %s: %w", locator, err)
	}

	e := cacheEntry{table: table, sum: sum, fetchedAt: time.Now()}
	s.cache.put(locator, e)
	log.Info("table fetched",
		"rows", len(table.Rows),
		"headers", len(table.Headers),
		"failed_candidates", len(res.Attempts),
		"fingerprint", fingerprint(sum),
		"elapsed", time.Since(start),
	)
	s.recordFetch(ctx, FetchRecord{
		ID:         opID,
		Locator:    locator,
		Outcome:    OutcomeOK,
		Candidates: len(res.Attempts) + 1,
		Duration:   time.Since(start),
	})
	return s.result(ref, locator, e, false), nil
}

func (s *Service) result(ref FileRef, locator string, e cacheEntry, fromCache bool) *TableResult {
	return &TableResult{
		Ref:         ref,
		Locator:     locator,
		Table:       e.table,
		Fingerprint: fingerprint(e.sum),
		FetchedAt:   e.fetchedAt,
		FromCache:   fromCache,
	}
}

func fingerprint(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// recordFetch appends to the fetch history log. Failures are logged and
// swallowed; history is diagnostics, not correctness.
func (s *Service) recordFetch(ctx context.Context, rec FetchRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordFetch(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("fetch history write failed", "error", err, "locator", rec.Locator)
	}
}

// ListFiles enumerates the tabular files in a folder. An empty result is
// valid, not an error.
func (s *Service) ListFiles(ctx context.Context, container, subPath string) ([]string, error) {
	names, err := s.docs.ListEntries(ctx, container, subPath)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		logging.FromContext(ctx).Info("no tabular files in folder", "container", container, "sub_path", subPath)
	}
	return names, nil
}

// Prefetch lists a folder and fetches every tabular file in it with bounded
// concurrency, warming the cache. Per-file failures are reported in the
// results, not returned as an error; only the initial listing can fail the
// whole operation. A sweep holds one fetch-limiter slot for its duration.
func (s *Service) Prefetch(ctx context.Context, container, subPath string) ([]PrefetchResult, error) {
	if err := s.refreshes.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.refreshes.Release()

	names, err := s.ListFiles(ctx, container, subPath)
	if err != nil {
		return nil, err
	}

	results := make([]PrefetchResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.prefetchLimit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			ref := FileRef{Container: container, SubPath: subPath, Leaf: name}
			res, err := s.Table(gctx, ref)
			if err != nil {
				results[i] = PrefetchResult{Leaf: name, Error: err.Error()}
				return nil
			}
			results[i] = PrefetchResult{Leaf: name, Rows: len(res.Table.Rows), FromCache: res.FromCache}
			return nil
		})
	}
	g.Wait()
	return results, nil
}

// Categories returns the distinct category values in a file's table.
func (s *Service) Categories(ctx context.Context, ref FileRef) ([]string, error) {
	res, err := s.Table(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Categories(res.Table), nil
}

// Series returns the chart-ready series for one category, with display
// label overrides applied.
func (s *Service) Series(ctx context.Context, ref FileRef, category string) ([]SeriesGroup, error) {
	res, err := s.Table(ctx, ref)
	if err != nil {
		return nil, err
	}
	return GroupBySeries(res.Table, category, s.labelOverrides(ctx)), nil
}

// SeriesSummary computes summary statistics for one titled series within a
// category.
func (s *Service) SeriesSummary(ctx context.Context, ref FileRef, category, title string) (*Summary, error) {
	groups, err := s.Series(ctx, ref, category)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.Title == title {
			sum := SummarizeSeries(g)
			return &sum, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in category %q", ErrSeriesNotFound, title, category)
}

// Units returns the unit-mix breakdown for one category: the canonical keys
// in display order plus the resolved total.
func (s *Service) Units(ctx context.Context, ref FileRef, category string) (*UnitBreakdown, error) {
	res, err := s.Table(ctx, ref)
	if err != nil {
		return nil, err
	}
	m := ExtractUnitMap(res.Table, category)
	return &UnitBreakdown{Entries: CanonicalUnits(m), Total: UnitTotal(m)}, nil
}

// labelOverrides merges the stored overrides over the seed layer. Store
// errors degrade to the seed with a warning; charts still render.
func (s *Service) labelOverrides(ctx context.Context) map[string]string {
	if s.store == nil {
		return s.seed
	}
	overrides, err := s.store.LabelOverrides(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("label overrides unavailable, using seed", "error", err)
		return s.seed
	}
	return mergeLabels(s.seed, overrides)
}
