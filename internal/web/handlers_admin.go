package web

// handlers_admin.go carries the operational endpoints: cache refresh and
// invalidation, folder prefetch, and the fetch history log. These exist
// for operators and background tooling rather than chart rendering.

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/ChartFeed/internal/store"
)

// handleRefresh re-fetches a file regardless of cache state.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}

	result, err := s.service.Refresh(r.Context(), ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePrefetch warms the cache for every tabular file in a folder.
func (s *Server) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.service.Prefetch(r.Context(), q.Get("container"), q.Get("path"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

// handleInvalidate drops a file's cached table.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"locator":     s.service.Locator(ref),
		"invalidated": s.service.Invalidate(ref),
	})
}

// handleRecentFetches returns the newest fetch log entries.
func (s *Server) handleRecentFetches(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	fetches, err := s.store.RecentFetches(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if fetches == nil {
		fetches = []store.FetchEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"fetches": fetches, "count": len(fetches)})
}
