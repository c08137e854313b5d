package web

import (
	"net/http"

	"github.com/JonMunkholm/ChartFeed/internal/core"
)

// fileRef builds a file reference from query parameters. The leaf file name
// is required; container and path may be empty for root-level files.
func fileRef(r *http.Request) (core.FileRef, bool) {
	q := r.URL.Query()
	ref := core.FileRef{
		Container: q.Get("container"),
		SubPath:   q.Get("path"),
		Leaf:      q.Get("file"),
	}
	return ref, ref.Leaf != ""
}

// handleHealth reports liveness, cache occupancy, and refresh limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"cached_tables": s.service.CacheSize(),
		"refreshes":     s.service.RefreshStatus(),
	})
}

// handleListFiles enumerates the tabular files in a folder.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	files, err := s.service.ListFiles(r.Context(), q.Get("container"), q.Get("path"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

// handleTable returns the parsed table for a file, fetching on a cache miss.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}

	result, err := s.service.Table(r.Context(), ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
