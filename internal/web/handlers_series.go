package web

import (
	"net/http"

	"github.com/JonMunkholm/ChartFeed/internal/core"
)

// handleCategories returns the distinct category values in a file's table.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}

	categories, err := s.service.Categories(r.Context(), ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"categories": categories, "count": len(categories)})
}

// handleSeries returns the chart-ready series for one category.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing category parameter")
		return
	}

	groups, err := s.service.Series(r.Context(), ref, category)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if groups == nil {
		groups = []core.SeriesGroup{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"series": groups, "count": len(groups)})
}

// handleSeriesSummary returns summary statistics for one titled series.
func (s *Server) handleSeriesSummary(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}
	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing category parameter")
		return
	}
	title := q.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing title parameter")
		return
	}

	summary, err := s.service.SeriesSummary(r.Context(), ref, category, title)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleUnits returns the unit-mix breakdown for one category.
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	ref, ok := fileRef(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing file parameter")
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing category parameter")
		return
	}

	breakdown, err := s.service.Units(r.Context(), ref, category)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}
