package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ChartFeed/internal/core"
	"github.com/JonMunkholm/ChartFeed/internal/store"
	"github.com/go-chi/chi/v5"
)

// requireStore answers 503 when no configuration database is wired in.
func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.store == nil {
		s.respondError(w, r, core.ErrStoreDisabled)
		return false
	}
	return true
}

// handleListLabels returns all stored display label overrides.
func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}

	labels, err := s.store.ListLabelOverrides(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if labels == nil {
		labels = []store.LabelOverride{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"labels": labels, "count": len(labels)})
}

// handleUpsertLabel saves a display label for a series title key. The key
// is sanitized the same way series titles are, so either the raw title or
// the sanitized key addresses the override.
func (s *Server) handleUpsertLabel(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing label key")
		return
	}

	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}

	override, err := s.store.UpsertLabelOverride(r.Context(), core.SanitizeTitleKey(key), req.Label)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, override)
}

// handleDeleteLabel removes a stored display label override.
func (s *Server) handleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing label key")
		return
	}

	deleted, err := s.store.DeleteLabelOverride(r.Context(), core.SanitizeTitleKey(key))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"key": core.SanitizeTitleKey(key), "deleted": deleted})
}

// handleListCharts returns all saved chart definitions.
func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}

	charts, err := s.store.ListCharts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if charts == nil {
		charts = []store.ChartDefinition{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"charts": charts, "count": len(charts)})
}

// handleCreateChart saves a new chart definition.
func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}

	params, ok := decodeChartParams(w, r)
	if !ok {
		return
	}

	chart, err := s.store.CreateChart(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, chart)
}

// handleGetChart returns one chart definition by ID.
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing chart ID")
		return
	}

	chart, err := s.store.GetChart(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

// handleUpdateChart replaces an existing chart definition.
func (s *Server) handleUpdateChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing chart ID")
		return
	}

	params, ok := decodeChartParams(w, r)
	if !ok {
		return
	}

	chart, err := s.store.UpdateChart(r.Context(), id, params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

// handleDeleteChart removes a chart definition.
func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing chart ID")
		return
	}

	if err := s.store.DeleteChart(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// decodeChartParams decodes and validates a chart definition request body.
func decodeChartParams(w http.ResponseWriter, r *http.Request) (store.ChartParams, bool) {
	var params store.ChartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return params, false
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, "chart name is required")
		return params, false
	}
	if strings.TrimSpace(params.Category) == "" {
		writeError(w, http.StatusBadRequest, "chart category is required")
		return params, false
	}
	return params, true
}
