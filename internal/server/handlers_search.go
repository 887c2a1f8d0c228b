package server

import (
	"net/http"
	"strconv"

	"codegraph/internal/cgerr"
)

// handleSearch runs the unified fusion pipeline (spec.md §4.N): intent
// classification, four-strategy fan-out, RRF normalization, intent-weighted
// fusion, consensus boost, and intent-based cutoff.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeFailed(w, http.StatusBadRequest, "handleSearch", cgerr.New(cgerr.KindConfig, "handleSearch", "q query param is required"))
		return
	}
	if s.retriever == nil {
		writeFailed(w, http.StatusServiceUnavailable, "handleSearch", cgerr.New(cgerr.KindConfig, "handleSearch", "no search strategies registered"))
		return
	}

	limit := intQuery(r, "limit", 40)
	resp := s.retriever.Search(r.Context(), query, limit)
	if resp.Degraded {
		writeDegraded(w, resp, []cgerr.Entry{{Kind: cgerr.KindDegraded, Where: "handleSearch", Message: "one or more strategies failed; results fused from the rest"}})
		return
	}
	writeOK(w, resp)
}

// handleSearchStrategy runs a single strategy's index plugin directly,
// bypassing fusion (spec.md §6 GET /search/{lexical|vector|symbol|graph}).
func (s *Server) handleSearchStrategy(w http.ResponseWriter, r *http.Request) {
	strategy := r.PathValue("strategy")
	query := r.URL.Query().Get("q")
	if query == "" {
		writeFailed(w, http.StatusBadRequest, "handleSearchStrategy", cgerr.New(cgerr.KindConfig, "handleSearchStrategy", "q query param is required"))
		return
	}

	plugin, ok := s.orch.Plugin(strategy)
	if !ok {
		writeFailed(w, http.StatusNotFound, "handleSearchStrategy", cgerr.New(cgerr.KindConfig, "handleSearchStrategy", "no plugin registered for strategy "+strategy))
		return
	}

	limit := intQuery(r, "limit", 40)
	hits, err := plugin.Search(r.Context(), query, limit)
	if err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleSearchStrategy", err)
		return
	}
	writeOK(w, hits)
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
