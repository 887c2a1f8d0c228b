package server

import (
	"net/http"

	"codegraph/internal/cgerr"
)

// handleRFCUnimplemented answers the RFC-027 endpoints named in spec.md §6
// (POST /rfc/execute, /rfc/validate, /rfc/plan, GET /rfc/replay/{id}). The
// spec → envelope arbitration engine those endpoints front is a separate
// system this core does not implement (spec.md §1 scopes the core to IR,
// graph, index, and retrieval); the routes exist so the documented surface
// is complete and callers get a typed 501 instead of a 404.
func (s *Server) handleRFCUnimplemented(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, envelope{
		Status: cgerr.StatusFailed,
		Errors: []cgerr.Entry{{Kind: cgerr.KindConfig, Where: "handleRFCUnimplemented", Message: "RFC arbitration engine not implemented by this core"}},
	})
}
