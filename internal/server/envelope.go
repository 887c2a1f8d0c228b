package server

import (
	"encoding/json"
	"net/http"

	"codegraph/internal/cgerr"
)

// envelope is the {status, error[]} response shape every handler returns
// (spec.md §6 / §7).
type envelope struct {
	Status cgerr.Status  `json:"status"`
	Errors []cgerr.Entry `json:"errors,omitempty"`
	Data   any           `json:"data,omitempty"`
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: cgerr.StatusOK, Data: data})
}

func writeDegraded(w http.ResponseWriter, data any, errs []cgerr.Entry) {
	writeJSON(w, http.StatusOK, envelope{Status: cgerr.StatusDegraded, Data: data, Errors: errs})
}

func writeFailed(w http.ResponseWriter, code int, where string, err error) {
	writeJSON(w, code, envelope{Status: cgerr.StatusFailed, Errors: []cgerr.Entry{cgerr.FromError(where, err)}})
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
