package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the uniform wrapper for data routes. Exactly one of
// Data/Error is present, keyed by OK.
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeData writes a successful envelope around an upstream document.
func writeData(w http.ResponseWriter, data json.RawMessage) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

// writeError writes a failure envelope with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Error: msg})
}
