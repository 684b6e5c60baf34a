package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwbudde/paretoswarm/internal/store"
)

// writeJSON encodes v as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError sends {"error": msg} with the given status
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// frontResponse is the body of GET /api/v1/runs/:id/front
type frontResponse struct {
	ID          string             `json:"id"`
	State       JobState           `json:"state"`
	Problem     string             `json:"problem"`
	Hypervolume float64            `json:"hypervolume"`
	Front       []store.FrontPoint `json:"front"`
}

// statusResponse is the body of GET /api/v1/runs/:id
type statusResponse struct {
	Job
	Elapsed float64 `json:"elapsed"`
}
