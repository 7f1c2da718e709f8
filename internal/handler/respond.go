// Package handler exposes the HTTP surface of the API. Handlers validate
// input, delegate to the services and translate errors into the uniform
// error payload without leaking internals.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"autofix-api/internal/model"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, model.ErrorResponse{Error: message})
}
