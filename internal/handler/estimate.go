package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"autofix-api/internal/model"
)

// EstimateProvider runs the estimation pipeline
type EstimateProvider interface {
	Estimate(ctx context.Context, req model.EstimationRequest) (*model.EstimationResponse, error)
}

type EstimateHandler struct {
	svc    EstimateProvider
	logger *slog.Logger
}

func NewEstimateHandler(svc EstimateProvider, logger *slog.Logger) *EstimateHandler {
	return &EstimateHandler{svc: svc, logger: logger}
}

func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req model.EstimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.CarName == "" || req.CarModel == "" || req.CarYear == 0 {
		respondError(w, http.StatusBadRequest, "carName, carModel and carYear are required")
		return
	}
	if !hasUsablePart(req.DetectedParts) {
		respondError(w, http.StatusBadRequest, "detectedParts must contain at least one part name")
		return
	}

	resp, err := h.svc.Estimate(r.Context(), req)
	if err != nil {
		h.logger.Error("estimation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "estimation failed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// hasUsablePart reports whether at least one part name survives trimming
func hasUsablePart(parts []string) bool {
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
