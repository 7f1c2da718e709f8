package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"autofix-api/internal/model"
)

// DamageDetector proxies to the detection model server
type DamageDetector interface {
	DetectDamage(ctx context.Context, imagePath string) (*model.DetectionResponse, error)
	AnalyzeAudio(ctx context.Context, audioPath string) (json.RawMessage, error)
}

// DetectHandler runs damage detection over previously uploaded files
type DetectHandler struct {
	detector   DamageDetector
	uploadsDir string
	logger     *slog.Logger
}

func NewDetectHandler(detector DamageDetector, uploadsDir string, logger *slog.Logger) *DetectHandler {
	return &DetectHandler{detector: detector, uploadsDir: uploadsDir, logger: logger}
}

type detectRequest struct {
	Filename string `json:"filename"`
}

func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveUpload(w, r)
	if !ok {
		return
	}

	resp, err := h.detector.DetectDamage(r.Context(), path)
	if err != nil {
		h.logger.Error("damage detection failed", "error", err)
		respondError(w, http.StatusBadGateway, "damage detection failed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *DetectHandler) Audio(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveUpload(w, r)
	if !ok {
		return
	}

	raw, err := h.detector.AnalyzeAudio(r.Context(), path)
	if err != nil {
		h.logger.Error("audio analysis failed", "error", err)
		respondError(w, http.StatusBadGateway, "audio analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// resolveUpload validates the filename and maps it into the uploads dir,
// writing the error response itself on failure.
func (h *DetectHandler) resolveUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}

	name := strings.TrimSpace(req.Filename)
	if name == "" {
		respondError(w, http.StatusBadRequest, "filename is required")
		return "", false
	}
	// reject path traversal, uploads are stored flat
	if name != filepath.Base(name) {
		respondError(w, http.StatusBadRequest, "invalid filename")
		return "", false
	}

	path := filepath.Join(h.uploadsDir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "uploaded file not found")
		return "", false
	}

	return path, true
}
