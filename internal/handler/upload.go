package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"autofix-api/internal/model"
)

const maxUploadBytes = 20 << 20 // 20 MiB

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedAudioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

// UploadHandler stores uploaded damage photos for later detection
type UploadHandler struct {
	dir    string
	logger *slog.Logger
}

func NewUploadHandler(dir string, logger *slog.Logger) (*UploadHandler, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &UploadHandler{dir: dir, logger: logger}, nil
}

// Dir returns the uploads directory
func (h *UploadHandler) Dir() string { return h.dir }

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name, ok := h.store(w, r, "image", allowedImageExts)
	if !ok {
		return
	}

	carYear, _ := strconv.Atoi(r.FormValue("carYear"))
	resp := model.UploadResponse{
		Filename: name,
		CarInfo: model.CarInfo{
			Name:  r.FormValue("carName"),
			Model: r.FormValue("carModel"),
			Year:  carYear,
		},
	}

	h.logger.Info("image uploaded", "file", name)
	respondJSON(w, http.StatusOK, resp)
}

// UploadAudio stores an engine-sound recording for later analysis
func (h *UploadHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	name, ok := h.store(w, r, "audio", allowedAudioExts)
	if !ok {
		return
	}

	h.logger.Info("audio uploaded", "file", name)
	respondJSON(w, http.StatusOK, model.UploadResponse{Filename: name})
}

// store saves one multipart file field, writing the error response itself
// on failure.
func (h *UploadHandler) store(w http.ResponseWriter, r *http.Request, field string, allowed map[string]bool) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(w, http.StatusBadRequest, field+" file is required")
		return "", false
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed[ext] {
		respondError(w, http.StatusBadRequest, "unsupported "+field+" type")
		return "", false
	}

	// stored under a fresh name so uploads cannot collide or escape the dir
	name := uuid.NewString() + ext
	path := filepath.Join(h.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		h.logger.Error("failed to create upload file", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store upload")
		return "", false
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("failed to write upload file", "error", err)
		os.Remove(path)
		respondError(w, http.StatusInternalServerError, "failed to store upload")
		return "", false
	}

	return name, true
}
