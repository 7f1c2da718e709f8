package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"autofix-api/internal/model"
	"autofix-api/internal/repository"
)

// ReportStore is the persistence surface the history endpoints need
type ReportStore interface {
	List(ctx context.Context, limit int) ([]model.ReportRecord, error)
	GetByID(ctx context.Context, reportID string) (*model.ReportRecord, error)
	IncrementDownload(ctx context.Context, reportID string) error
	Delete(ctx context.Context, reportID string) error
}

type HistoryHandler struct {
	reports ReportStore
	logger  *slog.Logger
}

func NewHistoryHandler(reports ReportStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{reports: reports, logger: logger}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	reports, err := h.reports.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list reports", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []model.ReportRecord{}
	}

	respondJSON(w, http.StatusOK, model.HistoryResponse{Reports: reports, Total: len(reports)})
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *HistoryHandler) Download(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if _, err := os.Stat(rec.FilePath); err != nil {
		h.logger.Warn("report file missing", "report_id", rec.ReportID, "path", rec.FilePath)
		respondError(w, http.StatusNotFound, "report file not found")
		return
	}

	if err := h.reports.IncrementDownload(r.Context(), rec.ReportID); err != nil {
		// the download still works, only the counter is stale
		h.logger.Warn("failed to count download", "report_id", rec.ReportID, "error", err)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.FileName))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, rec.FilePath)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.reports.Delete(r.Context(), rec.ReportID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		h.logger.Error("failed to delete report", "report_id", rec.ReportID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}

	if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove report file", "report_id", rec.ReportID, "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "reportId": rec.ReportID})
}

// lookup resolves the {id} path parameter, writing the error response itself
func (h *HistoryHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.ReportRecord, bool) {
	reportID := chi.URLParam(r, "id")
	if reportID == "" {
		respondError(w, http.StatusBadRequest, "report id is required")
		return nil, false
	}

	rec, err := h.reports.GetByID(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return nil, false
		}
		h.logger.Error("failed to load report", "report_id", reportID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load report")
		return nil, false
	}

	return rec, true
}
