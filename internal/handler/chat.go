package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"autofix-api/internal/model"
)

// ChatProvider answers assistant questions
type ChatProvider interface {
	Chat(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error)
}

type ChatHandler struct {
	svc    ChatProvider
	logger *slog.Logger
}

func NewChatHandler(svc ChatProvider, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Question) == "" && strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		h.logger.Error("chat failed", "error", err)
		respondError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
