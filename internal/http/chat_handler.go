package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecosopis/storefront/internal/domain"
)

type ChatService interface {
	Reply(ctx context.Context, message string) (string, error)
}

type ChatHandler struct {
	chat    ChatService
	timeout time.Duration
}

func NewChatHandler(chat ChatService, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		chat:    chat,
		timeout: timeout,
	}
}

type ChatRequestDTO struct {
	Message string `json:"message"`
}

type ChatResponseDTO struct {
	Response string `json:"response"`
}

// POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ChatRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	reply, err := h.chat.Reply(ctx, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			handleError(w, r, err)
			return
		}
		slog.ErrorContext(r.Context(), "chat reply failed", "error", err)
		respondError(w, http.StatusInternalServerError, "chat_unavailable", "failed to generate response")
		return
	}
	respondJSON(w, http.StatusOK, ChatResponseDTO{Response: reply})
}
