package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RichardoC/dentalchat/internal/llm"
	"github.com/RichardoC/dentalchat/internal/models"
	"go.uber.org/zap"
)

type ChatRequest struct {
	Messages    []models.ChatMessage `json:"messages"`
	Model       string               `json:"model,omitempty"`
	MaxTokens   *int                 `json:"maxTokens,omitempty"`
	Temperature *float64             `json:"temperature,omitempty"`
}

// HandleChat is the inference proxy. Every answer uses the envelope; a
// success carries data.message.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if h.cors(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		h.chatFailed(w, "method_not_allowed", http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.chatFailed(w, "bad_request", http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		h.chatFailed(w, "bad_request", http.StatusBadRequest, "Messages array is required")
		return
	}
	for i, m := range req.Messages {
		if !m.Role.Valid() {
			h.chatFailed(w, "bad_request", http.StatusBadRequest, fmt.Sprintf("Invalid role %q at messages[%d]", m.Role, i))
			return
		}
	}

	if h.chat == nil {
		h.logger.Error("upstream API key is missing")
		h.chatFailed(w, "config_error", http.StatusInternalServerError, "Server configuration error")
		return
	}

	upstreamReq := llm.ChatRequest{
		Messages:    req.Messages,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	ctx := llm.WithReferer(r.Context(), r.Header.Get("Referer"))

	start := time.Now()
	message, err := h.chat.CompleteChat(ctx, upstreamReq)
	if err != nil {
		h.upstreamFailed(w, r, err)
		return
	}

	h.metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	h.logger.Debug("chat completed",
		zap.Int("messages", len(req.Messages)),
		zap.String("model", req.Model),
		zap.Duration("elapsed", time.Since(start)))
	writeSuccess(w, models.ChatData{Message: message})
}

func (h *Handler) upstreamFailed(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *llm.UpstreamError
	switch {
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		h.logger.Error("upstream API error",
			zap.Int("status", upstream.StatusCode),
			zap.String("body", upstream.Body),
			zap.String("path", r.URL.Path))
		h.chatFailed(w, "upstream_error", status, upstream.Error())

	case errors.Is(err, llm.ErrEmptyCompletion):
		h.logger.Error("upstream returned no completion")
		h.chatFailed(w, "upstream_error", http.StatusBadGateway, err.Error())

	default:
		h.logger.Error("failed to complete chat", zap.Error(err))
		h.chatFailed(w, "internal_error", http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) chatFailed(w http.ResponseWriter, outcome string, status int, msg string) {
	h.metrics.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	writeError(w, status, msg)
}
