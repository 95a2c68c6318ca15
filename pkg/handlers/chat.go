package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/config"
	"github.com/optiflow-ai/optiflow-engine/pkg/llm"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// noResponseFallback is returned when the provider yields an empty or
// absent completion. Callers always receive display text, never an error,
// for an empty completion.
const noResponseFallback = "I wasn't able to come up with a response. Could you rephrase that?"

// ChatRequest is the proxy request body. Model and sampling fields sent
// by clients are accepted but ignored; the server-side configuration is
// authoritative.
type ChatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
}

// ChatResponse carries the assistant's reply text.
type ChatResponse struct {
	Message string `json:"message"`
}

// ChatHandler is the stateless chat proxy service: it validates the
// request, attaches the server-held credential via the provider adapter,
// forwards the ordered messages, and maps provider failures onto the
// response statuses clients classify against. The credential never
// appears in a response.
type ChatHandler struct {
	provider llm.CompletionProvider
	cfg      *config.Config
	logger   *zap.Logger
}

// NewChatHandler creates a new chat proxy handler.
func NewChatHandler(provider llm.CompletionProvider, cfg *config.Config, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{provider: provider, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.Send)
}

// Send handles POST /api/chat.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	// Credential absence is a per-request condition, not a startup failure.
	if !h.cfg.LLM.IsConfigured() {
		h.writeError(w, http.StatusInternalServerError, llm.CategoryConfiguration,
			"No provider credential is configured on this server")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, llm.CategoryBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		h.writeError(w, http.StatusBadRequest, llm.CategoryBadRequest, "messages array is required")
		return
	}
	for _, m := range req.Messages {
		if !models.IsValidChatRole(models.ChatRole(m.Role)) {
			h.writeError(w, http.StatusBadRequest, llm.CategoryBadRequest, "Invalid message role")
			return
		}
	}

	reply, err := h.provider.Complete(r.Context(), req.Messages)
	if err != nil {
		category := llm.CategoryOf(err)
		h.logger.Error("provider call failed",
			zap.String("provider", h.provider.Name()),
			zap.String("category", string(category)),
			zap.Error(err))
		h.writeError(w, statusForCategory(category), category, providerMessage(err))
		return
	}

	if reply == "" {
		reply = noResponseFallback
	}

	if err := WriteJSON(w, http.StatusOK, ChatResponse{Message: reply}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, statusCode int, category llm.Category, message string) {
	if err := ErrorResponse(w, statusCode, string(category), message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// statusForCategory maps provider failure categories onto the proxy's
// response statuses. Upstream 5xx and transport failures surface as 502.
func statusForCategory(category llm.Category) int {
	switch category {
	case llm.CategoryBadRequest:
		return http.StatusBadRequest
	case llm.CategoryUnauthorized:
		return http.StatusUnauthorized
	case llm.CategoryRateLimited:
		return http.StatusTooManyRequests
	case llm.CategoryUpstreamUnavailable:
		return http.StatusBadGateway
	case llm.CategoryConfiguration:
		return http.StatusInternalServerError
	case llm.CategoryUnknown:
	}
	return http.StatusBadGateway
}

// providerMessage extracts the provider-supplied message when present,
// falling back to a generic one. Raw provider errors are logged, not
// returned.
func providerMessage(err error) string {
	var pe *llm.Error
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return "The completion provider request failed"
}
