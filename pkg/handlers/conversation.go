package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
	"github.com/optiflow-ai/optiflow-engine/pkg/services"
)

// SendMessageRequest for POST /api/conversation/message
type SendMessageRequest struct {
	Message string `json:"message"`
}

// ChooseOptimizationRequest for POST /api/conversation/optimize
type ChooseOptimizationRequest struct {
	Type  models.OptimizationType `json:"type"`
	Label string                  `json:"label,omitempty"`
}

// MessageResponse is one conversation turn.
type MessageResponse struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// HistoryResponse for GET /api/conversation/history
type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}

// ConversationHandler exposes the session's guided conversation to the
// UI: free-text turns, optimization choices, history, and reset.
type ConversationHandler struct {
	session *services.Session
	logger  *zap.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(session *services.Session, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{session: session, logger: logger}
}

// RegisterRoutes registers the conversation handler's routes on the given mux.
func (h *ConversationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/conversation/message", h.SendMessage)
	mux.HandleFunc("POST /api/conversation/optimize", h.ChooseOptimization)
	mux.HandleFunc("GET /api/conversation/history", h.GetHistory)
	mux.HandleFunc("DELETE /api/conversation/history", h.ResetSession)
}

// SendMessage handles POST /api/conversation/message. The engine resolves
// every accepted round-trip to an assistant turn, so the only error
// statuses are the empty-text and busy-gate rejections.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	msg, err := h.session.Engine.SubmitUserMessage(r.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmptyMessage):
			h.writeError(w, http.StatusBadRequest, "missing_message", "Message is required")
		case errors.Is(err, apperrors.ErrAwaitingReply):
			h.writeError(w, http.StatusConflict, "awaiting_reply", "The assistant is still replying to the previous message")
		default:
			h.logger.Error("send message failed", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to send message")
		}
		return
	}

	h.writeMessage(w, msg)
}

// ChooseOptimization handles POST /api/conversation/optimize.
func (h *ConversationHandler) ChooseOptimization(w http.ResponseWriter, r *http.Request) {
	var req ChooseOptimizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !models.IsValidOptimizationType(req.Type) {
		h.writeError(w, http.StatusBadRequest, "invalid_type", "Unknown optimization type")
		return
	}

	msg, err := h.session.Engine.ChooseOptimization(req.Type, req.Label)
	if err != nil {
		h.logger.Error("choose optimization failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to process choice")
		return
	}

	h.writeMessage(w, msg)
}

// GetHistory handles GET /api/conversation/history.
func (h *ConversationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	messages := h.session.Engine.History()

	data := HistoryResponse{
		Messages: make([]MessageResponse, len(messages)),
		Total:    len(messages),
	}
	for i := range messages {
		data.Messages[i] = toMessageResponse(&messages[i])
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ResetSession handles DELETE /api/conversation/history, the
// logout-equivalent full reset of conversation and guard state.
func (h *ConversationHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"message": "Session reset"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ConversationHandler) writeMessage(w http.ResponseWriter, msg *models.Message) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toMessageResponse(msg)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ConversationHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func toMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Kind:      string(m.Kind),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
