package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/llm"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
	"github.com/optiflow-ai/optiflow-engine/pkg/prompts"
)

// CreateModelResult is the outcome of the project-creation callback.
// Message is user-facing and set only when Success is false.
type CreateModelResult struct {
	Success bool
	Message string
}

// CreateModelFunc records a project creation. It is invoked only after
// the guard has returned Allowed for the type.
type CreateModelFunc func(t models.OptimizationType, dataset *models.TabularDataset) CreateModelResult

// ConversationState holds one session's ordered message log, the current
// dataset, and the awaiting-reply gate. Messages are append-only with
// monotonic ids; the log is cleared only on full session reset.
type ConversationState struct {
	messages      []models.Message
	dataset       *models.TabularDataset
	awaitingReply bool
	nextID        int64
}

// NewConversationState creates an empty state.
func NewConversationState() *ConversationState {
	return &ConversationState{}
}

func (s *ConversationState) append(role models.ChatRole, kind models.MessageKind, content string) *models.Message {
	s.nextID++
	s.messages = append(s.messages, models.Message{
		ID:        s.nextID,
		Role:      role,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return &s.messages[len(s.messages)-1]
}

// ConversationEngine drives the guided model-creation conversation: free
// text goes through the chat proxy, uploads are recorded with a scripted
// acknowledgment, and optimization choices are checked against the
// creation guard before the creation callback runs.
type ConversationEngine struct {
	mu          sync.Mutex
	state       *ConversationState
	client      llm.ChatClient
	guard       *CreationGuard
	createModel CreateModelFunc
	logger      *zap.Logger
}

// NewConversationEngine wires an engine around one session's state.
func NewConversationEngine(
	state *ConversationState,
	client llm.ChatClient,
	guard *CreationGuard,
	createModel CreateModelFunc,
	logger *zap.Logger,
) *ConversationEngine {
	return &ConversationEngine{
		state:       state,
		client:      client,
		guard:       guard,
		createModel: createModel,
		logger:      logger.Named("conversation"),
	}
}

// SubmitUserMessage appends a user turn and performs one proxy
// round-trip. It is valid only while no other round-trip is outstanding
// (apperrors.ErrAwaitingReply otherwise) and rejects blank text
// (apperrors.ErrEmptyMessage). Whatever the proxy outcome, exactly one
// assistant turn is appended — the reply text on success, the mapped
// user-facing error text on failure — and the gate is released. The
// returned message is the assistant turn.
func (e *ConversationEngine) SubmitUserMessage(ctx context.Context, text string) (*models.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	e.mu.Lock()
	if e.state.awaitingReply {
		e.mu.Unlock()
		return nil, apperrors.ErrAwaitingReply
	}
	e.state.append(models.ChatRoleUser, models.KindChat, trimmed)
	e.state.awaitingReply = true
	payload := e.buildPayloadLocked()
	e.mu.Unlock()

	reply, err := e.client.Send(ctx, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.awaitingReply = false

	if err != nil {
		category := llm.CategoryOf(err)
		e.logger.Warn("proxy round-trip failed",
			zap.String("category", string(category)),
			zap.Error(err))
		msg := e.state.append(models.ChatRoleAssistant, models.KindChat, replyForError(category))
		return msg, nil
	}

	msg := e.state.append(models.ChatRoleAssistant, models.KindChat, reply)
	return msg, nil
}

// buildPayloadLocked assembles the outbound message list: a system
// instruction synthesized from the current dataset, then every prior
// chat-kind turn in chronological order. Annotation turns (upload notice,
// analysis announcement) never reach the provider, and the system
// instruction is regenerated fresh each round-trip rather than stored.
func (e *ConversationEngine) buildPayloadLocked() []llm.ChatMessage {
	payload := make([]llm.ChatMessage, 0, len(e.state.messages)+1)
	payload = append(payload, llm.ChatMessage{
		Role:    string(models.ChatRoleSystem),
		Content: prompts.BuildSystemInstruction(e.state.dataset),
	})
	for i := range e.state.messages {
		m := &e.state.messages[i]
		if m.IsAnnotation() {
			continue
		}
		payload = append(payload, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return payload
}

// RecordUpload replaces the session dataset and appends the upload notice
// plus the scripted analysis acknowledgment. Recording the identical
// dataset reference again is a no-op. No proxy call is made.
func (e *ConversationEngine) RecordUpload(dataset *models.TabularDataset) {
	if dataset == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.dataset == dataset {
		return
	}
	e.state.dataset = dataset

	e.state.append(models.ChatRoleUser, models.KindUploadNotice,
		fmt.Sprintf("Uploaded %s", dataset.SourceName))
	e.state.append(models.ChatRoleAssistant, models.KindAnalysisNotice,
		fmt.Sprintf("I've analyzed %s — %d columns (%s). Based on this data I can help you create an inventory, price, or product optimization model. Which would you like to start with?",
			dataset.SourceName, dataset.ColumnCount(), strings.Join(dataset.Headers, ", ")))

	e.logger.Info("upload recorded",
		zap.String("source", dataset.SourceName),
		zap.Int("columns", dataset.ColumnCount()))
}

// ChooseOptimization appends the user's choice, consults the guard, runs
// the creation callback when Allowed, and appends the scripted assistant
// outcome. Repeat selections produce calm confirmations, never errors.
// The returned message is the assistant turn.
func (e *ConversationEngine) ChooseOptimization(t models.OptimizationType, label string) (*models.Message, error) {
	if !models.IsValidOptimizationType(t) {
		return nil, fmt.Errorf("invalid optimization type: %q", t)
	}
	if strings.TrimSpace(label) == "" {
		label = "Create a " + t.DisplayName() + " model"
	}

	e.mu.Lock()
	e.state.append(models.ChatRoleUser, models.KindChat, label)
	dataset := e.state.dataset
	e.mu.Unlock()

	decision := e.guard.AttemptCreate(t)

	var content string
	switch decision {
	case GuardAllowed:
		result := e.createModel(t, dataset)
		e.guard.Resolve(t, result.Success)
		if result.Success {
			content = fmt.Sprintf("Great choice. Your %s model is now being created — you can track it on the Models page.", t.DisplayName())
		} else {
			content = result.Message
			if content == "" {
				content = fmt.Sprintf("I couldn't create the %s model just now. Please try again.", t.DisplayName())
			}
		}
	case GuardAlreadyProcessing:
		content = fmt.Sprintf("Your %s model is already being set up. It will appear on the Models page shortly.", t.DisplayName())
	case GuardAlreadyCreated:
		content = fmt.Sprintf("You already have a %s model from this session, so there's nothing more to do here.", t.DisplayName())
	}

	e.logger.Info("optimization chosen",
		zap.String("type", string(t)),
		zap.String("decision", string(decision)))

	e.mu.Lock()
	defer e.mu.Unlock()
	msg := e.state.append(models.ChatRoleAssistant, models.KindChat, content)
	return msg, nil
}

// History returns a copy of the full message log in chronological order.
func (e *ConversationEngine) History() []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Message, len(e.state.messages))
	copy(out, e.state.messages)
	return out
}

// Dataset returns the current session dataset, or nil.
func (e *ConversationEngine) Dataset() *models.TabularDataset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.dataset
}

// AwaitingReply reports whether a proxy round-trip is outstanding.
func (e *ConversationEngine) AwaitingReply() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.awaitingReply
}

// Reset clears the message log, the dataset, and the id counter.
func (e *ConversationEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.messages = nil
	e.state.dataset = nil
	e.state.awaitingReply = false
	e.state.nextID = 0
}

// replyForError maps a proxy error category to the calm, user-facing
// reply inserted into the conversation. Each category reads differently
// so the user can tell a rate limit from an outage.
func replyForError(category llm.Category) string {
	switch category {
	case llm.CategoryConfiguration:
		return "The assistant isn't configured on this server yet. Please ask your administrator to add a provider credential."
	case llm.CategoryBadRequest:
		return "I couldn't process that message. Try rephrasing it."
	case llm.CategoryUnauthorized:
		return "The assistant service rejected this server's credentials. Please ask your administrator to check them."
	case llm.CategoryRateLimited:
		return "The assistant is handling a lot of requests right now. Give it a moment and try again."
	case llm.CategoryUpstreamUnavailable:
		return "The assistant service is temporarily unreachable. Please try again shortly."
	case llm.CategoryUnknown:
	}
	return "Something unexpected went wrong while generating a response. Please try again."
}
