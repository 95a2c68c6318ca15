package services

import (
	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/llm"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// Session bundles the state one user session owns: the conversation
// engine with its state, the creation guard, and the project registry.
// Nothing here is ambient or static; a second session gets fresh
// instances of everything.
type Session struct {
	Engine   *ConversationEngine
	Guard    *CreationGuard
	Registry ProjectRegistry
}

// NewSession wires a session whose creation callback registers projects
// in its own registry. Registry creation is infallible, so the callback
// always reports success; the guard still brackets it with
// AttemptCreate/Resolve so a future fallible callback keeps retry
// semantics.
func NewSession(client llm.ChatClient, logger *zap.Logger) *Session {
	guard := NewCreationGuard()
	registry := NewProjectRegistry(logger)

	createModel := func(t models.OptimizationType, dataset *models.TabularDataset) CreateModelResult {
		datasetName := ""
		if dataset != nil {
			datasetName = dataset.SourceName
		}
		registry.Create(t, datasetName)
		return CreateModelResult{Success: true}
	}

	engine := NewConversationEngine(NewConversationState(), client, guard, createModel, logger)

	return &Session{
		Engine:   engine,
		Guard:    guard,
		Registry: registry,
	}
}

// Reset clears the conversation log and the guard sets together, the
// logout-equivalent. Projects already created stay in the registry; they
// are never deleted.
func (s *Session) Reset() {
	s.Engine.Reset()
	s.Guard.Reset()
}
