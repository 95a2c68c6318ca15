// Package services contains the session-scoped core of the guided
// model-creation workflow: the conversation engine, the creation guard,
// and the in-memory project registry.
package services

import (
	"sync"

	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// GuardDecision is the tri-state outcome of an attempt to create a model
// for an optimization type. None of the outcomes is an error: repeated
// selections are expected steady-state behavior.
type GuardDecision string

const (
	GuardAllowed           GuardDecision = "allowed"
	GuardAlreadyCreated    GuardDecision = "already_created"
	GuardAlreadyProcessing GuardDecision = "already_processing"
)

// CreationGuard enforces at-most-one project creation per optimization
// type under concurrent selection events. A type moves through
// processing into created (permanent) or back out of processing on a
// failed attempt. The two sets are always disjoint.
type CreationGuard struct {
	mu         sync.Mutex
	processing map[models.OptimizationType]struct{}
	created    map[models.OptimizationType]struct{}
}

// NewCreationGuard creates an empty guard.
func NewCreationGuard() *CreationGuard {
	return &CreationGuard{
		processing: make(map[models.OptimizationType]struct{}),
		created:    make(map[models.OptimizationType]struct{}),
	}
}

// AttemptCreate decides atomically whether a creation may start for the
// type. The created check runs first (terminal), then processing; only
// when the type is in neither set is it inserted into processing and
// Allowed returned. The checks and the insert are one critical section,
// so two back-to-back attempts for the same type can never both be
// Allowed.
func (g *CreationGuard) AttemptCreate(t models.OptimizationType) GuardDecision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.created[t]; ok {
		return GuardAlreadyCreated
	}
	if _, ok := g.processing[t]; ok {
		return GuardAlreadyProcessing
	}
	g.processing[t] = struct{}{}
	return GuardAllowed
}

// Resolve finishes a creation attempt previously Allowed. On success the
// type moves to created and can never be created again for the session;
// on failure it leaves processing so a later attempt may retry.
func (g *CreationGuard) Resolve(t models.OptimizationType, succeeded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.processing, t)
	if succeeded {
		g.created[t] = struct{}{}
	}
}

// IsCreated reports whether the type has permanently reached created.
func (g *CreationGuard) IsCreated(t models.OptimizationType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.created[t]
	return ok
}

// Reset clears both sets. Called on full session reset only.
func (g *CreationGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.processing = make(map[models.OptimizationType]struct{})
	g.created = make(map[models.OptimizationType]struct{})
}
