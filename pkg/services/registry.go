package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// ProjectRegistry tracks model projects for a session. Creation is
// infallible given guard approval; uniqueness per optimization type is
// the guard's responsibility, not the registry's.
type ProjectRegistry interface {
	// Create registers a new project for the type. Status starts
	// in_progress with no results; the id is never reused.
	Create(t models.OptimizationType, datasetName string) *models.ModelProject

	// Get returns a copy of the project, or apperrors.ErrNotFound.
	Get(id uuid.UUID) (*models.ModelProject, error)

	// Update applies the non-nil fields of req. Returns
	// apperrors.ErrNotFound for an absent id and
	// apperrors.ErrInvalidTransition for a completed→in_progress move.
	Update(id uuid.UUID, req *UpdateProjectRequest) error

	// List returns copies of all projects, newest first.
	List() []*models.ModelProject
}

// UpdateProjectRequest carries a partial update; nil fields are left
// unchanged. The external training process reports completion through
// Status and HasResults.
type UpdateProjectRequest struct {
	Name       *string
	Status     *models.ProjectStatus
	HasResults *bool
}

type projectRegistry struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.ModelProject
	order    []uuid.UUID // creation order, oldest first
	logger   *zap.Logger
}

// NewProjectRegistry creates an empty in-memory registry.
func NewProjectRegistry(logger *zap.Logger) ProjectRegistry {
	return &projectRegistry{
		projects: make(map[uuid.UUID]*models.ModelProject),
		logger:   logger.Named("registry"),
	}
}

func (r *projectRegistry) Create(t models.OptimizationType, datasetName string) *models.ModelProject {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &models.ModelProject{
		ID:                uuid.New(),
		Name:              t.DisplayName() + " Model",
		Type:              t,
		Status:            models.StatusInProgress,
		CreatedAt:         time.Now(),
		SourceDatasetName: datasetName,
		HasResults:        false,
	}
	r.projects[p.ID] = p
	r.order = append(r.order, p.ID)

	r.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("type", string(t)),
		zap.String("dataset", datasetName))

	cp := *p
	return &cp
}

func (r *projectRegistry) Get(id uuid.UUID) (*models.ModelProject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *projectRegistry) Update(id uuid.UUID, req *UpdateProjectRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}

	if req.Status != nil {
		if !models.IsValidProjectStatus(*req.Status) {
			return apperrors.ErrInvalidTransition
		}
		if p.Status == models.StatusCompleted && *req.Status == models.StatusInProgress {
			return apperrors.ErrInvalidTransition
		}
		p.Status = *req.Status
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.HasResults != nil {
		p.HasResults = *req.HasResults
	}

	r.logger.Info("project updated",
		zap.String("project_id", id.String()),
		zap.String("status", string(p.Status)))

	return nil
}

func (r *projectRegistry) List() []*models.ModelProject {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.ModelProject, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := *r.projects[r.order[i]]
		out = append(out, &cp)
	}
	return out
}
