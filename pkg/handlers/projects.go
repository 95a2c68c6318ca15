package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
	"github.com/optiflow-ai/optiflow-engine/pkg/services"
)

// ProjectResponse is the standard response shape for project endpoints.
type ProjectResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
	SourceDatasetName string `json:"source_dataset_name,omitempty"`
	HasResults        bool   `json:"has_results"`
}

// ProjectListResponse for GET /api/projects
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    int               `json:"total"`
}

// UpdateProjectBody for PATCH /api/projects/{id}. This is the path the
// external training process uses to report completion.
type UpdateProjectBody struct {
	Name       *string `json:"name,omitempty"`
	Status     *string `json:"status,omitempty"`
	HasResults *bool   `json:"has_results,omitempty"`
}

// ProjectsHandler exposes the session's model project registry.
type ProjectsHandler struct {
	registry services.ProjectRegistry
	logger   *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(registry services.ProjectRegistry, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{registry: registry, logger: logger}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects", h.List)
	mux.HandleFunc("GET /api/projects/{id}", h.Get)
	mux.HandleFunc("PATCH /api/projects/{id}", h.Update)
}

// List handles GET /api/projects, newest first.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects := h.registry.List()

	data := ProjectListResponse{
		Projects: make([]ProjectResponse, len(projects)),
		Total:    len(projects),
	}
	for i, p := range projects {
		data.Projects[i] = toProjectResponse(p)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{id}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	project, err := h.registry.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "not_found", "Project not found")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toProjectResponse(project)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/projects/{id}.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var body UpdateProjectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	req := &services.UpdateProjectRequest{
		Name:       body.Name,
		HasResults: body.HasResults,
	}
	if body.Status != nil {
		status := models.ProjectStatus(*body.Status)
		req.Status = &status
	}

	if err := h.registry.Update(id, req); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "not_found", "Project not found")
		case errors.Is(err, apperrors.ErrInvalidTransition):
			h.writeError(w, http.StatusBadRequest, "invalid_transition", "Completed projects cannot return to in progress")
		default:
			h.logger.Error("Failed to update project",
				zap.String("project_id", id.String()),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update project")
		}
		return
	}

	project, err := h.registry.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "not_found", "Project not found")
		return
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toProjectResponse(project)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ProjectsHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProjectsHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func toProjectResponse(p *models.ModelProject) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Type:              string(p.Type),
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		SourceDatasetName: p.SourceDatasetName,
		HasResults:        p.HasResults,
	}
}
