package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

func TestRegistry_Create(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())

	p := r.Create(models.OptimizationInventory, "sales.csv")

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Inventory Optimization Model", p.Name)
	assert.Equal(t, models.OptimizationInventory, p.Type)
	assert.Equal(t, models.StatusInProgress, p.Status)
	assert.Equal(t, "sales.csv", p.SourceDatasetName)
	assert.False(t, p.HasResults)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestRegistry_ListNewestFirst(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())

	first := r.Create(models.OptimizationInventory, "d.csv")
	second := r.Create(models.OptimizationPrice, "d.csv")
	third := r.Create(models.OptimizationProduct, "d.csv")

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, first.ID, list[2].ID)
}

func TestRegistry_UpdatePartial(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())
	p := r.Create(models.OptimizationPrice, "d.csv")

	completed := models.StatusCompleted
	hasResults := true
	err := r.Update(p.ID, &UpdateProjectRequest{Status: &completed, HasResults: &hasResults})
	require.NoError(t, err)

	got, err := r.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.HasResults)
	// Untouched fields survive.
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Type, got.Type)
}

func TestRegistry_UpdateNotFound(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())

	err := r.Update(uuid.New(), &UpdateProjectRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = r.Get(uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRegistry_LifecycleEnforced(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())
	p := r.Create(models.OptimizationProduct, "d.csv")

	completed := models.StatusCompleted
	require.NoError(t, r.Update(p.ID, &UpdateProjectRequest{Status: &completed}))

	// Completed projects never go back to in progress.
	inProgress := models.StatusInProgress
	err := r.Update(p.ID, &UpdateProjectRequest{Status: &inProgress})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	// Unknown status values are rejected outright.
	bogus := models.ProjectStatus("paused")
	err = r.Update(p.ID, &UpdateProjectRequest{Status: &bogus})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r := NewProjectRegistry(zap.NewNop())
	p := r.Create(models.OptimizationInventory, "d.csv")

	p.Name = "mutated"

	got, err := r.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inventory Optimization Model", got.Name)
}
