package models

import (
	"time"

	"github.com/google/uuid"
)

// OptimizationType identifies one of the three model kinds a user can
// create from an uploaded dataset. The set is closed: consumption sites
// switch exhaustively so a new member is a compile-time-visible change.
type OptimizationType string

const (
	OptimizationInventory OptimizationType = "inventory"
	OptimizationPrice     OptimizationType = "price"
	OptimizationProduct   OptimizationType = "product"
)

// ValidOptimizationTypes contains all valid optimization type values.
var ValidOptimizationTypes = []OptimizationType{
	OptimizationInventory,
	OptimizationPrice,
	OptimizationProduct,
}

// IsValidOptimizationType checks if the given type is valid.
func IsValidOptimizationType(t OptimizationType) bool {
	for _, v := range ValidOptimizationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DisplayName returns the user-facing label for the optimization type.
func (t OptimizationType) DisplayName() string {
	switch t {
	case OptimizationInventory:
		return "Inventory Optimization"
	case OptimizationPrice:
		return "Price Optimization"
	case OptimizationProduct:
		return "Product Optimization"
	}
	return string(t)
}

// ProjectStatus represents the lifecycle state of a model project.
type ProjectStatus string

const (
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
)

// IsValidProjectStatus checks if the given status is valid.
func IsValidProjectStatus(s ProjectStatus) bool {
	return s == StatusInProgress || s == StatusCompleted
}

// ModelProject is a tracked unit of work representing one optimization
// type applied to one uploaded dataset. Projects start in_progress with no
// results; training completion arrives out of band through the registry's
// update operation.
type ModelProject struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Type              OptimizationType `json:"type"`
	Status            ProjectStatus    `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	SourceDatasetName string           `json:"source_dataset_name"`
	HasResults        bool             `json:"has_results"`
}
