package repositories

import (
	"context"

	"chatprojects/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and fills in generated ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project by ID without owner scoping.
	// Callers decide between 404 and 403 by comparing OwnerID.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListByOwner retrieves an owner's projects ordered by created_at
	ListByOwner(ctx context.Context, ownerID string, page models.Page) ([]models.Project, error)

	// Update writes name, description, base_instructions and updated_at
	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project (chats and messages cascade) and returns it
	Delete(ctx context.Context, id string) (*models.Project, error)
}
