package services

import (
	"context"

	"chatprojects/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	OwnerID          string  `json:"-"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	BaseInstructions string  `json:"base_instructions"`
}

// UpdateProjectRequest represents a partial project update.
// ClearDescription sets description to NULL and wins over Description.
type UpdateProjectRequest struct {
	Name             *string
	Description      *string
	ClearDescription bool
	BaseInstructions *string
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	// CreateProject creates a new project owned by req.OwnerID
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)

	// GetProject retrieves a project the user owns
	GetProject(ctx context.Context, userID, id string) (*models.Project, error)

	// ListProjects retrieves the user's projects
	ListProjects(ctx context.Context, userID string, page models.Page) ([]models.Project, error)

	// UpdateProject applies a partial update
	UpdateProject(ctx context.Context, userID, id string, req *UpdateProjectRequest) (*models.Project, error)

	// DeleteProject removes the project with its chats and messages, returning the deleted project
	DeleteProject(ctx context.Context, userID, id string) (*models.Project, error)
}
