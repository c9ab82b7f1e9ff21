package repositories

import (
	"context"

	"chatprojects/internal/domain/models"
)

// ChatRepository defines data access operations for chats
type ChatRepository interface {
	// Create creates a new chat and fills in generated ID and timestamps
	Create(ctx context.Context, chat *models.Chat) error

	// GetByID retrieves a chat by ID.
	// Returns domain.ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*models.Chat, error)

	// ListByProject retrieves a project's chats ordered by created_at
	ListByProject(ctx context.Context, projectID string, page models.Page) ([]models.Chat, error)

	// ListByOwner retrieves chats across every project owned by ownerID
	ListByOwner(ctx context.Context, ownerID string, page models.Page) ([]models.Chat, error)

	// ListIDsByProject returns the IDs of every chat in a project
	ListIDsByProject(ctx context.Context, projectID string) ([]string, error)

	// Update writes title and updated_at
	Update(ctx context.Context, chat *models.Chat) error

	// Delete removes a chat (messages cascade) and returns it
	Delete(ctx context.Context, id string) (*models.Chat, error)
}
