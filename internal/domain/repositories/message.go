package repositories

import (
	"context"

	"chatprojects/internal/domain/models"
)

// MessageRepository defines data access operations for chat messages
type MessageRepository interface {
	// Create appends a message to its chat, assigning the next per-chat
	// sequence number along with ID and timestamps
	Create(ctx context.Context, message *models.Message) error

	// GetByID returns domain.ErrNotFound if the message doesn't exist
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListByChat returns a chat's messages ordered by sequence
	ListByChat(ctx context.Context, chatID string) ([]models.Message, error)

	// Update writes role, content and updated_at
	Update(ctx context.Context, message *models.Message) error

	// Delete removes a message and returns it
	Delete(ctx context.Context, id string) (*models.Message, error)
}
