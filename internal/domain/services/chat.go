package services

import (
	"context"

	"chatprojects/internal/domain/models"
)

// CreateChatRequest represents a request to create a chat in a project
type CreateChatRequest struct {
	UserID    string `json:"-"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
}

// UpdateChatRequest represents a partial chat update
type UpdateChatRequest struct {
	Title *string `json:"title,omitempty"`
}

// ChatService defines business logic operations for chats
type ChatService interface {
	// CreateChat creates a chat. Missing project: domain.ErrNotFound; not owned: domain.ErrForbidden.
	CreateChat(ctx context.Context, req *CreateChatRequest) (*models.Chat, error)

	// GetChat returns the chat with its ordered messages
	GetChat(ctx context.Context, userID, chatID string) (*models.ChatWithMessages, error)

	// ListChats lists chats of one project, or of every owned project when projectID is empty
	ListChats(ctx context.Context, userID, projectID string, page models.Page) ([]models.Chat, error)

	// UpdateChat applies a partial update
	UpdateChat(ctx context.Context, userID, chatID string, req *UpdateChatRequest) (*models.Chat, error)

	// DeleteChat removes the chat and its messages, returning the deleted chat
	DeleteChat(ctx context.Context, userID, chatID string) (*models.Chat, error)
}
