package services

import (
	"context"

	"chatprojects/internal/domain/models"
)

// PostMessageRequest is a new user turn in a chat
type PostMessageRequest struct {
	UserID         string `json:"-"`
	ChatID         string `json:"-"`
	MessageContent string `json:"message_content"`
}

// PostMessageResult holds both persisted messages of a completed turn.
// Response always equals Assistant.Content.
type PostMessageResult struct {
	Response  string          `json:"response"`
	User      *models.Message `json:"-"`
	Assistant *models.Message `json:"-"`
}

// UpdateMessageRequest is a role and/or content edit
type UpdateMessageRequest struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// MessageService defines operations on chat histories
type MessageService interface {
	// PostMessage persists the user message, asks the LLM for a reply and
	// persists it. domain.ErrMissingInstructions is returned before anything
	// is written. Provider exhaustion wraps domain.ErrProviderFailure.
	PostMessage(ctx context.Context, req *PostMessageRequest) (*PostMessageResult, error)

	// ListMessages returns a chat's history in order
	ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error)

	// UpdateMessage edits role and/or content
	UpdateMessage(ctx context.Context, userID, messageID string, req *UpdateMessageRequest) (*models.Message, error)

	// DeleteMessage removes a single message
	DeleteMessage(ctx context.Context, userID, messageID string) (*models.Message, error)
}
