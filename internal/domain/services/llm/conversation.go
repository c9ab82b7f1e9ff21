package llm

import (
	"context"

	"chatprojects/internal/domain/models"
)

// Orchestrator turns a conversation plus a new user message into a reply.
// It never touches storage; persisting both messages is the caller's job.
type Orchestrator interface {
	// Generate returns domain.ErrMissingInstructions when the project has no
	// base instructions, without contacting the provider.
	Generate(ctx context.Context, conv *models.Conversation, userMessage string) (string, error)
}
