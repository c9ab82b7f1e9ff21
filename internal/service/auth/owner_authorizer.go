package auth

import (
	"context"
	"errors"
	"fmt"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/repositories"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a resource if they own the project that contains it.
type OwnerBasedAuthorizer struct {
	userRepo    repositories.UserRepository
	projectRepo repositories.ProjectRepository
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	userRepo repositories.UserRepository,
	projectRepo repositories.ProjectRepository,
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
	}
}

// CanAccessUser allows users to see and edit only their own account
func (a *OwnerBasedAuthorizer) CanAccessUser(ctx context.Context, requesterID, userID string) error {
	if _, err := a.userRepo.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user for auth: %w", err)
	}
	if requesterID != userID {
		return fmt.Errorf("not enough permissions to access user %s: %w", userID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessProject checks if user owns the project
func (a *OwnerBasedAuthorizer) CanAccessProject(ctx context.Context, userID, projectID string) error {
	project, err := a.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project for auth: %w", err)
	}
	if project.OwnerID != userID {
		return fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessChat checks if user can access a chat (via its project).
// A missing chat is not found; a chat whose project is gone or foreign is forbidden.
func (a *OwnerBasedAuthorizer) CanAccessChat(ctx context.Context, userID, chatID string) error {
	chat, err := a.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get chat for auth: %w", err)
	}

	if err := a.CanAccessProject(ctx, userID, chat.ProjectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("chat %s has no accessible project: %w", chatID, domain.ErrForbidden)
		}
		return err
	}
	return nil
}

// CanAccessMessage checks if user can access a message (via its chat's project)
func (a *OwnerBasedAuthorizer) CanAccessMessage(ctx context.Context, userID, messageID string) error {
	message, err := a.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message for auth: %w", err)
	}

	if err := a.CanAccessChat(ctx, userID, message.ChatID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("message %s has no accessible chat: %w", messageID, domain.ErrForbidden)
		}
		return err
	}
	return nil
}
