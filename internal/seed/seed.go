// Package seed populates a database with a demo account, project and chat.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatprojects/internal/auth"
	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// Options controls what gets seeded
type Options struct {
	Email            string
	Password         string
	ProjectName      string
	BaseInstructions string
	ChatTitle        string
	// WithHistory adds a sample user/assistant exchange to the chat
	WithHistory bool
}

// DefaultOptions returns the demo account used in development
func DefaultOptions() Options {
	return Options{
		Email:            "demo@example.com",
		Password:         "demo-password",
		ProjectName:      "Demo Project",
		BaseInstructions: "You are a concise research assistant. Answer in plain language.",
		ChatTitle:        "Getting started",
		WithHistory:      true,
	}
}

// Result lists the IDs of the seeded rows
type Result struct {
	UserID      string
	ProjectID   string
	ChatID      string
	Messages    int
	UserExisted bool
}

// Seeder writes demo data through the repositories
type Seeder struct {
	users     repositories.UserRepository
	projects  repositories.ProjectRepository
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	txManager repositories.TransactionManager
	hasher    auth.PasswordHasher
	logger    *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(
	users repositories.UserRepository,
	projects repositories.ProjectRepository,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	txManager repositories.TransactionManager,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		users:     users,
		projects:  projects,
		chats:     chats,
		messages:  messages,
		txManager: txManager,
		hasher:    hasher,
		logger:    logger,
	}
}

var sampleHistory = []models.Message{
	{Role: models.RoleUser, Content: "What can you help me with?"},
	{Role: models.RoleAssistant, Content: "I can summarize sources, compare arguments and draft short notes for this project."},
}

// Seed creates the demo rows in one transaction. An existing user with the
// same email is reused; a new project and chat are always created.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		user, existed, err := s.ensureUser(ctx, opts.Email, opts.Password)
		if err != nil {
			return err
		}
		result.UserID = user.ID
		result.UserExisted = existed

		project := &models.Project{
			OwnerID:          user.ID,
			Name:             opts.ProjectName,
			BaseInstructions: opts.BaseInstructions,
		}
		if err := s.projects.Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		result.ProjectID = project.ID

		chat := &models.Chat{ProjectID: project.ID, Title: opts.ChatTitle}
		if err := s.chats.Create(ctx, chat); err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
		result.ChatID = chat.ID

		if !opts.WithHistory {
			return nil
		}
		for _, sample := range sampleHistory {
			msg := sample
			msg.ChatID = chat.ID
			if err := s.messages.Create(ctx, &msg); err != nil {
				return fmt.Errorf("create message: %w", err)
			}
			result.Messages++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seed complete",
		"user_id", result.UserID,
		"user_existed", result.UserExisted,
		"project_id", result.ProjectID,
		"chat_id", result.ChatID,
		"messages", result.Messages,
	)
	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, email, password string) (*models.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("look up user: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{Email: email, HashedPassword: digest, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, false, nil
}
