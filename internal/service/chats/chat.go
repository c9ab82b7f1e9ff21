package chats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"chatprojects/internal/cache"
	"chatprojects/internal/config"
	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
	"chatprojects/internal/domain/services"
)

// chatService implements the ChatService interface
type chatService struct {
	chatRepo   repositories.ChatRepository
	authorizer services.ResourceAuthorizer
	history    *historyLoader
	logger     *slog.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
	authorizer services.ResourceAuthorizer,
	historyCache cache.HistoryCache,
	logger *slog.Logger,
) services.ChatService {
	return &chatService{
		chatRepo:   chatRepo,
		authorizer: authorizer,
		history:    &historyLoader{messageRepo: messageRepo, cache: historyCache},
		logger:     logger,
	}
}

// CreateChat creates a chat in a project the user owns
func (s *chatService) CreateChat(ctx context.Context, req *services.CreateChatRequest) (*models.Chat, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required, is.UUID),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxChatTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessProject(ctx, req.UserID, req.ProjectID); err != nil {
		return nil, err
	}

	chat := &models.Chat{
		ProjectID: req.ProjectID,
		Title:     req.Title,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	s.logger.Info("chat created",
		"id", chat.ID,
		"project_id", chat.ProjectID,
		"user_id", req.UserID,
	)

	return chat, nil
}

// GetChat returns a chat with its ordered messages
func (s *chatService) GetChat(ctx context.Context, userID, chatID string) (*models.ChatWithMessages, error) {
	if err := s.authorizer.CanAccessChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	messages, err := s.history.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}

	return &models.ChatWithMessages{Chat: *chat, Messages: messages}, nil
}

// ListChats lists chats of one project, or of all the user's projects
func (s *chatService) ListChats(ctx context.Context, userID, projectID string, page models.Page) ([]models.Chat, error) {
	if projectID == "" {
		return s.chatRepo.ListByOwner(ctx, userID, page)
	}

	if err := s.authorizer.CanAccessProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListByProject(ctx, projectID, page)
}

// UpdateChat changes the chat title
func (s *chatService) UpdateChat(ctx context.Context, userID, chatID string, req *services.UpdateChatRequest) (*models.Chat, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxChatTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		chat.Title = *req.Title
	}

	if err := s.chatRepo.Update(ctx, chat); err != nil {
		return nil, err
	}

	s.logger.Info("chat updated", "id", chat.ID, "user_id", userID)

	return chat, nil
}

// DeleteChat removes a chat and its messages
func (s *chatService) DeleteChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	if err := s.authorizer.CanAccessChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.Delete(ctx, chatID)
	if err != nil {
		return nil, err
	}

	s.history.cache.Invalidate(ctx, chatID)

	s.logger.Info("chat deleted", "id", chatID, "user_id", userID)

	return chat, nil
}
