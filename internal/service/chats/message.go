package chats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chatprojects/internal/cache"
	"chatprojects/internal/config"
	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
	"chatprojects/internal/domain/services"
	llmSvc "chatprojects/internal/domain/services/llm"
)

// messageService implements the MessageService interface
type messageService struct {
	chatRepo     repositories.ChatRepository
	projectRepo  repositories.ProjectRepository
	messageRepo  repositories.MessageRepository
	authorizer   services.ResourceAuthorizer
	orchestrator llmSvc.Orchestrator
	history      *historyLoader
	logger       *slog.Logger
}

// NewMessageService creates a new message service
func NewMessageService(
	chatRepo repositories.ChatRepository,
	projectRepo repositories.ProjectRepository,
	messageRepo repositories.MessageRepository,
	authorizer services.ResourceAuthorizer,
	orchestrator llmSvc.Orchestrator,
	historyCache cache.HistoryCache,
	logger *slog.Logger,
) services.MessageService {
	return &messageService{
		chatRepo:     chatRepo,
		projectRepo:  projectRepo,
		messageRepo:  messageRepo,
		authorizer:   authorizer,
		orchestrator: orchestrator,
		history:      &historyLoader{messageRepo: messageRepo, cache: historyCache},
		logger:       logger,
	}
}

// PostMessage runs one conversation turn.
//
// Order of effects:
//  1. authorize and load chat, project and history
//  2. reject missing base instructions (nothing persisted)
//  3. persist the user message
//  4. call the orchestrator (retries live there)
//  5. persist the assistant reply; the reply is only returned once stored
//
// Steps 4 and 5 run on a context detached from the request; a client
// disconnect does not stop them.
func (s *messageService) PostMessage(ctx context.Context, req *services.PostMessageRequest) (*services.PostMessageResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.MessageContent,
			validation.Required,
			validation.Length(1, config.MaxMessageContentLength),
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessChat(ctx, req.UserID, req.ChatID); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.GetByID(ctx, req.ChatID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, chat.ProjectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(project.BaseInstructions) == "" {
		return nil, domain.ErrMissingInstructions
	}

	history, err := s.history.Load(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ChatID:  chat.ID,
		Role:    models.RoleUser,
		Content: req.MessageContent,
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}
	s.history.cache.Invalidate(ctx, chat.ID)

	detached := context.WithoutCancel(ctx)

	conv := &models.Conversation{Chat: chat, Project: project, Messages: history}
	reply, err := s.orchestrator.Generate(detached, conv, req.MessageContent)
	if err != nil {
		s.logger.Error("llm reply failed",
			"chat_id", chat.ID,
			"user_message_id", userMsg.ID,
			"error", err,
		)
		return nil, err
	}

	assistantMsg := &models.Message{
		ChatID:  chat.ID,
		Role:    models.RoleAssistant,
		Content: reply,
	}
	if err := s.messageRepo.Create(detached, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant reply: %w", err)
	}
	s.history.cache.Invalidate(detached, chat.ID)

	s.logger.Info("message posted",
		"chat_id", chat.ID,
		"user_message_id", userMsg.ID,
		"assistant_message_id", assistantMsg.ID,
		"history", len(history),
	)

	return &services.PostMessageResult{
		Response:  assistantMsg.Content,
		User:      userMsg,
		Assistant: assistantMsg,
	}, nil
}

// ListMessages returns a chat's ordered history
func (s *messageService) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	if err := s.authorizer.CanAccessChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.history.Load(ctx, chatID)
}

// UpdateMessage edits role and/or content
func (s *messageService) UpdateMessage(ctx context.Context, userID, messageID string, req *services.UpdateMessageRequest) (*models.Message, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Role, validation.NilOrNotEmpty, validation.Length(1, config.MaxMessageRoleLength)),
		validation.Field(&req.Content, validation.NilOrNotEmpty, validation.Length(1, config.MaxMessageContentLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		message.Role = *req.Role
	}
	if req.Content != nil {
		message.Content = *req.Content
	}

	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}
	s.history.cache.Invalidate(ctx, message.ChatID)

	s.logger.Info("message updated", "id", message.ID, "chat_id", message.ChatID, "user_id", userID)

	return message, nil
}

// DeleteMessage removes a single message
func (s *messageService) DeleteMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	if err := s.authorizer.CanAccessMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}

	message, err := s.messageRepo.Delete(ctx, messageID)
	if err != nil {
		return nil, err
	}
	s.history.cache.Invalidate(ctx, message.ChatID)

	s.logger.Info("message deleted", "id", message.ID, "chat_id", message.ChatID, "user_id", userID)

	return message, nil
}
