package projects

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
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	chatRepo    repositories.ChatRepository
	authorizer  services.ResourceAuthorizer
	history     cache.HistoryCache
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	chatRepo repositories.ChatRepository,
	authorizer services.ResourceAuthorizer,
	history cache.HistoryCache,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		chatRepo:    chatRepo,
		authorizer:  authorizer,
		history:     history,
		logger:      logger,
	}
}

// CreateProject creates a new project
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project := &models.Project{
		OwnerID:          req.OwnerID,
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		BaseInstructions: req.BaseInstructions,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"name", project.Name,
		"owner_id", req.OwnerID,
	)

	return project, nil
}

// GetProject retrieves a project the user owns
func (s *projectService) GetProject(ctx context.Context, userID, id string) (*models.Project, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects retrieves the user's projects
func (s *projectService) ListProjects(ctx context.Context, userID string, page models.Page) ([]models.Project, error) {
	return s.projectRepo.ListByOwner(ctx, userID, page)
}

// UpdateProject applies a partial update
func (s *projectService) UpdateProject(ctx context.Context, userID, id string, req *services.UpdateProjectRequest) (*models.Project, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessProject(ctx, userID, id); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClearDescription {
		project.Description = nil
	} else if req.Description != nil {
		project.Description = req.Description
	}
	if req.BaseInstructions != nil {
		project.BaseInstructions = *req.BaseInstructions
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project updated",
		"id", project.ID,
		"name", project.Name,
		"owner_id", userID,
	)

	return project, nil
}

// DeleteProject deletes a project together with its chats and messages
func (s *projectService) DeleteProject(ctx context.Context, userID, id string) (*models.Project, error) {
	if err := s.authorizer.CanAccessProject(ctx, userID, id); err != nil {
		return nil, err
	}

	// Collect chat IDs before the cascade removes them
	chatIDs, err := s.chatRepo.ListIDsByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.history.Invalidate(ctx, chatIDs...)

	s.logger.Info("project deleted",
		"id", id,
		"owner_id", userID,
		"chats", len(chatIDs),
	)

	return project, nil
}

func validateCreateRequest(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
			validation.By(notBlank),
		),
	)
}

func validateUpdateRequest(req *services.UpdateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxProjectNameLength),
			validation.By(notBlank),
		),
	)
}

// notBlank rejects names that are only whitespace
func notBlank(value interface{}) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case *string:
		if v == nil {
			return nil
		}
		name = *v
	default:
		return fmt.Errorf("name must be a string")
	}

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}
