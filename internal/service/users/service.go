package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"chatprojects/internal/auth"
	"chatprojects/internal/config"
	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
	"chatprojects/internal/domain/services"
)

// errBadCredentials is returned for both unknown email and wrong password
var errBadCredentials = fmt.Errorf("%w: incorrect email or password", domain.ErrValidation)

// userService implements the UserService interface
type userService struct {
	userRepo   repositories.UserRepository
	hasher     auth.PasswordHasher
	issuer     auth.TokenIssuer
	verifier   auth.TokenVerifier
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	hasher auth.PasswordHasher,
	issuer auth.TokenIssuer,
	verifier auth.TokenVerifier,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.UserService {
	return &userService{
		userRepo:   userRepo,
		hasher:     hasher,
		issuer:     issuer,
		verifier:   verifier,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Register creates a new active user
func (s *userService) Register(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          req.Email,
		HashedPassword: digest,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "id", user.ID)

	return user, nil
}

// GetUser retrieves the requester's own account
func (s *userService) GetUser(ctx context.Context, requesterID, userID string) (*models.User, error) {
	if err := s.authorizer.CanAccessUser(ctx, requesterID, userID); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateUser changes email, password and/or active flag
func (s *userService) UpdateUser(ctx context.Context, requesterID, userID string, req *services.UpdateUserRequest) (*models.User, error) {
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.CanAccessUser(ctx, requesterID, userID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil && *req.Password != "" {
		digest, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = digest
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		"id", user.ID,
		"password_changed", req.Password != nil && *req.Password != "",
		"is_active", user.IsActive,
	)

	return user, nil
}

// Login verifies credentials and issues an access token
func (s *userService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.logger.Debug("login rejected", "user_id", user.ID, "reason", "password mismatch")
		return nil, errBadCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}

	token, err := s.issuer.IssueToken(user.ID, 0)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "id", user.ID)

	return &models.Token{AccessToken: token, TokenType: "bearer"}, nil
}

// CurrentUser resolves a bearer token to its active user
func (s *userService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.verifier.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.GetUserID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}

	return user, nil
}

func validateCreateRequest(req *services.CreateUserRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email,
			validation.Required,
			validation.Length(3, config.MaxEmailLength),
			is.EmailFormat,
		),
		validation.Field(&req.Password,
			validation.Required,
			validation.Length(config.MinPasswordLength, config.MaxPasswordLength),
		),
	)
}

func validateUpdateRequest(req *services.UpdateUserRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email,
			validation.NilOrNotEmpty,
			validation.Length(3, config.MaxEmailLength),
			is.EmailFormat,
		),
		validation.Field(&req.Password,
			validation.Length(config.MinPasswordLength, config.MaxPasswordLength),
		),
	)
}
