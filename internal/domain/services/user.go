package services

import (
	"context"

	"chatprojects/internal/domain/models"
)

// CreateUserRequest is the self-registration payload
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries optional changes; nil fields are left alone
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserService defines business logic for accounts and sessions
type UserService interface {
	// Register creates an active user. Duplicate email (any case) is a conflict.
	Register(ctx context.Context, req *CreateUserRequest) (*models.User, error)

	// GetUser returns the user if requesterID is that user
	GetUser(ctx context.Context, requesterID, userID string) (*models.User, error)

	// UpdateUser applies req to the requester's own account
	UpdateUser(ctx context.Context, requesterID, userID string, req *UpdateUserRequest) (*models.User, error)

	// Login checks credentials and issues a bearer token
	Login(ctx context.Context, email, password string) (*models.Token, error)

	// CurrentUser resolves a bearer token to an active user.
	// Invalid token: domain.ErrUnauthorized. Unknown subject: domain.ErrNotFound.
	// Inactive account: domain.ErrInactiveUser.
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}
