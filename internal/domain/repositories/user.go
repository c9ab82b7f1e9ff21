package repositories

import (
	"context"

	"chatprojects/internal/domain/models"
)

// UserRepository defines data access operations for users
type UserRepository interface {
	// Create inserts a user and fills in ID and timestamps.
	// Returns *domain.ConflictError if the email is already registered.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns domain.ErrNotFound if the user doesn't exist
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail matches case-insensitively.
	// Returns domain.ErrNotFound if no user has this email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update writes email, hashed password, is_active and updated_at
	Update(ctx context.Context, user *models.User) error
}
