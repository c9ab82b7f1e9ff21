package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// PostgresUserRepository implements repositories.UserRepository
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const userColumns = "id, email, hashed_password, is_active, created_at, updated_at"

// Create inserts a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, hashed_password, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		user.Email,
		user.HashedPassword,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return r.emailConflict(ctx, user.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)

	user, err := r.scanOne(ctx, query, id)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(email) = lower($1)`, userColumns, r.tables.Users)

	user, err := r.scanOne(ctx, query, email)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user with email: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Update writes the mutable user fields
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET email = $1, hashed_password = $2, is_active = $3, updated_at = clock_timestamp()
		WHERE id = $4
		RETURNING updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		user.Email,
		user.HashedPassword,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return r.emailConflict(ctx, user.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// emailConflict builds the conflict error for an email that is already taken
func (r *PostgresUserRepository) emailConflict(ctx context.Context, email string) error {
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		// Fallback to generic conflict error if we can't find the existing user
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	return &domain.ConflictError{
		Message:      "The user with this email already exists in the system.",
		ResourceType: "user",
		ResourceID:   existing.ID,
	}
}
