package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// PostgresChatRepository implements repositories.ChatRepository
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewChatRepository creates a new chat repository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const chatColumns = "id, project_id, title, created_at, updated_at"

// Create creates a new chat
func (r *PostgresChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, chat.ProjectID, chat.Title).
		Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
			return fmt.Errorf("project %s: %w", chat.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

// GetByID retrieves a chat by ID
func (r *PostgresChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, chatColumns, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	chat, err := scanChat(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	return chat, nil
}

// ListByProject retrieves a project's chats, oldest first
func (r *PostgresChatRepository) ListByProject(ctx context.Context, projectID string, page models.Page) ([]models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3
	`, chatColumns, r.tables.Chats)

	return r.list(ctx, query, projectID, page.Skip, page.Limit)
}

// ListByOwner retrieves chats of every project the owner has
func (r *PostgresChatRepository) ListByOwner(ctx context.Context, ownerID string, page models.Page) ([]models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.project_id, c.title, c.created_at, c.updated_at
		FROM %s c
		JOIN %s p ON p.id = c.project_id
		WHERE p.owner_id = $1
		ORDER BY c.created_at, c.id
		OFFSET $2 LIMIT $3
	`, r.tables.Chats, r.tables.Projects)

	return r.list(ctx, query, ownerID, page.Skip, page.Limit)
}

// ListIDsByProject returns every chat ID in a project
func (r *PostgresChatRepository) ListIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE project_id = $1`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list chat ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect chat ids: %w", err)
	}
	return ids, nil
}

// Update writes the chat title
func (r *PostgresChatRepository) Update(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = clock_timestamp()
		WHERE id = $2
		RETURNING updated_at
	`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, chat.Title, chat.ID).Scan(&chat.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("chat %s: %w", chat.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update chat: %w", err)
	}

	return nil
}

// Delete removes a chat. Its messages are removed by ON DELETE CASCADE.
func (r *PostgresChatRepository) Delete(ctx context.Context, id string) (*models.Chat, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.tables.Chats, chatColumns)

	executor := GetExecutor(ctx, r.pool)
	chat, err := scanChat(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete chat: %w", err)
	}

	return chat, nil
}

func (r *PostgresChatRepository) list(ctx context.Context, query string, args ...any) ([]models.Chat, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, *chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}

func scanChat(row pgx.Row) (*models.Chat, error) {
	var chat models.Chat
	err := row.Scan(
		&chat.ID,
		&chat.ProjectID,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}
