package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	"chatprojects/internal/domain/repositories"
)

// maxSequenceAttempts bounds retries when two inserts race for the same sequence
const maxSequenceAttempts = 3

// PostgresMessageRepository implements repositories.MessageRepository
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const messageColumns = "id, chat_id, sequence, role, content, created_at, updated_at"

// Create appends a message with the next sequence number of its chat.
// A concurrent append that takes the same number trips UNIQUE(chat_id, sequence)
// and the insert is repeated with a fresh MAX.
func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (chat_id, sequence, role, content)
		SELECT $1, COALESCE(MAX(sequence), 0) + 1, $2, $3
		FROM %[1]s
		WHERE chat_id = $1
		RETURNING id, sequence, created_at, updated_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)

	var err error
	for attempt := 1; attempt <= maxSequenceAttempts; attempt++ {
		err = executor.QueryRow(ctx, query, message.ChatID, message.Role, message.Content).
			Scan(&message.ID, &message.Sequence, &message.CreatedAt, &message.UpdatedAt)
		if err == nil {
			return nil
		}
		// Inside a transaction the failed statement aborts the tx, so don't loop
		if !IsPgDuplicateError(err) || repositories.TxFromContext(ctx) != nil {
			break
		}
		if r.logger != nil {
			r.logger.Debug("message sequence collision, retrying", "chat_id", message.ChatID, "attempt", attempt)
		}
	}

	if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
		return fmt.Errorf("chat %s: %w", message.ChatID, domain.ErrNotFound)
	}
	return fmt.Errorf("create message: %w", err)
}

// GetByID retrieves a message by ID
func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	message, err := scanMessage(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return message, nil
}

// ListByChat returns a chat's full history in append order. sequence is
// assigned per chat at insert, so a clock step between inserts cannot
// reorder the history.
func (r *PostgresMessageRepository) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE chat_id = $1
		ORDER BY sequence
	`, messageColumns, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// Update writes role and content
func (r *PostgresMessageRepository) Update(ctx context.Context, message *models.Message) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $1, content = $2, updated_at = clock_timestamp()
		WHERE id = $3
		RETURNING updated_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, message.Role, message.Content, message.ID).Scan(&message.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("message %s: %w", message.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update message: %w", err)
	}

	return nil
}

// Delete removes a single message
func (r *PostgresMessageRepository) Delete(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.tables.Messages, messageColumns)

	executor := GetExecutor(ctx, r.pool)
	message, err := scanMessage(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete message: %w", err)
	}

	return message, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	err := row.Scan(
		&message.ID,
		&message.ChatID,
		&message.Sequence,
		&message.Role,
		&message.Content,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
