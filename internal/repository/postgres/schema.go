package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the given table prefix
func Schema(prefix string) string {
	return strings.ReplaceAll(schemaSQL, "{{prefix}}", prefix)
}

// EnsureSchema creates any missing tables and indexes. It is idempotent and
// does not alter existing tables.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	if _, err := pool.Exec(ctx, Schema(prefix)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// DropSchema removes every table for the prefix. Used by the seed tool's reset.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	tables := NewTableNames(prefix)
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s, %s, %s, %s CASCADE",
		tables.Messages, tables.Chats, tables.Projects, tables.Users)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
