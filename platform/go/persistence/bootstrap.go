package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/mealvote/database"
)

// Bootstrap creates the application schema (if missing) and applies the
// embedded DDL in file order inside a single transaction. Every statement is
// idempotent, so the helper is safe for CLI bootstrap, server start and tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}
	if strings.TrimSpace(schema) == "" {
		schema = DefaultSchema
	}

	files, err := sqlassets.SchemaFiles()
	if err != nil {
		return fmt.Errorf("list ddl: %w", err)
	}

	var statements []string
	for _, name := range files {
		contents, err := sqlassets.ReadSchema(name)
		if err != nil {
			return fmt.Errorf("read ddl %s: %w", name, err)
		}
		statements = append(statements, splitStatements(contents)...)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a DDL file on semicolons. The embedded files contain no
// function bodies, so a plain split is sufficient.
func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
