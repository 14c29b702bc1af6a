package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the schema holding every mealvote table.
const DefaultSchema = "mealvote"

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// DB wraps a pgx pool so every statement runs in a transaction whose search_path
// points at the application schema and, for tenant-owned tables, whose
// app.tenant_id setting scopes the row-level security policies.
type DB struct {
	pool   txBeginner
	schema string
}

// DBConfig configures NewDB.
type DBConfig struct {
	Pool   *pgxpool.Pool
	Schema string
}

// NewDB wraps cfg.Pool. An empty schema selects DefaultSchema.
func NewDB(cfg DBConfig) *DB {
	if cfg.Pool == nil {
		panic("DB requires pool")
	}

	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = DefaultSchema
	}
	return &DB{pool: cfg.Pool, schema: schema}
}

// Schema returns the application schema name.
func (db *DB) Schema() string { return db.schema }

// WithAdmin executes fn inside a transaction without tenant scoping. Only the
// tenant registry uses it.
func (db *DB) WithAdmin(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, db.schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// WithTenant executes fn inside a transaction scoped to tenantID.
func (db *DB) WithTenant(ctx context.Context, tenantID uuid.UUID, fn func(tx pgx.Tx) error) error {
	if tenantID == uuid.Nil {
		return ErrTenantRequired
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true), set_config('app.tenant_id', $2, true)`, db.schema, tenantID.String()); err != nil {
		return fmt.Errorf("scope tenant: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
