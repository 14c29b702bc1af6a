package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the shared pgx pool. The env tags let callers embed it in
// their own env-parsed configuration under a prefix.
type PoolConfig struct {
	ConnString       string
	ApplicationName  string        `env:"APPLICATION_NAME" envDefault:"mealvote"`
	MaxConns         int32         `env:"MAX_CONNS"`
	MinConns         int32         `env:"MIN_CONNS"`
	MaxConnLifetime  time.Duration `env:"MAX_CONN_LIFETIME"`
	MaxConnIdleTime  time.Duration `env:"MAX_CONN_IDLE_TIME"`
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT"`
}

// NewPool opens the pool and pings it, so a bad DSN fails at startup rather
// than on the first vote.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	if strings.TrimSpace(cfg.ConnString) == "" {
		return nil, errors.New("database connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	params := poolConfig.ConnConfig.RuntimeParams
	if name := strings.TrimSpace(cfg.ApplicationName); name != "" {
		params["application_name"] = name
	}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// ClosePool is nil-safe.
func ClosePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
