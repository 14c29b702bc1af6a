package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores groups every table store sharing one DB.
type Stores struct {
	DB          *DB
	Tenants     *TenantStore
	Roles       *RoleStore
	Shifts      *ShiftStore
	Votes       *VoteStore
	Suggestions *SuggestionStore
	Adjustments *AdjustmentStore
}

// NewStores wraps db with one store per table.
func NewStores(db *DB) Stores {
	return Stores{
		DB:          db,
		Tenants:     NewTenantStore(db),
		Roles:       NewRoleStore(db),
		Shifts:      NewShiftStore(db),
		Votes:       NewVoteStore(db),
		Suggestions: NewSuggestionStore(db),
		Adjustments: NewAdjustmentStore(db),
	}
}

// OpenStores bootstraps schema on pool and returns the stores bound to it.
func OpenStores(ctx context.Context, pool *pgxpool.Pool, schema string) (Stores, error) {
	if err := Bootstrap(ctx, pool, schema); err != nil {
		return Stores{}, fmt.Errorf("bootstrap schema: %w", err)
	}
	return NewStores(NewDB(DBConfig{Pool: pool, Schema: schema})), nil
}
