package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Repository defines the persistence operations required by the shifts service.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (persistence.ShiftRecord, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]persistence.ShiftRecord, error)
	Upsert(ctx context.Context, rec persistence.ShiftRecord) (persistence.ShiftRecord, error)
}

type postgresRepository struct {
	store *persistence.ShiftStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ShiftStore) Repository {
	if store == nil {
		panic("shift store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (persistence.ShiftRecord, error) {
	return r.store.Get(ctx, tenantID, shiftID)
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID) ([]persistence.ShiftRecord, error) {
	return r.store.List(ctx, tenantID)
}

func (r *postgresRepository) Upsert(ctx context.Context, rec persistence.ShiftRecord) (persistence.ShiftRecord, error) {
	return r.store.Upsert(ctx, rec)
}
