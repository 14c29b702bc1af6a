package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Repository defines the persistence operations required by the adjustments service.
// Adjustments are append-only.
type Repository interface {
	Insert(ctx context.Context, rec persistence.AdjustmentRecord) (persistence.AdjustmentRecord, error)
	ListForSlot(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string) ([]persistence.AdjustmentRecord, error)
}

// NewPostgresRepository returns the shared AdjustmentStore, which already satisfies Repository.
func NewPostgresRepository(store *persistence.AdjustmentStore) Repository {
	if store == nil {
		panic("adjustment store is required")
	}
	return store
}
