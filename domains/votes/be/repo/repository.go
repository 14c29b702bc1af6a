package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Repository defines the persistence operations required by the vote ledger.
// InsertVote must report a concurrent insert for the same key as
// persistence.ErrVoteDuplicate.
type Repository interface {
	FindVote(ctx context.Context, key persistence.VoteKey) (persistence.VoteRecord, error)
	InsertVote(ctx context.Context, rec persistence.VoteRecord) (persistence.VoteRecord, error)
	UpdateChoice(ctx context.Context, key persistence.VoteKey, choice string) (persistence.VoteRecord, error)
	Tally(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string) (persistence.TallyRecord, error)
}

// NewPostgresRepository returns the shared VoteStore, which already satisfies Repository.
func NewPostgresRepository(store *persistence.VoteStore) Repository {
	if store == nil {
		panic("vote store is required")
	}
	return store
}
