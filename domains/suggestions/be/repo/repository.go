package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Repository defines the persistence operations required by the suggestions service.
// AddVoter must add the voter and bump the counter atomically.
type Repository interface {
	Create(ctx context.Context, rec persistence.SuggestionRecord) (persistence.SuggestionRecord, error)
	Get(ctx context.Context, tenantID, suggestionID uuid.UUID) (persistence.SuggestionRecord, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]persistence.SuggestionRecord, error)
	AddVoter(ctx context.Context, tenantID, suggestionID uuid.UUID, userID string) (count int, applied bool, err error)
}

// NewPostgresRepository returns the shared SuggestionStore, which already satisfies Repository.
func NewPostgresRepository(store *persistence.SuggestionStore) Repository {
	if store == nil {
		panic("suggestion store is required")
	}
	return store
}
