package repo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// MemoryRepository keeps suggestions in process memory, for tests and STORAGE=memory.
type MemoryRepository struct {
	mu          sync.Mutex
	suggestions map[uuid.UUID]persistence.SuggestionRecord
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{suggestions: make(map[uuid.UUID]persistence.SuggestionRecord)}
}

func (r *MemoryRepository) Create(_ context.Context, rec persistence.SuggestionRecord) (persistence.SuggestionRecord, error) {
	if rec.TenantID == uuid.Nil {
		return persistence.SuggestionRecord{}, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.SuggestionID == uuid.Nil {
		rec.SuggestionID = uuid.New()
	}
	rec.VotesCount = 0
	rec.Voters = []string{}
	rec.CreatedAt = time.Now().UTC()
	r.suggestions[rec.SuggestionID] = rec
	return rec, nil
}

func (r *MemoryRepository) Get(_ context.Context, tenantID, suggestionID uuid.UUID) (persistence.SuggestionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.suggestions[suggestionID]
	if !ok || rec.TenantID != tenantID {
		return persistence.SuggestionRecord{}, persistence.ErrNotFound
	}
	rec.Voters = slices.Clone(rec.Voters)
	return rec, nil
}

func (r *MemoryRepository) List(_ context.Context, tenantID uuid.UUID) ([]persistence.SuggestionRecord, error) {
	if tenantID == uuid.Nil {
		return nil, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []persistence.SuggestionRecord
	for _, rec := range r.suggestions {
		if rec.TenantID == tenantID {
			rec.Voters = slices.Clone(rec.Voters)
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VotesCount != out[j].VotesCount {
			return out[i].VotesCount > out[j].VotesCount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) AddVoter(_ context.Context, tenantID, suggestionID uuid.UUID, userID string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.suggestions[suggestionID]
	if !ok || rec.TenantID != tenantID {
		return 0, false, persistence.ErrNotFound
	}
	if slices.Contains(rec.Voters, userID) {
		return rec.VotesCount, false, nil
	}
	rec.Voters = append(rec.Voters, userID)
	rec.VotesCount++
	r.suggestions[suggestionID] = rec
	return rec.VotesCount, true, nil
}
