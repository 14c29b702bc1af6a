package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

type voteKey struct {
	tenantID uuid.UUID
	userID   string
	date     string
	shiftID  string
}

func keyOf(k persistence.VoteKey) voteKey {
	return voteKey{tenantID: k.TenantID, userID: k.UserID, date: k.Date.Format("2006-01-02"), shiftID: k.ShiftID}
}

// MemoryRepository keeps votes in process memory. The map key plays the role
// of the unique index: a second insert for a key fails with ErrVoteDuplicate.
type MemoryRepository struct {
	mu    sync.RWMutex
	votes map[voteKey]persistence.VoteRecord
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{votes: make(map[voteKey]persistence.VoteRecord)}
}

func (r *MemoryRepository) FindVote(_ context.Context, key persistence.VoteKey) (persistence.VoteRecord, error) {
	if key.TenantID == uuid.Nil {
		return persistence.VoteRecord{}, persistence.ErrTenantRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.votes[keyOf(key)]
	if !ok {
		return persistence.VoteRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) InsertVote(_ context.Context, rec persistence.VoteRecord) (persistence.VoteRecord, error) {
	if rec.TenantID == uuid.Nil {
		return persistence.VoteRecord{}, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(persistence.VoteKey{TenantID: rec.TenantID, UserID: rec.UserID, Date: rec.Date, ShiftID: rec.ShiftID})
	if _, exists := r.votes[k]; exists {
		return persistence.VoteRecord{}, persistence.ErrVoteDuplicate
	}
	if rec.VoteID == uuid.Nil {
		rec.VoteID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.votes[k] = rec
	return rec, nil
}

func (r *MemoryRepository) UpdateChoice(_ context.Context, key persistence.VoteKey, choice string) (persistence.VoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(key)
	rec, ok := r.votes[k]
	if !ok {
		return persistence.VoteRecord{}, persistence.ErrNotFound
	}
	rec.Choice = choice
	rec.UpdatedAt = time.Now().UTC()
	r.votes[k] = rec
	return rec, nil
}

func (r *MemoryRepository) Tally(_ context.Context, tenantID uuid.UUID, date time.Time, shiftID string) (persistence.TallyRecord, error) {
	if tenantID == uuid.Nil {
		return persistence.TallyRecord{}, persistence.ErrTenantRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := date.Format("2006-01-02")
	var out persistence.TallyRecord
	for k, rec := range r.votes {
		if k.tenantID != tenantID || k.date != day || k.shiftID != shiftID {
			continue
		}
		switch rec.Choice {
		case "traditional":
			out.Traditional++
		case "alternative":
			out.Alternative++
		}
	}
	return out, nil
}
