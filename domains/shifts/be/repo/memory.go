package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

type shiftKey struct {
	tenantID uuid.UUID
	shiftID  string
}

// MemoryRepository keeps shifts in process memory, for tests and STORAGE=memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	shifts map[shiftKey]persistence.ShiftRecord
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{shifts: make(map[shiftKey]persistence.ShiftRecord)}
}

func (r *MemoryRepository) Get(_ context.Context, tenantID uuid.UUID, shiftID string) (persistence.ShiftRecord, error) {
	if tenantID == uuid.Nil {
		return persistence.ShiftRecord{}, persistence.ErrTenantRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.shifts[shiftKey{tenantID, shiftID}]
	if !ok {
		return persistence.ShiftRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) List(_ context.Context, tenantID uuid.UUID) ([]persistence.ShiftRecord, error) {
	if tenantID == uuid.Nil {
		return nil, persistence.ErrTenantRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []persistence.ShiftRecord
	for key, rec := range r.shifts {
		if key.tenantID == tenantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ShiftID < out[j].ShiftID
	})
	return out, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, rec persistence.ShiftRecord) (persistence.ShiftRecord, error) {
	if rec.TenantID == uuid.Nil {
		return persistence.ShiftRecord{}, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := shiftKey{rec.TenantID, rec.ShiftID}
	if existing, ok := r.shifts[key]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.shifts[key] = rec
	return rec, nil
}
