package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// MemoryRepository keeps adjustments in insertion order, for tests and STORAGE=memory.
type MemoryRepository struct {
	mu   sync.Mutex
	rows []persistence.AdjustmentRecord
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, rec persistence.AdjustmentRecord) (persistence.AdjustmentRecord, error) {
	if rec.TenantID == uuid.Nil {
		return persistence.AdjustmentRecord{}, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.AdjustmentID == uuid.Nil {
		rec.AdjustmentID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()
	r.rows = append(r.rows, rec)
	return rec, nil
}

func (r *MemoryRepository) ListForSlot(_ context.Context, tenantID uuid.UUID, date time.Time, shiftID string) ([]persistence.AdjustmentRecord, error) {
	if tenantID == uuid.Nil {
		return nil, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []persistence.AdjustmentRecord
	for _, rec := range r.rows {
		if rec.TenantID == tenantID && rec.ShiftID == shiftID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}
