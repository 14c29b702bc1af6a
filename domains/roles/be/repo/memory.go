package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// MemoryRepository keeps roles in process memory, for tests and STORAGE=memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]persistence.RoleRecord
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{roles: make(map[uuid.UUID]persistence.RoleRecord)}
}

func (r *MemoryRepository) List(_ context.Context, tenantID uuid.UUID) ([]persistence.RoleRecord, error) {
	if tenantID == uuid.Nil {
		return nil, persistence.ErrTenantRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []persistence.RoleRecord
	for _, rec := range r.roles {
		if rec.TenantID == tenantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, tenantID, roleID uuid.UUID) (persistence.RoleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.roles[roleID]
	if !ok || rec.TenantID != tenantID {
		return persistence.RoleRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) Create(_ context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error) {
	if rec.TenantID == uuid.Nil {
		return persistence.RoleRecord{}, persistence.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Name = strings.TrimSpace(rec.Name)
	rec.Code = strings.ToLower(strings.TrimSpace(rec.Code))
	for _, existing := range r.roles {
		if existing.TenantID == rec.TenantID && existing.Code == rec.Code {
			return persistence.RoleRecord{}, persistence.ErrConflict
		}
	}
	if rec.RoleID == uuid.Nil {
		rec.RoleID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.roles[rec.RoleID] = rec
	return rec, nil
}

func (r *MemoryRepository) Update(_ context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.roles[rec.RoleID]
	if !ok || existing.TenantID != rec.TenantID {
		return persistence.RoleRecord{}, persistence.ErrNotFound
	}
	rec.Code = existing.Code
	rec.Name = strings.TrimSpace(rec.Name)
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	r.roles[rec.RoleID] = rec
	return rec, nil
}
