package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Repository defines the persistence operations required by the roles service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]persistence.RoleRecord, error)
	Get(ctx context.Context, tenantID, roleID uuid.UUID) (persistence.RoleRecord, error)
	Create(ctx context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error)
	Update(ctx context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error)
}

type postgresRepository struct {
	store *persistence.RoleStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.RoleStore) Repository {
	if store == nil {
		panic("role store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID) ([]persistence.RoleRecord, error) {
	return r.store.List(ctx, tenantID)
}

func (r *postgresRepository) Get(ctx context.Context, tenantID, roleID uuid.UUID) (persistence.RoleRecord, error) {
	return r.store.Get(ctx, tenantID, roleID)
}

func (r *postgresRepository) Create(ctx context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error) {
	return r.store.Create(ctx, rec)
}

func (r *postgresRepository) Update(ctx context.Context, rec persistence.RoleRecord) (persistence.RoleRecord, error) {
	return r.store.Update(ctx, rec)
}

// RoleSource adapts a Repository to the permission resolver. Every call reads
// the repository, so role edits apply to the next request.
type RoleSource struct {
	repo Repository
}

// NewRoleSource wraps r.
func NewRoleSource(r Repository) *RoleSource {
	if r == nil {
		panic("role repository is required")
	}
	return &RoleSource{repo: r}
}

// ListRoles implements authz.RoleSource.
func (s *RoleSource) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]authz.RoleDefinition, error) {
	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]authz.RoleDefinition, 0, len(records))
	for _, rec := range records {
		out = append(out, ToDefinition(rec))
	}
	return out, nil
}

// ToDefinition maps a stored role to its definition.
func ToDefinition(rec persistence.RoleRecord) authz.RoleDefinition {
	return authz.RoleDefinition{
		ID:       rec.RoleID,
		TenantID: rec.TenantID,
		Name:     rec.Name,
		Code:     rec.Code,
		Order:    rec.Order,
		Permissions: authz.CapabilitySet{
			CanVote:        rec.CanVote,
			KitchenView:    rec.KitchenView,
			KitchenManage:  rec.KitchenManage,
			ViewStatistics: rec.ViewStatistics,
			ManageShifts:   rec.ManageShifts,
			IsAdmin:        rec.IsAdmin,
		},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// FromDefinition maps a definition onto the stored columns.
func FromDefinition(def authz.RoleDefinition) persistence.RoleRecord {
	return persistence.RoleRecord{
		RoleID:         def.ID,
		TenantID:       def.TenantID,
		Name:           def.Name,
		Code:           def.Code,
		Order:          def.Order,
		CanVote:        def.Permissions.CanVote,
		KitchenView:    def.Permissions.KitchenView,
		KitchenManage:  def.Permissions.KitchenManage,
		ViewStatistics: def.Permissions.ViewStatistics,
		ManageShifts:   def.Permissions.ManageShifts,
		IsAdmin:        def.Permissions.IsAdmin,
	}
}
