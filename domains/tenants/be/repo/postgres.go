package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

// PostgresRepository implements the tenant repository on the shared persistence layer.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) List(ctx context.Context) ([]service.Tenant, error) {
	rows, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	tenants := make([]service.Tenant, 0, len(rows))
	for _, rec := range rows {
		tenants = append(tenants, toServiceTenant(rec))
	}
	return tenants, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return service.Tenant{}, mapError(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (service.Tenant, error) {
	rec, err := r.store.GetBySlug(ctx, slug)
	if err != nil {
		return service.Tenant{}, mapError(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	rec, err := r.store.Upsert(ctx, toRecord(t))
	if err != nil {
		return service.Tenant{}, mapError(err)
	}
	return toServiceTenant(rec), nil
}

func toRecord(t service.Tenant) persistence.TenantRecord {
	return persistence.TenantRecord{
		TenantID:           t.ID,
		Slug:               t.Slug,
		Name:               t.Name,
		Status:             string(t.Status),
		MaintenanceActive:  t.Maintenance.Active,
		MaintenanceMessage: t.Maintenance.Message,
		MaintenanceUntil:   t.Maintenance.Until,
	}
}

func toServiceTenant(rec persistence.TenantRecord) service.Tenant {
	return service.Tenant{
		ID:     rec.TenantID,
		Slug:   rec.Slug,
		Name:   rec.Name,
		Status: tenant.ParseStatus(rec.Status),
		Maintenance: tenant.Maintenance{
			Active:  rec.MaintenanceActive,
			Message: rec.MaintenanceMessage,
			Until:   rec.MaintenanceUntil,
		},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return service.ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return service.ErrConflictSlug
	default:
		return err
	}
}

var _ service.Repository = (*PostgresRepository)(nil)
