package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantRecord is a row of the tenant registry.
type TenantRecord struct {
	TenantID           uuid.UUID
	Slug               string
	Name               string
	Status             string
	MaintenanceActive  bool
	MaintenanceMessage string
	MaintenanceUntil   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TenantStore reads and writes the tenant registry.
type TenantStore struct {
	db *DB
}

// NewTenantStore creates a store; assumes Bootstrap already created the table.
func NewTenantStore(db *DB) *TenantStore {
	if db == nil {
		panic("tenant store requires db")
	}
	return &TenantStore{db: db}
}

const tenantColumns = `tenant_id, slug, name, status, maintenance_active, maintenance_message, maintenance_until, created_at, updated_at`

// Upsert inserts the tenant or refreshes its mutable fields when the id already exists.
func (s *TenantStore) Upsert(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.TenantID == uuid.Nil {
		return TenantRecord{}, ErrTenantRequired
	}

	var out TenantRecord
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO tenants (tenant_id, slug, name, status, maintenance_active, maintenance_message, maintenance_until)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (tenant_id) DO UPDATE SET
                slug = EXCLUDED.slug,
                name = EXCLUDED.name,
                status = EXCLUDED.status,
                maintenance_active = EXCLUDED.maintenance_active,
                maintenance_message = EXCLUDED.maintenance_message,
                maintenance_until = EXCLUDED.maintenance_until,
                updated_at = now()
            RETURNING `+tenantColumns,
			rec.TenantID, strings.ToLower(strings.TrimSpace(rec.Slug)), strings.TrimSpace(rec.Name), rec.Status,
			rec.MaintenanceActive, rec.MaintenanceMessage, rec.MaintenanceUntil,
		)
		var err error
		out, err = scanTenantRecord(row)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return TenantRecord{}, ErrConflict
		}
		return TenantRecord{}, err
	}
	return out, nil
}

// GetBySlug returns the tenant registered under slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (TenantRecord, error) {
	var out TenantRecord
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenantRecord(tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, strings.ToLower(strings.TrimSpace(slug))))
		return err
	})
	return out, err
}

// Get returns the tenant with the given id.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	var out TenantRecord
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenantRecord(tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE tenant_id = $1`, id))
		return err
	})
	return out, err
}

// List returns every tenant ordered by slug.
func (s *TenantStore) List(ctx context.Context) ([]TenantRecord, error) {
	var out []TenantRecord
	err := s.db.WithAdmin(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY slug`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanTenantRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	if err := row.Scan(&rec.TenantID, &rec.Slug, &rec.Name, &rec.Status, &rec.MaintenanceActive, &rec.MaintenanceMessage, &rec.MaintenanceUntil, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}
