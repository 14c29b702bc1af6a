package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ShiftRecord is a row of the shifts table.
type ShiftRecord struct {
	TenantID   uuid.UUID
	ShiftID    string
	Name       string
	CutoffTime string
	Timezone   string
	Schedule   *string
	Order      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ShiftStore persists tenant shift configuration.
type ShiftStore struct {
	db *DB
}

// NewShiftStore creates a store; assumes Bootstrap already created the table.
func NewShiftStore(db *DB) *ShiftStore {
	if db == nil {
		panic("shift store requires db")
	}
	return &ShiftStore{db: db}
}

const shiftColumns = `tenant_id, shift_id, name, cutoff_time, timezone, schedule, sort_order, created_at, updated_at`

// Get returns one shift of the tenant.
func (s *ShiftStore) Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (ShiftRecord, error) {
	var out ShiftRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanShiftRecord(tx.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE tenant_id = $1 AND shift_id = $2`, tenantID, shiftID))
		return err
	})
	return out, err
}

// List returns the tenant's shifts in display order.
func (s *ShiftStore) List(ctx context.Context, tenantID uuid.UUID) ([]ShiftRecord, error) {
	var out []ShiftRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE tenant_id = $1 ORDER BY sort_order, shift_id`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanShiftRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

// Upsert creates the shift or replaces its configuration.
func (s *ShiftStore) Upsert(ctx context.Context, rec ShiftRecord) (ShiftRecord, error) {
	var out ShiftRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO shifts (tenant_id, shift_id, name, cutoff_time, timezone, schedule, sort_order)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (tenant_id, shift_id) DO UPDATE SET
                name = EXCLUDED.name,
                cutoff_time = EXCLUDED.cutoff_time,
                timezone = EXCLUDED.timezone,
                schedule = EXCLUDED.schedule,
                sort_order = EXCLUDED.sort_order,
                updated_at = now()
            RETURNING `+shiftColumns,
			rec.TenantID, rec.ShiftID, rec.Name, rec.CutoffTime, rec.Timezone, rec.Schedule, rec.Order,
		)
		var err error
		out, err = scanShiftRecord(row)
		return err
	})
	return out, err
}

func scanShiftRecord(row pgx.Row) (ShiftRecord, error) {
	var rec ShiftRecord
	if err := row.Scan(&rec.TenantID, &rec.ShiftID, &rec.Name, &rec.CutoffTime, &rec.Timezone, &rec.Schedule, &rec.Order, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShiftRecord{}, ErrNotFound
		}
		return ShiftRecord{}, err
	}
	return rec, nil
}
