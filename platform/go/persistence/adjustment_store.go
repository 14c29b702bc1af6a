package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AdjustmentRecord is a row of the external_adjustments table. The absolute pair
// and the percent pair are each either both set or both nil.
type AdjustmentRecord struct {
	AdjustmentID   uuid.UUID
	TenantID       uuid.UUID
	Date           time.Time
	ShiftID        string
	AddTraditional *int
	AddAlternative *int
	PctTraditional *float64
	PctAlternative *float64
	Note           string
	CreatedBy      string
	CreatedAt      time.Time
}

// AdjustmentStore persists external adjustments. Rows are append-only.
type AdjustmentStore struct {
	db *DB
}

// NewAdjustmentStore creates a store; assumes Bootstrap already created the table.
func NewAdjustmentStore(db *DB) *AdjustmentStore {
	if db == nil {
		panic("adjustment store requires db")
	}
	return &AdjustmentStore{db: db}
}

const adjustmentColumns = `adjustment_id, tenant_id, adj_date, shift_id, add_traditional, add_alternative, pct_traditional, pct_alternative, note, created_by, created_at`

// Insert appends an adjustment.
func (s *AdjustmentStore) Insert(ctx context.Context, rec AdjustmentRecord) (AdjustmentRecord, error) {
	if rec.AdjustmentID == uuid.Nil {
		rec.AdjustmentID = uuid.New()
	}

	var out AdjustmentRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanAdjustmentRecord(tx.QueryRow(ctx, `
            INSERT INTO external_adjustments (adjustment_id, tenant_id, adj_date, shift_id, add_traditional, add_alternative, pct_traditional, pct_alternative, note, created_by)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING `+adjustmentColumns,
			rec.AdjustmentID, rec.TenantID, rec.Date, rec.ShiftID,
			rec.AddTraditional, rec.AddAlternative, rec.PctTraditional, rec.PctAlternative,
			rec.Note, rec.CreatedBy))
		return err
	})
	return out, err
}

// ListForSlot returns every adjustment recorded for (date, shift) in insertion order.
func (s *AdjustmentStore) ListForSlot(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string) ([]AdjustmentRecord, error) {
	var out []AdjustmentRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
            SELECT `+adjustmentColumns+` FROM external_adjustments
            WHERE tenant_id = $1 AND adj_date = $2 AND shift_id = $3
            ORDER BY created_at, adjustment_id`,
			tenantID, date, shiftID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanAdjustmentRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

func scanAdjustmentRecord(row pgx.Row) (AdjustmentRecord, error) {
	var rec AdjustmentRecord
	if err := row.Scan(&rec.AdjustmentID, &rec.TenantID, &rec.Date, &rec.ShiftID,
		&rec.AddTraditional, &rec.AddAlternative, &rec.PctTraditional, &rec.PctAlternative,
		&rec.Note, &rec.CreatedBy, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdjustmentRecord{}, ErrNotFound
		}
		return AdjustmentRecord{}, err
	}
	return rec, nil
}
