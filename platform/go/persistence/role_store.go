package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoleRecord is a row of the roles table. Every permission column is NOT NULL.
type RoleRecord struct {
	RoleID         uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Code           string
	Order          int
	CanVote        bool
	KitchenView    bool
	KitchenManage  bool
	ViewStatistics bool
	ManageShifts   bool
	IsAdmin        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RoleStore persists tenant role definitions.
type RoleStore struct {
	db *DB
}

// NewRoleStore creates a store; assumes Bootstrap already created the table.
func NewRoleStore(db *DB) *RoleStore {
	if db == nil {
		panic("role store requires db")
	}
	return &RoleStore{db: db}
}

const roleColumns = `role_id, tenant_id, name, code, sort_order, can_vote, kitchen_view, kitchen_manage, view_statistics, manage_shifts, is_admin, created_at, updated_at`

// List returns the tenant's roles ordered by sort order then code.
func (s *RoleStore) List(ctx context.Context, tenantID uuid.UUID) ([]RoleRecord, error) {
	var out []RoleRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 ORDER BY sort_order, code`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRoleRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

// Get returns one role of the tenant.
func (s *RoleStore) Get(ctx context.Context, tenantID, roleID uuid.UUID) (RoleRecord, error) {
	var out RoleRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanRoleRecord(tx.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND role_id = $2`, tenantID, roleID))
		return err
	})
	return out, err
}

// Create inserts a role. A duplicate code within the tenant yields ErrConflict.
func (s *RoleStore) Create(ctx context.Context, rec RoleRecord) (RoleRecord, error) {
	if rec.RoleID == uuid.Nil {
		rec.RoleID = uuid.New()
	}

	var out RoleRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO roles (role_id, tenant_id, name, code, sort_order, can_vote, kitchen_view, kitchen_manage, view_statistics, manage_shifts, is_admin)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            RETURNING `+roleColumns,
			rec.RoleID, rec.TenantID, strings.TrimSpace(rec.Name), strings.ToLower(strings.TrimSpace(rec.Code)), rec.Order,
			rec.CanVote, rec.KitchenView, rec.KitchenManage, rec.ViewStatistics, rec.ManageShifts, rec.IsAdmin,
		)
		var err error
		out, err = scanRoleRecord(row)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return RoleRecord{}, ErrConflict
		}
		return RoleRecord{}, err
	}
	return out, nil
}

// Update overwrites a role's name, order and full permission set.
func (s *RoleStore) Update(ctx context.Context, rec RoleRecord) (RoleRecord, error) {
	var out RoleRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            UPDATE roles SET
                name = $3, sort_order = $4,
                can_vote = $5, kitchen_view = $6, kitchen_manage = $7,
                view_statistics = $8, manage_shifts = $9, is_admin = $10,
                updated_at = now()
            WHERE tenant_id = $1 AND role_id = $2
            RETURNING `+roleColumns,
			rec.TenantID, rec.RoleID, strings.TrimSpace(rec.Name), rec.Order,
			rec.CanVote, rec.KitchenView, rec.KitchenManage, rec.ViewStatistics, rec.ManageShifts, rec.IsAdmin,
		)
		var err error
		out, err = scanRoleRecord(row)
		return err
	})
	return out, err
}

func scanRoleRecord(row pgx.Row) (RoleRecord, error) {
	var rec RoleRecord
	if err := row.Scan(&rec.RoleID, &rec.TenantID, &rec.Name, &rec.Code, &rec.Order,
		&rec.CanVote, &rec.KitchenView, &rec.KitchenManage, &rec.ViewStatistics, &rec.ManageShifts, &rec.IsAdmin,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleRecord{}, ErrNotFound
		}
		return RoleRecord{}, err
	}
	return rec, nil
}
