package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SuggestionRecord is a row of the suggestions table.
type SuggestionRecord struct {
	SuggestionID uuid.UUID
	TenantID     uuid.UUID
	Title        string
	VotesCount   int
	Voters       []string
	CreatedBy    string
	CreatedAt    time.Time
}

// SuggestionStore persists meal suggestions and their voter sets.
type SuggestionStore struct {
	db *DB
}

// NewSuggestionStore creates a store; assumes Bootstrap already created the table.
func NewSuggestionStore(db *DB) *SuggestionStore {
	if db == nil {
		panic("suggestion store requires db")
	}
	return &SuggestionStore{db: db}
}

const suggestionColumns = `suggestion_id, tenant_id, title, votes_count, voters, created_by, created_at`

// Create inserts a suggestion with an empty voter set.
func (s *SuggestionStore) Create(ctx context.Context, rec SuggestionRecord) (SuggestionRecord, error) {
	if rec.SuggestionID == uuid.Nil {
		rec.SuggestionID = uuid.New()
	}

	var out SuggestionRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanSuggestionRecord(tx.QueryRow(ctx, `
            INSERT INTO suggestions (suggestion_id, tenant_id, title, created_by)
            VALUES ($1, $2, $3, $4)
            RETURNING `+suggestionColumns,
			rec.SuggestionID, rec.TenantID, rec.Title, rec.CreatedBy))
		return err
	})
	return out, err
}

// Get returns one suggestion of the tenant.
func (s *SuggestionStore) Get(ctx context.Context, tenantID, suggestionID uuid.UUID) (SuggestionRecord, error) {
	var out SuggestionRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanSuggestionRecord(tx.QueryRow(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE tenant_id = $1 AND suggestion_id = $2`, tenantID, suggestionID))
		return err
	})
	return out, err
}

// List returns the tenant's suggestions, most voted first.
func (s *SuggestionStore) List(ctx context.Context, tenantID uuid.UUID) ([]SuggestionRecord, error) {
	var out []SuggestionRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE tenant_id = $1 ORDER BY votes_count DESC, created_at`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanSuggestionRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

// AddVoter appends userID to the voter set and increments the counter in one
// conditional statement. applied is false when no row matched, which means the
// suggestion does not exist or the user already voted; the current count is
// returned in both of those cases when the suggestion exists.
func (s *SuggestionStore) AddVoter(ctx context.Context, tenantID, suggestionID uuid.UUID, userID string) (count int, applied bool, err error) {
	err = s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		scanErr := tx.QueryRow(ctx, `
            UPDATE suggestions
            SET voters = array_append(voters, $3::text), votes_count = votes_count + 1
            WHERE tenant_id = $1 AND suggestion_id = $2 AND NOT ($3::text = ANY (voters))
            RETURNING votes_count`,
			tenantID, suggestionID, userID).Scan(&count)
		if scanErr == nil {
			applied = true
			return nil
		}
		if !errors.Is(scanErr, pgx.ErrNoRows) {
			return scanErr
		}

		scanErr = tx.QueryRow(ctx, `SELECT votes_count FROM suggestions WHERE tenant_id = $1 AND suggestion_id = $2`, tenantID, suggestionID).Scan(&count)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return scanErr
	})
	return count, applied, err
}

func scanSuggestionRecord(row pgx.Row) (SuggestionRecord, error) {
	var rec SuggestionRecord
	if err := row.Scan(&rec.SuggestionID, &rec.TenantID, &rec.Title, &rec.VotesCount, &rec.Voters, &rec.CreatedBy, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SuggestionRecord{}, ErrNotFound
		}
		return SuggestionRecord{}, err
	}
	return rec, nil
}
