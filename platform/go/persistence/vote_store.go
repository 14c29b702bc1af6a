package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VoteRecord is a row of the votes table. (TenantID, UserID, Date, ShiftID) is unique.
type VoteRecord struct {
	VoteID    uuid.UUID
	TenantID  uuid.UUID
	UserID    string
	Date      time.Time
	WeekISO   string
	ShiftID   string
	Choice    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteKey addresses the single vote a user may hold for a slot.
type VoteKey struct {
	TenantID uuid.UUID
	UserID   string
	Date     time.Time
	ShiftID  string
}

// TallyRecord holds raw per-choice counts for a slot.
type TallyRecord struct {
	Traditional int
	Alternative int
}

// ErrVoteDuplicate is returned by InsertVote when the owner key already exists.
var ErrVoteDuplicate = errors.New("vote already exists for key")

// VoteStore persists meal votes.
type VoteStore struct {
	db *DB
}

// NewVoteStore creates a store; assumes Bootstrap already created the table.
func NewVoteStore(db *DB) *VoteStore {
	if db == nil {
		panic("vote store requires db")
	}
	return &VoteStore{db: db}
}

const voteColumns = `vote_id, tenant_id, user_id, vote_date, week_iso, shift_id, choice, created_at, updated_at`

// FindVote returns the vote held under key or ErrNotFound.
func (s *VoteStore) FindVote(ctx context.Context, key VoteKey) (VoteRecord, error) {
	var out VoteRecord
	err := s.db.WithTenant(ctx, key.TenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanVoteRecord(tx.QueryRow(ctx, `
            SELECT `+voteColumns+` FROM votes
            WHERE tenant_id = $1 AND user_id = $2 AND vote_date = $3 AND shift_id = $4`,
			key.TenantID, key.UserID, key.Date, key.ShiftID))
		return err
	})
	return out, err
}

// InsertVote inserts a new vote. A concurrent insert for the same key surfaces
// as ErrVoteDuplicate; callers reconcile it into an update.
func (s *VoteStore) InsertVote(ctx context.Context, rec VoteRecord) (VoteRecord, error) {
	if rec.VoteID == uuid.Nil {
		rec.VoteID = uuid.New()
	}

	var out VoteRecord
	err := s.db.WithTenant(ctx, rec.TenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanVoteRecord(tx.QueryRow(ctx, `
            INSERT INTO votes (vote_id, tenant_id, user_id, vote_date, week_iso, shift_id, choice)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING `+voteColumns,
			rec.VoteID, rec.TenantID, rec.UserID, rec.Date, rec.WeekISO, rec.ShiftID, rec.Choice))
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return VoteRecord{}, ErrVoteDuplicate
		}
		return VoteRecord{}, err
	}
	return out, nil
}

// UpdateChoice sets the choice of the vote under key, preserving its id and creation time.
func (s *VoteStore) UpdateChoice(ctx context.Context, key VoteKey, choice string) (VoteRecord, error) {
	var out VoteRecord
	err := s.db.WithTenant(ctx, key.TenantID, func(tx pgx.Tx) error {
		var err error
		out, err = scanVoteRecord(tx.QueryRow(ctx, `
            UPDATE votes SET choice = $5, updated_at = now()
            WHERE tenant_id = $1 AND user_id = $2 AND vote_date = $3 AND shift_id = $4
            RETURNING `+voteColumns,
			key.TenantID, key.UserID, key.Date, key.ShiftID, choice))
		return err
	})
	return out, err
}

// Tally counts votes per choice for a slot.
func (s *VoteStore) Tally(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string) (TallyRecord, error) {
	var out TallyRecord
	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
            SELECT
                COUNT(*) FILTER (WHERE choice = 'traditional'),
                COUNT(*) FILTER (WHERE choice = 'alternative')
            FROM votes
            WHERE tenant_id = $1 AND vote_date = $2 AND shift_id = $3`,
			tenantID, date, shiftID).Scan(&out.Traditional, &out.Alternative)
	})
	return out, err
}

func scanVoteRecord(row pgx.Row) (VoteRecord, error) {
	var rec VoteRecord
	if err := row.Scan(&rec.VoteID, &rec.TenantID, &rec.UserID, &rec.Date, &rec.WeekISO, &rec.ShiftID, &rec.Choice, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VoteRecord{}, ErrNotFound
		}
		return VoteRecord{}, err
	}
	return rec, nil
}
