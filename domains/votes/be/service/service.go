package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	"github.com/zenGate-Global/mealvote/domains/votes/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Choice is one of the two dish options.
type Choice string

const (
	ChoiceTraditional Choice = "traditional"
	ChoiceAlternative Choice = "alternative"
)

// Outcome tells whether CastVote created the user's vote or replaced its choice.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

// Vote is a user's choice for one date and shift.
type Vote struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    string
	Date      time.Time
	WeekOfISO string
	ShiftID   string
	Choice    Choice
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteResult reports the ledger write.
type VoteResult struct {
	Outcome Outcome
	Vote    Vote
}

// Tally is the live per-choice count for a slot.
type Tally struct {
	Traditional int
	Alternative int
}

// Total returns the number of votes in the tally.
func (t Tally) Total() int { return t.Traditional + t.Alternative }

// CastVoteInput is a vote request. UserID comes from the authenticated identity.
type CastVoteInput struct {
	UserID  string `json:"userId" validate:"required,max=128"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID string `json:"shiftId" validate:"required,slug,max=64"`
	Choice  string `json:"choice" validate:"required,oneof=traditional alternative"`
}

// SlotInput addresses a (date, shift) slot on read paths.
type SlotInput struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID string `json:"shiftId" validate:"required,slug,max=64"`
}

// ShiftSource resolves a tenant's shift configuration.
type ShiftSource interface {
	Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (shiftsservice.Shift, error)
}

// Service is the vote ledger.
type Service interface {
	CastVote(ctx context.Context, tc tenant.Context, input CastVoteInput) (VoteResult, error)
	FindVote(ctx context.Context, tenantID uuid.UUID, userID string, slot SlotInput) (Vote, error)
	Tally(ctx context.Context, tenantID uuid.UUID, slot SlotInput) (Tally, error)
}

// Option customises the service.
type Option func(*service)

// WithClock replaces the wall clock used for cutoff checks.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	repo    repo.Repository
	shifts  ShiftSource
	metrics *metrics.Recorder
	audit   *audit.Recorder
	now     func() time.Time
}

// New constructs the vote ledger. recorder and auditor may be nil.
func New(r repo.Repository, shifts ShiftSource, recorder *metrics.Recorder, auditor *audit.Recorder, opts ...Option) Service {
	if r == nil {
		panic("votes repository is required")
	}
	if shifts == nil {
		panic("shift source is required")
	}
	s := &service{repo: r, shifts: shifts, metrics: recorder, audit: auditor, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CastVote(ctx context.Context, tc tenant.Context, input CastVoteInput) (VoteResult, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.ShiftID = strings.TrimSpace(input.ShiftID)
	if err := validation.Struct(input); err != nil {
		return VoteResult{}, err
	}
	if !tc.AcceptsWrites() {
		return VoteResult{}, apperrors.Forbidden(fmt.Sprintf("tenant %s is %s and does not accept votes", tc.Slug, tc.Status))
	}

	date, err := isoweek.ParseDate(input.Date)
	if err != nil {
		return VoteResult{}, apperrors.Invalid("date", err.Error())
	}

	shift, err := s.shifts.Get(ctx, tc.TenantID, input.ShiftID)
	if err != nil {
		return VoteResult{}, err
	}
	if !shift.ServesOn(date) {
		return VoteResult{}, apperrors.Closed(fmt.Sprintf("%s is not served on %s", shift.ID, input.Date))
	}
	if !shift.VotingOpen(date, s.now()) {
		return VoteResult{}, apperrors.Closed(fmt.Sprintf("voting for %s on %s closed at %s %s",
			shift.ID, input.Date, shift.CutoffTime, shift.Timezone))
	}

	key := persistence.VoteKey{TenantID: tc.TenantID, UserID: input.UserID, Date: date, ShiftID: input.ShiftID}
	rec, outcome, err := s.write(ctx, key, input.Choice)
	if err != nil {
		return VoteResult{}, err
	}

	s.metrics.VoteCast(string(outcome))
	s.audit.Record(ctx, tc.TenantID, string(outcome), "vote", rec.VoteID.String(), map[string]any{
		"date":    input.Date,
		"shiftId": input.ShiftID,
		"choice":  input.Choice,
	})

	return VoteResult{Outcome: outcome, Vote: toVote(rec)}, nil
}

// write applies the ledger state machine: no vote yields an insert, an
// existing vote yields an update, and an insert that lost a race against a
// concurrent insert for the same key is retried as an update.
func (s *service) write(ctx context.Context, key persistence.VoteKey, choice string) (persistence.VoteRecord, Outcome, error) {
	_, err := s.repo.FindVote(ctx, key)
	switch {
	case err == nil:
		rec, err := s.repo.UpdateChoice(ctx, key, choice)
		if err != nil {
			return persistence.VoteRecord{}, "", fmt.Errorf("update vote: %w", err)
		}
		return rec, OutcomeUpdated, nil
	case !errors.Is(err, persistence.ErrNotFound):
		return persistence.VoteRecord{}, "", fmt.Errorf("find vote: %w", err)
	}

	rec, err := s.repo.InsertVote(ctx, persistence.VoteRecord{
		TenantID: key.TenantID,
		UserID:   key.UserID,
		Date:     key.Date,
		WeekISO:  isoweek.Label(key.Date),
		ShiftID:  key.ShiftID,
		Choice:   choice,
	})
	switch {
	case err == nil:
		return rec, OutcomeCreated, nil
	case errors.Is(err, persistence.ErrVoteDuplicate):
		rec, err := s.repo.UpdateChoice(ctx, key, choice)
		if err != nil {
			return persistence.VoteRecord{}, "", fmt.Errorf("reconcile duplicate vote: %w", err)
		}
		return rec, OutcomeUpdated, nil
	default:
		return persistence.VoteRecord{}, "", fmt.Errorf("insert vote: %w", err)
	}
}

func (s *service) FindVote(ctx context.Context, tenantID uuid.UUID, userID string, slot SlotInput) (Vote, error) {
	date, err := parseSlot(slot)
	if err != nil {
		return Vote{}, err
	}

	rec, err := s.repo.FindVote(ctx, persistence.VoteKey{TenantID: tenantID, UserID: userID, Date: date, ShiftID: slot.ShiftID})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Vote{}, apperrors.NotFound(fmt.Sprintf("no vote for %s on %s", slot.ShiftID, slot.Date))
		}
		return Vote{}, fmt.Errorf("find vote: %w", err)
	}
	return toVote(rec), nil
}

func (s *service) Tally(ctx context.Context, tenantID uuid.UUID, slot SlotInput) (Tally, error) {
	date, err := parseSlot(slot)
	if err != nil {
		return Tally{}, err
	}

	rec, err := s.repo.Tally(ctx, tenantID, date, slot.ShiftID)
	if err != nil {
		return Tally{}, fmt.Errorf("tally votes: %w", err)
	}
	return Tally{Traditional: rec.Traditional, Alternative: rec.Alternative}, nil
}

func parseSlot(slot SlotInput) (time.Time, error) {
	if err := validation.Struct(slot); err != nil {
		return time.Time{}, err
	}
	date, err := isoweek.ParseDate(slot.Date)
	if err != nil {
		return time.Time{}, apperrors.Invalid("date", err.Error())
	}
	return date, nil
}

func toVote(rec persistence.VoteRecord) Vote {
	return Vote{
		ID:        rec.VoteID,
		TenantID:  rec.TenantID,
		UserID:    rec.UserID,
		Date:      rec.Date,
		WeekOfISO: rec.WeekISO,
		ShiftID:   rec.ShiftID,
		Choice:    Choice(rec.Choice),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
