package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/domains/suggestions/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Suggestion is a member-proposed dish others can upvote once each.
type Suggestion struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Title      string
	VotesCount int
	Voters     []string
	CreatedBy  string
	CreatedAt  time.Time
}

// VotedBy reports whether userID already upvoted the suggestion.
func (s Suggestion) VotedBy(userID string) bool {
	return slices.Contains(s.Voters, userID)
}

// VoteResult reports a suggestion vote. AlreadyVoted is a no-op, not an error.
type VoteResult struct {
	Success      bool
	AlreadyVoted bool
	VotesCount   int
}

// CreateInput is the payload accepted to propose a suggestion.
type CreateInput struct {
	Title     string `json:"title" validate:"required,max=200"`
	CreatedBy string `json:"createdBy" validate:"required,max=128"`
}

// Service defines suggestion operations.
type Service interface {
	Create(ctx context.Context, tc tenant.Context, input CreateInput) (Suggestion, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Suggestion, error)
	Vote(ctx context.Context, tenantID, suggestionID uuid.UUID, userID string) (VoteResult, error)
}

type service struct {
	repo    repo.Repository
	metrics *metrics.Recorder
	audit   *audit.Recorder
}

// New constructs a suggestions Service. recorder and auditor may be nil.
func New(r repo.Repository, recorder *metrics.Recorder, auditor *audit.Recorder) Service {
	if r == nil {
		panic("suggestions repository is required")
	}
	return &service{repo: r, metrics: recorder, audit: auditor}
}

func (s *service) Create(ctx context.Context, tc tenant.Context, input CreateInput) (Suggestion, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.CreatedBy = strings.TrimSpace(input.CreatedBy)
	if err := validation.Struct(input); err != nil {
		return Suggestion{}, err
	}
	if !tc.AcceptsWrites() {
		return Suggestion{}, apperrors.Forbidden(fmt.Sprintf("tenant %s is %s", tc.Slug, tc.Status))
	}

	rec, err := s.repo.Create(ctx, persistence.SuggestionRecord{
		TenantID:  tc.TenantID,
		Title:     input.Title,
		CreatedBy: input.CreatedBy,
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("create suggestion: %w", err)
	}

	s.audit.Record(ctx, tc.TenantID, "create", "suggestion", rec.SuggestionID.String(), map[string]any{"title": rec.Title})
	return toSuggestion(rec), nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]Suggestion, error) {
	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	out := make([]Suggestion, 0, len(records))
	for _, rec := range records {
		out = append(out, toSuggestion(rec))
	}
	return out, nil
}

// Vote adds userID to the suggestion's voters. A second vote by the same
// user leaves the count untouched and reports AlreadyVoted.
func (s *service) Vote(ctx context.Context, tenantID, suggestionID uuid.UUID, userID string) (VoteResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return VoteResult{}, apperrors.Invalid("userId", "is required")
	}

	count, applied, err := s.repo.AddVoter(ctx, tenantID, suggestionID, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return VoteResult{}, apperrors.NotFound(fmt.Sprintf("suggestion %s not found", suggestionID))
		}
		return VoteResult{}, fmt.Errorf("vote suggestion %s: %w", suggestionID, err)
	}

	if !applied {
		s.metrics.SuggestionVote("already_voted")
		return VoteResult{Success: false, AlreadyVoted: true, VotesCount: count}, nil
	}

	s.metrics.SuggestionVote("recorded")
	s.audit.Record(ctx, tenantID, "vote", "suggestion", suggestionID.String(), map[string]any{"votesCount": count})
	return VoteResult{Success: true, VotesCount: count}, nil
}

func toSuggestion(rec persistence.SuggestionRecord) Suggestion {
	return Suggestion{
		ID:         rec.SuggestionID,
		TenantID:   rec.TenantID,
		Title:      rec.Title,
		VotesCount: rec.VotesCount,
		Voters:     rec.Voters,
		CreatedBy:  rec.CreatedBy,
		CreatedAt:  rec.CreatedAt,
	}
}
