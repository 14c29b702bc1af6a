package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/mealvote/domains/suggestions/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type failingRepository struct {
	repo.Repository
	err error
}

func (f failingRepository) AddVoter(context.Context, uuid.UUID, uuid.UUID, string) (int, bool, error) {
	return 0, false, f.err
}

func activeTenant() tenant.Context {
	return tenant.Context{TenantID: uuid.New(), Slug: "acme", Status: tenant.StatusActive}
}

func TestVoteIsIdempotentPerUser(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	svc := New(repo.NewMemoryRepository(), metrics.New(reg), nil)
	tc := activeTenant()

	created, err := svc.Create(context.Background(), tc, CreateInput{Title: "  Feijoada on Fridays ", CreatedBy: "u1"})
	require.NoError(t, err)
	require.Equal(t, "Feijoada on Fridays", created.Title)
	require.Zero(t, created.VotesCount)

	first, err := svc.Vote(context.Background(), tc.TenantID, created.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, VoteResult{Success: true, VotesCount: 1}, first)

	again, err := svc.Vote(context.Background(), tc.TenantID, created.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, VoteResult{Success: false, AlreadyVoted: true, VotesCount: 1}, again)

	other, err := svc.Vote(context.Background(), tc.TenantID, created.ID, "u3")
	require.NoError(t, err)
	require.Equal(t, 2, other.VotesCount)

	items, err := svc.List(context.Background(), tc.TenantID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].VotedBy("u2"))
	require.False(t, items[0].VotedBy("u1"))

	expected := `
# HELP mealvote_suggestion_votes_total Suggestion vote attempts, by result
# TYPE mealvote_suggestion_votes_total counter
mealvote_suggestion_votes_total{result="already_voted"} 1
mealvote_suggestion_votes_total{result="recorded"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "mealvote_suggestion_votes_total"))
}

func TestListOrdersByVotes(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil, nil)
	tc := activeTenant()
	ctx := context.Background()

	low, err := svc.Create(ctx, tc, CreateInput{Title: "Soup", CreatedBy: "u1"})
	require.NoError(t, err)
	high, err := svc.Create(ctx, tc, CreateInput{Title: "Curry", CreatedBy: "u1"})
	require.NoError(t, err)

	for _, user := range []string{"a", "b"} {
		_, err := svc.Vote(ctx, tc.TenantID, high.ID, user)
		require.NoError(t, err)
	}
	_, err = svc.Vote(ctx, tc.TenantID, low.ID, "a")
	require.NoError(t, err)

	items, err := svc.List(ctx, tc.TenantID)
	require.NoError(t, err)
	require.Equal(t, []string{"Curry", "Soup"}, []string{items[0].Title, items[1].Title})
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil, nil)

	_, err := svc.Create(context.Background(), activeTenant(), CreateInput{Title: "   ", CreatedBy: "u1"})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Create(context.Background(), activeTenant(), CreateInput{Title: strings.Repeat("x", 201), CreatedBy: "u1"})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	suspended := activeTenant()
	suspended.Status = tenant.StatusSuspended
	_, err = svc.Create(context.Background(), suspended, CreateInput{Title: "Tacos", CreatedBy: "u1"})
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestVoteErrors(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil, nil)
	tc := activeTenant()

	_, err := svc.Vote(context.Background(), tc.TenantID, uuid.New(), "u1")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.Vote(context.Background(), tc.TenantID, uuid.New(), " ")
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	created, err := svc.Create(context.Background(), tc, CreateInput{Title: "Ramen", CreatedBy: "u1"})
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), uuid.New(), created.ID, "u1")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err), "another tenant cannot see the suggestion")

	boom := errors.New("connection reset")
	broken := New(failingRepository{Repository: repo.NewMemoryRepository(), err: boom}, nil, nil)
	_, err = broken.Vote(context.Background(), tc.TenantID, created.ID, "u1")
	require.ErrorIs(t, err, boom)
	require.Empty(t, apperrors.KindOf(err))
}

func TestConcurrentSuggestionVotes(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil, nil)
	tc := activeTenant()
	created, err := svc.Create(context.Background(), tc, CreateInput{Title: "Paella", CreatedBy: "u0"})
	require.NoError(t, err)

	const voters = 16
	const attemptsPerVoter = 4

	var recorded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		for j := 0; j < attemptsPerVoter; j++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				res, err := svc.Vote(context.Background(), tc.TenantID, created.ID, user)
				if err == nil && res.Success {
					recorded.Add(1)
				}
			}(fmt.Sprintf("user-%d", i))
		}
	}
	wg.Wait()

	require.EqualValues(t, voters, recorded.Load())

	items, err := svc.List(context.Background(), tc.TenantID)
	require.NoError(t, err)
	require.Equal(t, voters, items[0].VotesCount)
	require.Len(t, items[0].Voters, voters)
}
