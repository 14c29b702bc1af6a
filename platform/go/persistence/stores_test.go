package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPostgresStores(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	acme := seedTenant(t, db, "acme")
	beta := seedTenant(t, db, "beta")

	t.Run("tenant registry", func(t *testing.T) {
		tenants := NewTenantStore(db)

		rec, err := tenants.GetBySlug(ctx, " ACME ")
		require.NoError(t, err)
		require.Equal(t, acme, rec.TenantID)

		until := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		rec.MaintenanceActive = true
		rec.MaintenanceMessage = "menu import"
		rec.MaintenanceUntil = &until
		updated, err := tenants.Upsert(ctx, rec)
		require.NoError(t, err)
		require.True(t, updated.MaintenanceActive)
		require.True(t, until.Equal(*updated.MaintenanceUntil))

		_, err = tenants.GetBySlug(ctx, "nobody")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = tenants.Upsert(ctx, TenantRecord{TenantID: uuid.New(), Slug: "acme", Name: "dup", Status: "active"})
		require.ErrorIs(t, err, ErrConflict)

		all, err := tenants.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("roles", func(t *testing.T) {
		roles := NewRoleStore(db)

		kitchen, err := roles.Create(ctx, RoleRecord{TenantID: acme, Name: "Cocina", Code: "Kitchen", Order: 2, KitchenView: true, KitchenManage: true})
		require.NoError(t, err)
		require.Equal(t, "kitchen", kitchen.Code)

		_, err = roles.Create(ctx, RoleRecord{TenantID: acme, Name: "Other", Code: "kitchen"})
		require.ErrorIs(t, err, ErrConflict)

		_, err = roles.Create(ctx, RoleRecord{TenantID: acme, Name: "Admin", Code: "admin", Order: 1, IsAdmin: true})
		require.NoError(t, err)

		list, err := roles.List(ctx, acme)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "admin", list[0].Code)

		kitchen.KitchenManage = false
		updated, err := roles.Update(ctx, kitchen)
		require.NoError(t, err)
		require.False(t, updated.KitchenManage)

		_, err = roles.Get(ctx, beta, kitchen.RoleID)
		require.ErrorIs(t, err, ErrNotFound, "roles are invisible across tenants")

		betaRoles, err := roles.List(ctx, beta)
		require.NoError(t, err)
		require.Empty(t, betaRoles)
	})

	t.Run("shifts", func(t *testing.T) {
		shifts := NewShiftStore(db)
		schedule := "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

		rec, err := shifts.Upsert(ctx, ShiftRecord{TenantID: acme, ShiftID: "lunch", Name: "Lunch", CutoffTime: "10:30", Timezone: "Europe/Madrid", Schedule: &schedule})
		require.NoError(t, err)
		require.Equal(t, "10:30", rec.CutoffTime)

		rec.CutoffTime = "11:00"
		_, err = shifts.Upsert(ctx, rec)
		require.NoError(t, err)

		got, err := shifts.Get(ctx, acme, "lunch")
		require.NoError(t, err)
		require.Equal(t, "11:00", got.CutoffTime)
		require.Equal(t, schedule, *got.Schedule)

		_, err = shifts.Get(ctx, beta, "lunch")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("votes", func(t *testing.T) {
		votes := NewVoteStore(db)
		key := VoteKey{TenantID: acme, UserID: "u-1", Date: day(t, "2025-03-03"), ShiftID: "lunch"}

		_, err := votes.FindVote(ctx, key)
		require.ErrorIs(t, err, ErrNotFound)

		created, err := votes.InsertVote(ctx, VoteRecord{TenantID: acme, UserID: "u-1", Date: key.Date, WeekISO: "2025-W10", ShiftID: "lunch", Choice: "traditional"})
		require.NoError(t, err)

		_, err = votes.InsertVote(ctx, VoteRecord{TenantID: acme, UserID: "u-1", Date: key.Date, WeekISO: "2025-W10", ShiftID: "lunch", Choice: "alternative"})
		require.ErrorIs(t, err, ErrVoteDuplicate)

		updated, err := votes.UpdateChoice(ctx, key, "alternative")
		require.NoError(t, err)
		require.Equal(t, created.VoteID, updated.VoteID)
		require.Equal(t, "alternative", updated.Choice)
		require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		_, err = votes.InsertVote(ctx, VoteRecord{TenantID: beta, UserID: "u-1", Date: key.Date, WeekISO: "2025-W10", ShiftID: "lunch", Choice: "traditional"})
		require.NoError(t, err, "the same user key in another tenant is a different vote")

		tally, err := votes.Tally(ctx, acme, key.Date, "lunch")
		require.NoError(t, err)
		require.Equal(t, TallyRecord{Alternative: 1}, tally)
	})

	t.Run("racing vote inserts collapse to one row", func(t *testing.T) {
		votes := NewVoteStore(db)
		date := day(t, "2025-03-04")

		const racers = 12
		var wg sync.WaitGroup
		var inserted, duplicates atomic.Int32
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				choice := "traditional"
				if i%2 == 1 {
					choice = "alternative"
				}
				_, err := votes.InsertVote(ctx, VoteRecord{TenantID: acme, UserID: "racer", Date: date, WeekISO: "2025-W10", ShiftID: "lunch", Choice: choice})
				switch {
				case err == nil:
					inserted.Add(1)
				case errors.Is(err, ErrVoteDuplicate):
					duplicates.Add(1)
				default:
					t.Errorf("unexpected insert error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), inserted.Load())
		require.Equal(t, int32(racers-1), duplicates.Load())

		tally, err := votes.Tally(ctx, acme, date, "lunch")
		require.NoError(t, err)
		require.Equal(t, 1, tally.Traditional+tally.Alternative)
	})

	t.Run("suggestion voters", func(t *testing.T) {
		suggestions := NewSuggestionStore(db)

		s, err := suggestions.Create(ctx, SuggestionRecord{TenantID: acme, Title: "Paella Fridays", CreatedBy: "u-1"})
		require.NoError(t, err)
		require.Zero(t, s.VotesCount)
		require.Empty(t, s.Voters)

		count, applied, err := suggestions.AddVoter(ctx, acme, s.SuggestionID, "u-2")
		require.NoError(t, err)
		require.True(t, applied)
		require.Equal(t, 1, count)

		count, applied, err = suggestions.AddVoter(ctx, acme, s.SuggestionID, "u-2")
		require.NoError(t, err)
		require.False(t, applied)
		require.Equal(t, 1, count)

		_, _, err = suggestions.AddVoter(ctx, beta, s.SuggestionID, "u-3")
		require.ErrorIs(t, err, ErrNotFound)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, _, err := suggestions.AddVoter(ctx, acme, s.SuggestionID, fmt.Sprintf("voter-%d", i%10)); err != nil {
					t.Errorf("add voter: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, err := suggestions.Get(ctx, acme, s.SuggestionID)
		require.NoError(t, err)
		require.Equal(t, 11, got.VotesCount)
		require.Len(t, got.Voters, 11)
	})

	t.Run("adjustments", func(t *testing.T) {
		adjustments := NewAdjustmentStore(db)
		date := day(t, "2025-03-03")
		two, zero := 2, 0
		ten, none := 10.0, 0.0

		_, err := adjustments.Insert(ctx, AdjustmentRecord{TenantID: acme, Date: date, ShiftID: "lunch", AddTraditional: &two, AddAlternative: &zero, Note: "walk-ins", CreatedBy: "cook"})
		require.NoError(t, err)
		_, err = adjustments.Insert(ctx, AdjustmentRecord{TenantID: acme, Date: date, ShiftID: "lunch", PctTraditional: &ten, PctAlternative: &none, CreatedBy: "cook"})
		require.NoError(t, err)

		_, err = adjustments.Insert(ctx, AdjustmentRecord{TenantID: acme, Date: date, ShiftID: "lunch", CreatedBy: "cook"})
		require.Error(t, err, "an adjustment without any delta violates the table check")

		list, err := adjustments.ListForSlot(ctx, acme, date, "lunch")
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, 2, *list[0].AddTraditional)
		require.Nil(t, list[1].AddTraditional)
		require.Equal(t, 10.0, *list[1].PctTraditional)

		other, err := adjustments.ListForSlot(ctx, beta, date, "lunch")
		require.NoError(t, err)
		require.Empty(t, other)
	})
}

func TestWithTenantRequiresTenant(t *testing.T) {
	db := &DB{schema: DefaultSchema}
	err := db.WithTenant(context.Background(), uuid.Nil, nil)
	require.ErrorIs(t, err, ErrTenantRequired)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x int);\n\n  CREATE INDEX b ON a (x);  \n")
	require.Equal(t, []string{"CREATE TABLE a (x int)", "CREATE INDEX b ON a (x)"}, got)
}
