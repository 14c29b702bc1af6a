package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/mealvote/domains/roles/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{Code: "Not A Slug"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "name")
	require.Contains(t, appErr.Fields, "code")
	require.Contains(t, appErr.Fields, "permissions")

	_, err = svc.Create(context.Background(), uuid.New(), CreateInput{
		Name: "Chef", Code: "chef", Permissions: map[string]bool{"canVote": true, "canCook": true},
	})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "permissions.canCook")
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil)
	tenantID := uuid.New()
	input := CreateInput{Name: "Kitchen", Code: "kitchen", Permissions: map[string]bool{"kitchenView": true}}

	_, err := svc.Create(context.Background(), tenantID, input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tenantID, input)
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err, "codes are unique per tenant only")
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil)
	tenantID := uuid.New()

	first, err := svc.Seed(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, first.Created, len(DefaultRoles()))

	second, err := svc.Seed(context.Background(), tenantID)
	require.NoError(t, err)
	require.Empty(t, second.Created)
	require.ElementsMatch(t, []string{"admin", "kitchen", "manager", "employee"}, second.Skipped)

	roles, err := svc.List(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, "admin", roles[0].Code)
	require.Equal(t, authz.All(), roles[0].Permissions)
}

func TestRoleEditsApplyToNextResolution(t *testing.T) {
	t.Parallel()

	memory := repo.NewMemoryRepository()
	svc := New(memory, nil)
	resolver := authz.NewResolver(repo.NewRoleSource(memory), authz.DefaultLegacyRoleMap(), zaptest.NewLogger(t))

	tenantID := uuid.New()
	tc := tenant.Context{TenantID: tenantID, Slug: "acme", Status: tenant.StatusActive}
	identity := platformauth.Identity{UserID: "cook-1", TenantID: tenantID, Role: "kitchen"}

	kitchen, err := svc.Create(context.Background(), tenantID, CreateInput{
		Name: "Kitchen", Code: "kitchen", Order: 1,
		Permissions: map[string]bool{"kitchenView": true, "kitchenManage": true, "canVote": true},
	})
	require.NoError(t, err)

	set := resolver.ResolvePermissions(context.Background(), tc, identity)
	require.True(t, set.KitchenManage)
	require.False(t, set.ViewStatistics)
	require.False(t, set.IsAdmin)

	_, err = svc.Update(context.Background(), tenantID, kitchen.ID, UpdateInput{
		Permissions: map[string]bool{"kitchenView": true},
	})
	require.NoError(t, err)

	set = resolver.ResolvePermissions(context.Background(), tc, identity)
	require.True(t, set.KitchenView)
	require.False(t, set.KitchenManage)
	require.False(t, set.CanVote)
}

func TestUpdateKeepsOmittedFields(t *testing.T) {
	t.Parallel()

	svc := New(repo.NewMemoryRepository(), nil)
	tenantID := uuid.New()

	created, err := svc.Create(context.Background(), tenantID, CreateInput{
		Name: "Employee", Code: "employee", Order: 3, Permissions: map[string]bool{"canVote": true},
	})
	require.NoError(t, err)

	name := "Staff member"
	updated, err := svc.Update(context.Background(), tenantID, created.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Staff member", updated.Name)
	require.Equal(t, "employee", updated.Code)
	require.Equal(t, 3, updated.Order)
	require.True(t, updated.Permissions.CanVote)

	_, err = svc.Update(context.Background(), uuid.New(), created.ID, UpdateInput{Name: &name})
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
