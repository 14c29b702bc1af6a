package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/mealvote/domains/tenants/be/repo"
	"github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository(), nil)

	created, err := svc.Register(context.Background(), service.RegisterInput{Slug: " Acme ", Name: "Acme Foods", Status: "trial"})
	require.NoError(t, err)
	require.Equal(t, "acme", created.Slug)
	require.Equal(t, tenant.StatusTrial, created.Status)

	tc, err := svc.FindContextBySlug(context.Background(), "ACME")
	require.NoError(t, err)
	require.Equal(t, created.ID, tc.TenantID)
	require.True(t, tc.AcceptsWrites())

	_, err = svc.FindContextBySlug(context.Background(), "globex")
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.Register(context.Background(), service.RegisterInput{Slug: "acme", Name: "Other"})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "slugs are unique")

	_, err = svc.Register(context.Background(), service.RegisterInput{Slug: "bad_slug", Name: "Bad"})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository(), nil)
	fallback := tenant.Context{TenantID: uuid.New(), Slug: "default", Name: "Default", Status: tenant.StatusActive}

	first, err := svc.EnsureRegistered(context.Background(), fallback)
	require.NoError(t, err)

	_, err = svc.SetMaintenance(context.Background(), first.ID, service.MaintenanceInput{Active: true, Message: "upgrading"})
	require.NoError(t, err)

	second, err := svc.EnsureRegistered(context.Background(), fallback)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.Maintenance.Active, "startup registration keeps maintenance state")
}

func TestSetMaintenance(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository(), nil)
	created, err := svc.Register(context.Background(), service.RegisterInput{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.SetMaintenance(context.Background(), created.ID, service.MaintenanceInput{Active: true})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	until := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	updated, err := svc.SetMaintenance(context.Background(), created.ID, service.MaintenanceInput{Active: true, Message: "upgrade", Until: &until})
	require.NoError(t, err)
	require.True(t, updated.Maintenance.InEffect(until.Add(-time.Minute)))
	require.False(t, updated.Maintenance.InEffect(until))

	cleared, err := svc.SetMaintenance(context.Background(), created.ID, service.MaintenanceInput{})
	require.NoError(t, err)
	require.False(t, cleared.Maintenance.Active)
	require.Nil(t, cleared.Maintenance.Until)

	_, err = svc.SetMaintenance(context.Background(), uuid.New(), service.MaintenanceInput{})
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestResolverUsesRegistry(t *testing.T) {
	t.Parallel()

	svc := service.New(repo.NewMemoryRepository(), nil)
	fallback := tenant.Context{TenantID: uuid.New(), Slug: "default", Status: tenant.StatusActive}
	resolver := tenant.NewResolver(svc, fallback, zaptest.NewLogger(t))

	acme, err := svc.Register(context.Background(), service.RegisterInput{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	require.Equal(t, acme.ID, resolver.Resolve(context.Background(), "acme").TenantID)
	require.Equal(t, fallback, resolver.Resolve(context.Background(), "unknown"))
	require.Equal(t, fallback, resolver.Resolve(context.Background(), ""))
}
