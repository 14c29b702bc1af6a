package authz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type memoryRoles struct {
	mu    sync.Mutex
	roles map[uuid.UUID][]RoleDefinition
	err   error
	calls int
}

func (m *memoryRoles) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]RoleDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]RoleDefinition, len(m.roles[tenantID]))
	copy(out, m.roles[tenantID])
	return out, nil
}

func (m *memoryRoles) setPermissions(tenantID uuid.UUID, code string, perms CapabilitySet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.roles[tenantID] {
		if m.roles[tenantID][i].Code == code {
			m.roles[tenantID][i].Permissions = perms
		}
	}
}

func newFixture(t *testing.T) (*Resolver, *memoryRoles, tenant.Context) {
	t.Helper()
	tc := tenant.Context{TenantID: uuid.New(), Slug: "acme", Status: tenant.StatusActive}
	roles := &memoryRoles{roles: map[uuid.UUID][]RoleDefinition{
		tc.TenantID: {
			{ID: uuid.New(), TenantID: tc.TenantID, Name: "Administrador", Code: "admin", Order: 1, Permissions: All()},
			{ID: uuid.New(), TenantID: tc.TenantID, Name: "Equipo de Cocina", Code: "kitchen_staff", Order: 2, Permissions: CapabilitySet{KitchenView: true, KitchenManage: true}},
			{ID: uuid.New(), TenantID: tc.TenantID, Name: "Empleado", Code: "employee", Order: 3, Permissions: CapabilitySet{CanVote: true}},
		},
	}}
	return NewResolver(roles, DefaultLegacyRoleMap(), zaptest.NewLogger(t)), roles, tc
}

func TestResolvePermissionsKitchenScenario(t *testing.T) {
	resolver, _, tc := newFixture(t)

	set := resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "cook", TenantID: tc.TenantID, Role: "kitchen"})

	require.True(t, set.KitchenManage)
	require.False(t, set.IsAdmin)
	require.NoError(t, RequirePermission(set, KitchenManage))

	err := RequirePermission(set, IsAdmin)
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	require.Equal(t, "missing capability isAdmin", err.(*apperrors.Error).Reason)
}

func TestResolvePermissionsMatching(t *testing.T) {
	resolver, _, tc := newFixture(t)

	testCases := []struct {
		name string
		role string
		want CapabilitySet
	}{
		{name: "exact code", role: "employee", want: CapabilitySet{CanVote: true}},
		{name: "code case insensitive", role: "KITCHEN_STAFF", want: CapabilitySet{KitchenView: true, KitchenManage: true}},
		{name: "exact name", role: "empleado", want: CapabilitySet{CanVote: true}},
		{name: "legacy alias substring", role: "Cocina", want: CapabilitySet{KitchenView: true, KitchenManage: true}},
		{name: "legacy label", role: "funcionario", want: CapabilitySet{CanVote: true}},
		{name: "unknown", role: "janitor", want: None()},
	}

	for _, tc2 := range testCases {
		t.Run(tc2.name, func(t *testing.T) {
			got := resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", TenantID: tc.TenantID, Role: tc2.role})
			require.Equal(t, tc2.want, got)
		})
	}
}

func TestResolvePermissionsAnonymousAndForeignTenant(t *testing.T) {
	resolver, roles, tc := newFixture(t)

	require.Equal(t, None(), resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", TenantID: tc.TenantID}))
	require.Equal(t, None(), resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", Role: "admin"}))
	require.Equal(t, None(), resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", TenantID: uuid.New(), Role: "admin"}))
	require.Zero(t, roles.calls, "anonymous and foreign identities never reach storage")
}

func TestResolvePermissionsFailsClosed(t *testing.T) {
	resolver, roles, tc := newFixture(t)
	roles.err = errors.New("connection refused")

	set := resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", TenantID: tc.TenantID, Role: "admin"})
	require.Equal(t, None(), set)
}

func TestResolvePermissionsIsPureAndNeverStale(t *testing.T) {
	resolver, roles, tc := newFixture(t)
	identity := platformauth.Identity{UserID: "cook", TenantID: tc.TenantID, Role: "kitchen_staff"}

	first := resolver.ResolvePermissions(context.Background(), tc, identity)
	second := resolver.ResolvePermissions(context.Background(), tc, identity)
	require.Equal(t, first, second)

	roles.setPermissions(tc.TenantID, "kitchen_staff", CapabilitySet{KitchenView: true})

	third := resolver.ResolvePermissions(context.Background(), tc, identity)
	require.False(t, third.KitchenManage)
	require.Equal(t, 3, roles.calls)
}

func TestMatchRoleHonoursOrder(t *testing.T) {
	tenantID := uuid.New()
	roles := &memoryRoles{roles: map[uuid.UUID][]RoleDefinition{
		tenantID: {
			{Name: "Cocina Noche", Code: "kitchen_night", Order: 5},
			{Name: "Cocina Día", Code: "kitchen_day", Order: 1},
		},
	}}
	resolver := NewResolver(roles, DefaultLegacyRoleMap(), nil)

	role, ok := resolver.MatchRole(context.Background(), tenant.Context{TenantID: tenantID}, platformauth.Identity{UserID: "u", TenantID: tenantID, Role: "kitchen"})
	require.True(t, ok)
	require.Equal(t, "kitchen_day", role.Code)
}

func TestLegacyEmployeeLabelsNeverReachKitchenStaff(t *testing.T) {
	tenantID := uuid.New()
	roles := &memoryRoles{roles: map[uuid.UUID][]RoleDefinition{
		tenantID: {
			{Name: "Kitchen Staff", Code: "kitchen_staff", Order: 1, Permissions: CapabilitySet{KitchenView: true, KitchenManage: true}},
			{Name: "Empleado", Code: "empleado", Order: 2, Permissions: CapabilitySet{CanVote: true}},
		},
	}}
	resolver := NewResolver(roles, DefaultLegacyRoleMap(), zaptest.NewLogger(t))
	tc := tenant.Context{TenantID: tenantID}

	testCases := []struct {
		role string
		want CapabilitySet
	}{
		{role: "funcionario", want: CapabilitySet{CanVote: true}},
		{role: "colaborador", want: CapabilitySet{CanVote: true}},
		{role: "employee", want: CapabilitySet{CanVote: true}},
		{role: "staff", want: None()},
		{role: "cocina", want: CapabilitySet{KitchenView: true, KitchenManage: true}},
	}

	for _, tt := range testCases {
		t.Run(tt.role, func(t *testing.T) {
			got := resolver.ResolvePermissions(context.Background(), tc, platformauth.Identity{UserID: "u", TenantID: tenantID, Role: tt.role})
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolverWithoutLegacyMap(t *testing.T) {
	tenantID := uuid.New()
	roles := &memoryRoles{roles: map[uuid.UUID][]RoleDefinition{
		tenantID: {{Name: "Cocina", Code: "cocina", Permissions: CapabilitySet{KitchenView: true}}},
	}}
	resolver := NewResolver(roles, LegacyRoleMap{}, nil)

	set := resolver.ResolvePermissions(context.Background(), tenant.Context{TenantID: tenantID}, platformauth.Identity{UserID: "u", TenantID: tenantID, Role: "kitchen"})
	require.Equal(t, None(), set)
}

func TestNewResolverPanicsWithoutSource(t *testing.T) {
	require.Panics(t, func() { NewResolver(nil, LegacyRoleMap{}, nil) })
}

func TestRequireRole(t *testing.T) {
	resolver, _, _ := newFixture(t)

	require.NoError(t, RequireRole(platformauth.Identity{Role: "Admin"}, "admin"))
	require.Error(t, RequireRole(platformauth.Identity{Role: "employee"}, "admin", "hr"))
	require.Error(t, RequireRole(platformauth.Identity{}, "admin"))

	require.NoError(t, resolver.RequireRole(platformauth.Identity{Role: "Cocina"}, "kitchen"))
	require.NoError(t, resolver.RequireRole(platformauth.Identity{Role: "administrador"}, "admin"))

	err := resolver.RequireRole(platformauth.Identity{Role: "empleado"}, "admin")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "employee"))
}

func TestRequirePermissionUnknownCapability(t *testing.T) {
	err := RequirePermission(All(), Capability("launchRockets"))
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}
