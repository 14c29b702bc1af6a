package authz

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

// RoleDefinition is a tenant-owned role with its total permission set.
type RoleDefinition struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Code        string
	Order       int
	Permissions CapabilitySet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleSource loads the current role definitions of a tenant.
type RoleSource interface {
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]RoleDefinition, error)
}

// Resolver turns an identity into a capability set. It holds no state besides
// its collaborators; every call reads the role table afresh.
type Resolver struct {
	roles  RoleSource
	legacy LegacyRoleMap
	logger *zap.Logger
}

// NewResolver wires a resolver. A zero legacy map disables the shim.
func NewResolver(roles RoleSource, legacy LegacyRoleMap, logger *zap.Logger) *Resolver {
	if roles == nil {
		panic("authz resolver requires a role source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{roles: roles, legacy: legacy, logger: logger}
}

// Legacy exposes the legacy label table used by this resolver.
func (r *Resolver) Legacy() LegacyRoleMap { return r.legacy }

// ResolvePermissions returns the capability set of identity within tc.
// Anonymous identities, identities from another tenant, unmatched roles and
// lookup failures all resolve to the empty set.
func (r *Resolver) ResolvePermissions(ctx context.Context, tc tenant.Context, identity platformauth.Identity) CapabilitySet {
	role, ok := r.MatchRole(ctx, tc, identity)
	if !ok {
		return None()
	}
	return role.Permissions
}

// MatchRole finds the role definition an identity maps to.
func (r *Resolver) MatchRole(ctx context.Context, tc tenant.Context, identity platformauth.Identity) (RoleDefinition, bool) {
	if identity.Anonymous() {
		return RoleDefinition{}, false
	}
	if tc.TenantID != uuid.Nil && identity.TenantID != tc.TenantID {
		r.logger.Warn("identity tenant does not match request tenant",
			zap.String("identity_tenant", identity.TenantID.String()),
			zap.String("tenant", tc.TenantID.String()),
		)
		return RoleDefinition{}, false
	}

	roles, err := r.roles.ListRoles(ctx, identity.TenantID)
	if err != nil {
		r.logger.Error("load role definitions", zap.String("tenant_id", identity.TenantID.String()), zap.Error(err))
		return RoleDefinition{}, false
	}

	return r.match(identity.Role, roles)
}

func (r *Resolver) match(label string, roles []RoleDefinition) (RoleDefinition, bool) {
	ordered := make([]RoleDefinition, len(roles))
	copy(ordered, roles)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	want := strings.TrimSpace(label)
	for _, role := range ordered {
		if role.Code != "" && strings.EqualFold(role.Code, want) {
			return role, true
		}
	}
	for _, role := range ordered {
		if strings.EqualFold(role.Name, want) {
			return role, true
		}
	}

	if idx, ok := r.legacy.Match(want, ordered); ok {
		r.logger.Debug("role matched through legacy map",
			zap.String("label", want),
			zap.String("role_code", ordered[idx].Code),
		)
		return ordered[idx], true
	}

	return RoleDefinition{}, false
}
