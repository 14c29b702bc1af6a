package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/domains/roles/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Role is a tenant role with its total permission set.
type Role = authz.RoleDefinition

// CreateInput is the payload accepted to define a role. Capabilities absent
// from Permissions are denied.
type CreateInput struct {
	Name        string          `json:"name" validate:"required,max=80"`
	Code        string          `json:"code" validate:"required,slug,max=40"`
	Order       int             `json:"order" validate:"gte=0"`
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

// UpdateInput changes a role. The code is immutable; a non-nil Permissions
// map replaces the whole set.
type UpdateInput struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1,max=80"`
	Order       *int            `json:"order,omitempty" validate:"omitempty,gte=0"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// SeedResult reports which default roles a seed created.
type SeedResult struct {
	Created []Role
	Skipped []string
}

// Service defines role administration.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
	Get(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error)
	Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (Role, error)
	Update(ctx context.Context, tenantID, roleID uuid.UUID, input UpdateInput) (Role, error)
	Seed(ctx context.Context, tenantID uuid.UUID) (SeedResult, error)
}

type service struct {
	repo  repo.Repository
	audit *audit.Recorder
}

// New constructs a roles Service. recorder may be nil.
func New(r repo.Repository, recorder *audit.Recorder) Service {
	if r == nil {
		panic("roles repository is required")
	}
	return &service{repo: r, audit: recorder}
}

// DefaultRoles is the role set a new tenant starts with.
func DefaultRoles() []CreateInput {
	return []CreateInput{
		{Name: "Administrator", Code: "admin", Order: 0, Permissions: authz.All().Map()},
		{Name: "Kitchen", Code: "kitchen", Order: 10, Permissions: map[string]bool{
			string(authz.CanVote): true, string(authz.KitchenView): true, string(authz.KitchenManage): true,
		}},
		{Name: "Manager", Code: "manager", Order: 20, Permissions: map[string]bool{
			string(authz.CanVote): true, string(authz.KitchenView): true,
			string(authz.ViewStatistics): true, string(authz.ManageShifts): true,
		}},
		{Name: "Employee", Code: "employee", Order: 30, Permissions: map[string]bool{
			string(authz.CanVote): true,
		}},
	}
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make([]Role, 0, len(records))
	for _, rec := range records {
		out = append(out, repo.ToDefinition(rec))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error) {
	rec, err := s.repo.Get(ctx, tenantID, roleID)
	if err != nil {
		return Role{}, mapPersistenceError(err, roleID.String())
	}
	return repo.ToDefinition(rec), nil
}

func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (Role, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.ToLower(strings.TrimSpace(input.Code))

	if err := validation.Struct(input); err != nil {
		return Role{}, err
	}
	set, err := permissionSet(input.Permissions)
	if err != nil {
		return Role{}, err
	}

	rec, err := s.repo.Create(ctx, repo.FromDefinition(Role{
		TenantID:    tenantID,
		Name:        input.Name,
		Code:        input.Code,
		Order:       input.Order,
		Permissions: set,
	}))
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return Role{}, apperrors.Invalid("code", fmt.Sprintf("role code %q already exists", input.Code))
		}
		return Role{}, fmt.Errorf("create role %s: %w", input.Code, err)
	}

	role := repo.ToDefinition(rec)
	s.audit.Record(ctx, tenantID, "create", "role", role.ID.String(), map[string]any{
		"code":        role.Code,
		"permissions": role.Permissions.Map(),
	})
	return role, nil
}

func (s *service) Update(ctx context.Context, tenantID, roleID uuid.UUID, input UpdateInput) (Role, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validation.Struct(input); err != nil {
		return Role{}, err
	}

	current, err := s.repo.Get(ctx, tenantID, roleID)
	if err != nil {
		return Role{}, mapPersistenceError(err, roleID.String())
	}

	role := repo.ToDefinition(current)
	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Order != nil {
		role.Order = *input.Order
	}
	if input.Permissions != nil {
		set, err := permissionSet(input.Permissions)
		if err != nil {
			return Role{}, err
		}
		role.Permissions = set
	}

	rec, err := s.repo.Update(ctx, repo.FromDefinition(role))
	if err != nil {
		return Role{}, mapPersistenceError(err, roleID.String())
	}

	updated := repo.ToDefinition(rec)
	s.audit.Record(ctx, tenantID, "update", "role", updated.ID.String(), map[string]any{
		"code":        updated.Code,
		"permissions": updated.Permissions.Map(),
	})
	return updated, nil
}

// Seed creates the default roles whose codes the tenant does not have yet.
func (s *service) Seed(ctx context.Context, tenantID uuid.UUID) (SeedResult, error) {
	existing, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return SeedResult{}, fmt.Errorf("list roles: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, rec := range existing {
		have[rec.Code] = true
	}

	var result SeedResult
	for _, def := range DefaultRoles() {
		if have[def.Code] {
			result.Skipped = append(result.Skipped, def.Code)
			continue
		}
		role, err := s.Create(ctx, tenantID, def)
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, role)
	}
	return result, nil
}

func permissionSet(grants map[string]bool) (authz.CapabilitySet, error) {
	set, unknown := authz.FromMap(grants)
	if len(unknown) == 0 {
		return set, nil
	}

	sort.Strings(unknown)
	fields := apperrors.FieldErrors{}
	for _, name := range unknown {
		fields.Add("permissions."+name, "unknown capability")
	}
	return authz.CapabilitySet{}, apperrors.Validation(fields)
}

func mapPersistenceError(err error, roleID string) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return apperrors.NotFound(fmt.Sprintf("role %s not found", roleID))
	}
	return fmt.Errorf("role %s: %w", roleID, err)
}
