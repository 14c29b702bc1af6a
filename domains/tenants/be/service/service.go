package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Errors returned by repositories.
var (
	ErrNotFound     = errors.New("tenant not found")
	ErrConflictSlug = errors.New("tenant slug already exists")
)

// Tenant represents a tenant registry entry.
type Tenant struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Status      tenant.Status
	Maintenance tenant.Maintenance
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Context returns the request-scoped view of the tenant.
func (t Tenant) Context() tenant.Context {
	return tenant.Context{
		TenantID:    t.ID,
		Slug:        t.Slug,
		Name:        t.Name,
		Status:      t.Status,
		Maintenance: t.Maintenance,
	}
}

// RegisterInput creates or refreshes a registry entry. A nil ID generates one.
type RegisterInput struct {
	ID     *uuid.UUID `json:"tenantId,omitempty"`
	Slug   string     `json:"slug" validate:"required,slug,max=63"`
	Name   string     `json:"name" validate:"required,max=120"`
	Status string     `json:"status" validate:"omitempty,oneof=active suspended trial expired"`
}

// MaintenanceInput opens or closes a maintenance window.
type MaintenanceInput struct {
	Active  bool       `json:"active"`
	Message string     `json:"message" validate:"max=500"`
	Until   *time.Time `json:"until,omitempty"`
}

// Repository abstracts persistence.
type Repository interface {
	List(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
	FindBySlug(ctx context.Context, slug string) (Tenant, error)
	Upsert(ctx context.Context, t Tenant) (Tenant, error)
}

// Service provides tenant registry operations and implements tenant.Lookup.
type Service struct {
	repo  Repository
	audit *audit.Recorder
}

// New constructs a Service. recorder may be nil.
func New(repo Repository, recorder *audit.Recorder) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	return &Service{repo: repo, audit: recorder}
}

// List returns every registered tenant ordered by slug.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, mapNotFound(err, id.String())
	}
	return t, nil
}

// FindBySlug returns the tenant registered under slug.
func (s *Service) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	normalized, err := persistence.NormalizeSlug(slug)
	if err != nil {
		return Tenant{}, apperrors.Invalid("slug", err.Error())
	}
	t, err := s.repo.FindBySlug(ctx, normalized)
	if err != nil {
		return Tenant{}, mapNotFound(err, normalized)
	}
	return t, nil
}

// FindContextBySlug implements tenant.Lookup.
func (s *Service) FindContextBySlug(ctx context.Context, slug string) (tenant.Context, error) {
	t, err := s.FindBySlug(ctx, slug)
	if err != nil {
		return tenant.Context{}, err
	}
	return t.Context(), nil
}

// Register creates a tenant or refreshes the name, slug and status of an existing one.
// Maintenance settings of an existing tenant are preserved.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Tenant, error) {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Tenant{}, err
	}
	if _, err := persistence.NormalizeSlug(input.Slug); err != nil {
		return Tenant{}, apperrors.Invalid("slug", "must contain only lowercase letters, digits and hyphens")
	}

	next := Tenant{
		ID:     uuid.New(),
		Slug:   input.Slug,
		Name:   input.Name,
		Status: tenant.StatusActive,
	}
	if input.Status != "" {
		next.Status = tenant.ParseStatus(input.Status)
	}
	if input.ID != nil && *input.ID != uuid.Nil {
		next.ID = *input.ID
		if current, err := s.repo.Get(ctx, next.ID); err == nil {
			next.Maintenance = current.Maintenance
			next.CreatedAt = current.CreatedAt
		} else if !errors.Is(err, ErrNotFound) {
			return Tenant{}, fmt.Errorf("load tenant %s: %w", next.ID, err)
		}
	}

	saved, err := s.repo.Upsert(ctx, next)
	if err != nil {
		if errors.Is(err, ErrConflictSlug) {
			return Tenant{}, apperrors.Invalid("slug", fmt.Sprintf("slug %q is taken", input.Slug))
		}
		return Tenant{}, fmt.Errorf("register tenant %s: %w", input.Slug, err)
	}

	s.audit.Record(ctx, saved.ID, "register", "tenant", saved.ID.String(), map[string]any{
		"slug":   saved.Slug,
		"status": string(saved.Status),
	})
	return saved, nil
}

// EnsureRegistered registers tc unless a tenant with its id already exists.
// The API calls it at startup for the default tenant.
func (s *Service) EnsureRegistered(ctx context.Context, tc tenant.Context) (Tenant, error) {
	if tc.TenantID == uuid.Nil {
		return Tenant{}, apperrors.Invalid("tenantId", "is required")
	}
	existing, err := s.repo.Get(ctx, tc.TenantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Tenant{}, fmt.Errorf("load tenant %s: %w", tc.TenantID, err)
	}

	id := tc.TenantID
	name := tc.Name
	if name == "" {
		name = tc.Slug
	}
	return s.Register(ctx, RegisterInput{ID: &id, Slug: tc.Slug, Name: name, Status: string(tc.Status)})
}

// SetMaintenance opens or closes the tenant's maintenance window.
func (s *Service) SetMaintenance(ctx context.Context, id uuid.UUID, input MaintenanceInput) (Tenant, error) {
	input.Message = strings.TrimSpace(input.Message)
	if err := validation.Struct(input); err != nil {
		return Tenant{}, err
	}
	if input.Active && input.Message == "" {
		return Tenant{}, apperrors.Invalid("message", "is required while maintenance is active")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, mapNotFound(err, id.String())
	}

	current.Maintenance = tenant.Maintenance{Active: input.Active, Message: input.Message}
	if input.Active && input.Until != nil {
		until := input.Until.UTC()
		current.Maintenance.Until = &until
	}

	saved, err := s.repo.Upsert(ctx, current)
	if err != nil {
		return Tenant{}, fmt.Errorf("update tenant %s: %w", id, err)
	}

	s.audit.Record(ctx, id, "maintenance", "tenant", id.String(), map[string]any{"active": input.Active})
	return saved, nil
}

func mapNotFound(err error, key string) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound(fmt.Sprintf("tenant %s not found", key))
	}
	return err
}
