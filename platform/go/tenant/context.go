package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusTrial     Status = "trial"
	StatusExpired   Status = "expired"
)

// ParseStatus converts a stored string into a Status; unknown values map to suspended.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusActive, StatusSuspended, StatusTrial, StatusExpired:
		return Status(s)
	default:
		return StatusSuspended
	}
}

// Maintenance describes a tenant-wide maintenance window.
type Maintenance struct {
	Active  bool
	Message string
	Until   *time.Time
}

// InEffect reports whether the window blocks requests at now.
func (m Maintenance) InEffect(now time.Time) bool {
	if !m.Active {
		return false
	}
	return m.Until == nil || now.Before(*m.Until)
}

// Context captures the resolved tenant identity for a single request.
// It is a value: once resolved it is passed along, never mutated.
type Context struct {
	TenantID    uuid.UUID
	Slug        string
	Name        string
	Status      Status
	Maintenance Maintenance
}

// AcceptsWrites reports whether members of the tenant may record votes and adjustments.
func (c Context) AcceptsWrites() bool {
	return c.Status == StatusActive || c.Status == StatusTrial
}

type ctxKey struct{}

// WithContext returns a derived context carrying the tenant Context.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext extracts the tenant Context and a boolean indicating presence.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Require returns the tenant Context attached by the resolver middleware.
// Its absence is a wiring fault, reported as unavailable.
func Require(ctx context.Context) (Context, error) {
	tc, ok := FromContext(ctx)
	if !ok || tc.TenantID == uuid.Nil {
		return Context{}, apperrors.Unavailable("tenant context is not resolved", nil)
	}
	return tc, nil
}
