package tenant

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Lookup finds the tenant registered under a slug.
// Implemented by the tenants domain service.
type Lookup interface {
	FindContextBySlug(ctx context.Context, slug string) (Context, error)
}

// Resolver maps a request's tenant hint to a Context. It never fails: an absent
// hint, an unknown slug and a failing lookup all resolve to the configured default.
type Resolver struct {
	lookup   Lookup
	fallback Context
	logger   *zap.Logger
}

// NewResolver constructs a Resolver. The fallback must identify a tenant.
func NewResolver(lookup Lookup, fallback Context, logger *zap.Logger) *Resolver {
	if lookup == nil {
		panic("tenant resolver: lookup is required")
	}
	if fallback.Slug == "" {
		panic("tenant resolver: default tenant slug is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, fallback: fallback, logger: logger}
}

// Default returns the configured fallback tenant.
func (r *Resolver) Default() Context {
	return r.fallback
}

// Resolve returns the tenant for hint, falling back to the default tenant.
// The default tenant is still read from the registry so its maintenance window
// and status stay current; the configured fallback covers registry failures.
func (r *Resolver) Resolve(ctx context.Context, hint string) Context {
	slug := strings.ToLower(strings.TrimSpace(hint))
	if slug == "" || slug == r.fallback.Slug {
		tc, err := r.lookup.FindContextBySlug(ctx, r.fallback.Slug)
		if err != nil {
			r.logger.Debug("default tenant lookup failed; using configured default",
				zap.String("default_tenant", r.fallback.Slug),
				zap.Error(err),
			)
			return r.fallback
		}
		return tc
	}

	tc, err := r.lookup.FindContextBySlug(ctx, slug)
	if err != nil {
		r.logger.Warn("tenant lookup failed; using default tenant",
			zap.String("hint", slug),
			zap.String("default_tenant", r.fallback.Slug),
			zap.Error(err),
		)
		return r.fallback
	}

	return tc
}
