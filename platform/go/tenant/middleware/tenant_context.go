package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

// HeaderTenantSlug carries an explicit tenant hint, taking precedence over the host.
const HeaderTenantSlug = "X-Tenant-Slug"

// Resolver is the subset of tenant.Resolver used by the middleware.
type Resolver interface {
	Resolve(ctx context.Context, hint string) tenant.Context
}

// Config controls middleware behavior.
type Config struct {
	// Now overrides the clock used for maintenance windows; nil uses time.Now.
	Now func() time.Time
}

// WithTenantContext derives the tenant hint from the request, resolves it and attaches the
// resulting tenant.Context. Requests for a tenant under active maintenance are answered with 503.
func WithTenantContext(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := resolver.Resolve(r.Context(), HintFromRequest(r))

			if tc.Maintenance.InEffect(now()) {
				message := tc.Maintenance.Message
				if message == "" {
					message = "tenant is under maintenance"
				}
				problem.Write(w, problem.New("Service unavailable", message, problem.TypeUnavailable, http.StatusServiceUnavailable))
				return
			}

			ctx := tenant.WithContext(r.Context(), tc)
			if logger, ok := platformlogging.FromContext(ctx); ok {
				ctx = platformlogging.WithLogger(ctx, logger.With(zap.String("tenant", tc.Slug)))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HintFromRequest returns the tenant slug hinted by the request: the X-Tenant-Slug header,
// else the first label of a host with at least three labels. Malformed hints are ignored.
func HintFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get(HeaderTenantSlug)); h != "" {
		return normalize(h)
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return normalize(labels[0])
}

func normalize(hint string) string {
	slug, err := persistence.NormalizeSlug(hint)
	if err != nil {
		return ""
	}
	return slug
}
