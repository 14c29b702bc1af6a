package authz

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type ctxKey struct{}

// WithCapabilities stores the capability set resolved for the current request.
func WithCapabilities(ctx context.Context, set CapabilitySet) context.Context {
	return context.WithValue(ctx, ctxKey{}, set)
}

// CapabilitiesFromContext returns the set resolved by RequireCapability, if any.
func CapabilitiesFromContext(ctx context.Context) (CapabilitySet, bool) {
	set, ok := ctx.Value(ctxKey{}).(CapabilitySet)
	return set, ok
}

// Guard bundles the resolver with the metrics recorder for HTTP gating.
type Guard struct {
	resolver *Resolver
	metrics  *metrics.Recorder
}

// NewGuard builds HTTP gates around resolver. recorder may be nil.
func NewGuard(resolver *Resolver, recorder *metrics.Recorder) *Guard {
	if resolver == nil {
		panic("authz guard requires a resolver")
	}
	return &Guard{resolver: resolver, metrics: recorder}
}

// Resolve derives the caller's capability set from the request context.
func (g *Guard) Resolve(r *http.Request) CapabilitySet {
	identity, ok := platformauth.IdentityFromContext(r.Context())
	if !ok {
		return None()
	}
	tc, _ := tenant.FromContext(r.Context())
	return g.resolver.ResolvePermissions(r.Context(), tc, identity)
}

// RequireCapability resolves the caller's permissions on every request and
// rejects with 403 unless capability c is granted.
func (g *Guard) RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := g.Resolve(r)
			if err := RequirePermission(set, c); err != nil {
				g.deny(w, r, string(c), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCapabilities(r.Context(), set)))
		})
	}
}

// RequireRole rejects with 403 unless the caller's role label is one of allowed.
func (g *Guard) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	gate := "role"
	if len(allowed) > 0 {
		gate = "role:" + allowed[0]
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := platformauth.IdentityFromContext(r.Context())
			tc, _ := tenant.FromContext(r.Context())
			if !identity.Anonymous() && tc.TenantID != identity.TenantID {
				identity.Role = ""
			}
			if err := g.resolver.RequireRole(identity, allowed...); err != nil {
				g.deny(w, r, gate, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, gate string, err error) {
	g.metrics.Denied(gate)
	logger := platformlogging.FromContextOr(r.Context(), nil)
	logger.Warn("request denied", zap.String("gate", gate), zap.Error(err))

	_, p := problem.FromError(err)
	problem.Write(w, p)
}
