package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tenantsservice "github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/gcp"
)

// buildAuthMiddleware constructs the identity middleware for cfg.AuthProvider. Bearer tokens may carry
// the tenant as a uuid or as a registered slug; slugs are mapped to the tenant id.
func buildAuthMiddleware(ctx context.Context, cfg config, tenants *tenantsservice.Service, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	var verify platformauth.VerifyFunc
	switch cfg.AuthProvider {
	case "firebase":
		fbAuth, err := gcp.InitFirebaseAuth(ctx, gcp.FirebaseConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	case "header":
		logger.Warn("trusting identity headers from an upstream gateway")
		return platformauth.HeaderIdentity, nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}

	return platformauth.JWT(verify, tenantSlugExtractor(tenants)), nil
}

type tenantSlugLookup interface {
	FindBySlug(ctx context.Context, slug string) (tenantsservice.Tenant, error)
}

// tenantSlugExtractor wraps the default extractor, rewriting a slug tenant claim into the tenant id.
// The lookup runs under the request context.
func tenantSlugExtractor(tenants tenantSlugLookup) platformauth.ExtractFunc {
	return func(ctx context.Context, claims map[string]interface{}) (platformauth.Identity, error) {
		raw := platformauth.TenantClaim(claims)
		if raw == "" {
			return platformauth.DefaultIdentityExtractor(claims)
		}
		if _, err := uuid.Parse(raw); err == nil {
			return platformauth.DefaultIdentityExtractor(claims)
		}

		t, err := tenants.FindBySlug(ctx, raw)
		if err != nil {
			return platformauth.Identity{}, fmt.Errorf("resolve tenant claim %q: %w", raw, err)
		}

		mapped := make(map[string]interface{}, len(claims)+1)
		for k, v := range claims {
			mapped[k] = v
		}
		mapped["tenantId"] = t.ID.String()
		return platformauth.DefaultIdentityExtractor(mapped)
	}
}
