package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxIdentity ctxKey = "MEALVOTE_IDENTITY"
)

// Headers read by HeaderIdentity.
const (
	HeaderUserID   = "X-User-Id"
	HeaderTenantID = "X-Tenant-Id"
	HeaderUserRole = "X-User-Role"
)

// Identity is an already-authenticated claim: who the caller is, for which tenant, with which role label.
// The core never verifies it; verification belongs to the transport.
type Identity struct {
	UserID   string
	TenantID uuid.UUID
	Role     string
	Email    string
}

// Anonymous reports whether the identity lacks a tenant or role and therefore carries no capabilities.
func (i Identity) Anonymous() bool {
	return i.TenantID == uuid.Nil || strings.TrimSpace(i.Role) == ""
}

// WithIdentity stores an Identity on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFromContext returns the identity attached by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(ctxIdentity)
	if v == nil {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// VerifyFunc validates the incoming JWT and returns its claims map.
type VerifyFunc func(ctx context.Context, token string) (map[string]interface{}, error)

// ExtractFunc converts a claims map into an Identity. ctx is the request context,
// so lookups made while extracting are bounded by the request.
type ExtractFunc func(ctx context.Context, claims map[string]interface{}) (Identity, error)

// JWT parses the request and sets the context identity using the provided verify/extract functions.
// Requests without a bearer token pass through anonymously.
func JWT(verify VerifyFunc, extract ExtractFunc) func(http.Handler) http.Handler {
	if verify == nil {
		panic("auth.JWT: verify func must not be nil")
	}
	if extract == nil {
		extract = func(_ context.Context, claims map[string]interface{}) (Identity, error) {
			return DefaultIdentityExtractor(claims)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractJWTToken(r)
			if token == "" || !found {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verify(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="api", error="invalid_token", error_description="%s"`, err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := extract(r.Context(), claims)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="invalid claims"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// HeaderIdentity trusts identity headers set by an upstream gateway (X-User-Id, X-Tenant-Id, X-User-Role).
// Requests without X-User-Id pass through anonymously.
func HeaderIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok, err := ParseIdentity(r.Header)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// ParseIdentity reads the identity headers. ok is false when no user id is present.
func ParseIdentity(h http.Header) (Identity, bool, error) {
	userID := strings.TrimSpace(h.Get(HeaderUserID))
	if userID == "" {
		return Identity{}, false, nil
	}

	identity := Identity{
		UserID: userID,
		Role:   strings.TrimSpace(h.Get(HeaderUserRole)),
	}

	if raw := strings.TrimSpace(h.Get(HeaderTenantID)); raw != "" {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return Identity{}, false, fmt.Errorf("invalid tenant id header: %w", err)
		}
		identity.TenantID = tid
	}

	return identity, true, nil
}

// TenantClaim returns the raw tenant claim (uuid or external slug) from a claims map.
func TenantClaim(claims map[string]interface{}) string {
	if v := extractStringClaim(claims, "tenantId"); v != "" {
		return v
	}
	if firebaseClaim, ok := claims["firebase"].(map[string]interface{}); ok {
		if tenant, ok := firebaseClaim["tenant"].(string); ok && tenant != "" {
			return tenant
		}
	}
	return ""
}

// DefaultIdentityExtractor converts standard claims into an Identity. The tenant claim must be a UUID;
// callers that accept slugs wrap this extractor and map the slug first.
func DefaultIdentityExtractor(claims map[string]interface{}) (Identity, error) {
	if claims == nil {
		return Identity{}, errors.New("missing claims")
	}

	identity := Identity{
		UserID: fallbackStringClaim(claims, []string{"uid", "user_id", "sub"}, ""),
		Email:  extractStringClaim(claims, "email"),
		Role:   extractRoleClaim(claims),
	}
	if identity.UserID == "" {
		return Identity{}, errors.New("missing user id claim")
	}

	if raw := TenantClaim(claims); raw != "" {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return Identity{}, fmt.Errorf("tenant claim is not a uuid: %w", err)
		}
		identity.TenantID = tid
	}

	return identity, nil
}

func extractRoleClaim(claims map[string]interface{}) string {
	if role := extractStringClaim(claims, "role"); role != "" {
		return role
	}
	if roles, ok := claims["tenantRoles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok && s != "" {
				return s
			}
		}
	}
	if extractBoolClaim(claims, "isAdmin") {
		return "admin"
	}
	return ""
}

func extractBoolClaim(claims map[string]interface{}, key string) bool {
	if v, ok := claims[key]; ok {
		if boolVal, valid := v.(bool); valid {
			return boolVal
		}
	}
	return false
}

func extractStringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key]; ok {
		if strVal, valid := v.(string); valid {
			return strVal
		}
	}
	return ""
}

func parseUnsignedJWTClaims(token string) (map[string]interface{}, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}

	payload := parts[1]
	switch len(payload) % 4 {
	case 2:
		payload += "=="
	case 3:
		payload += "="
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	claims := make(map[string]interface{})
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	return claims, nil
}

func fallbackStringClaim(claims map[string]interface{}, keys []string, def string) string {
	for _, key := range keys {
		if v := extractStringClaim(claims, key); v != "" {
			return v
		}
	}
	return def
}

// FirebaseTokenVerifier returns a VerifyFunc that validates tokens via Firebase Auth.
func FirebaseTokenVerifier(fbAuth *auth.Client) VerifyFunc {
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		t, err := fbAuth.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, err
		}

		claims := make(map[string]interface{}, len(t.Claims)+2)
		for k, v := range t.Claims {
			claims[k] = v
		}
		claims["uid"] = t.UID
		claims["sub"] = t.Subject
		if tenant := t.Firebase.Tenant; tenant != "" {
			if firebaseClaim, ok := claims["firebase"].(map[string]interface{}); ok {
				firebaseClaim["tenant"] = tenant
				claims["firebase"] = firebaseClaim
			} else {
				claims["firebase"] = map[string]interface{}{"tenant": tenant}
			}
		}

		return claims, nil
	}
}

// UnsignedTokenVerifier returns a VerifyFunc that decodes unsigned JWT payloads without validation.
func UnsignedTokenVerifier() VerifyFunc {
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		return parseUnsignedJWTClaims(token)
	}
}
