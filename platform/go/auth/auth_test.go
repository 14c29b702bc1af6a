package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTenantClaim(t *testing.T) {
	testCases := []struct {
		name   string
		claims map[string]interface{}
		want   string
	}{
		{
			name:   "top level tenantId",
			claims: map[string]interface{}{"tenantId": "tenant-dev"},
			want:   "tenant-dev",
		},
		{
			name: "firebase tenant claim",
			claims: map[string]interface{}{
				"firebase": map[string]interface{}{"tenant": "tenant-firebase"},
			},
			want: "tenant-firebase",
		},
		{
			name:   "missing tenant",
			claims: map[string]interface{}{},
			want:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, TenantClaim(tc.claims))
		})
	}
}

func TestDefaultIdentityExtractor(t *testing.T) {
	tenantID := uuid.New()

	identity, err := DefaultIdentityExtractor(map[string]interface{}{
		"user_id":  "user-123",
		"email":    "user@example.com",
		"tenantId": tenantID.String(),
		"role":     "kitchen",
	})
	require.NoError(t, err)
	require.Equal(t, "user-123", identity.UserID)
	require.Equal(t, tenantID, identity.TenantID)
	require.Equal(t, "kitchen", identity.Role)
	require.False(t, identity.Anonymous())
}

func TestDefaultIdentityExtractorRoleFallbacks(t *testing.T) {
	identity, err := DefaultIdentityExtractor(map[string]interface{}{
		"sub":         "user-1",
		"tenantRoles": []interface{}{"staff", "admin"},
	})
	require.NoError(t, err)
	require.Equal(t, "staff", identity.Role)

	identity, err = DefaultIdentityExtractor(map[string]interface{}{"sub": "user-1", "isAdmin": true})
	require.NoError(t, err)
	require.Equal(t, "admin", identity.Role)
	require.True(t, identity.Anonymous(), "no tenant means no capabilities")
}

func TestDefaultIdentityExtractorRejectsBadClaims(t *testing.T) {
	_, err := DefaultIdentityExtractor(map[string]interface{}{"role": "admin"})
	require.Error(t, err)

	_, err = DefaultIdentityExtractor(map[string]interface{}{"sub": "u", "tenantId": "not-a-uuid"})
	require.Error(t, err)
}

func TestJWTMiddlewareWithUnsignedToken(t *testing.T) {
	tenantID := uuid.New()
	token := unsignedToken(t, map[string]interface{}{
		"sub":      "user-42",
		"tenantId": tenantID.String(),
		"role":     "employee",
	})

	var got Identity
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, Identity{UserID: "user-42", TenantID: tenantID, Role: "employee"}, got)
}

func TestJWTMiddlewareRejectsGarbage(t *testing.T) {
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
}

func TestJWTMiddlewarePassesAnonymous(t *testing.T) {
	called := false
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := IdentityFromContext(r.Context())
		require.False(t, ok)
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestHeaderIdentity(t *testing.T) {
	tenantID := uuid.New()

	var got Identity
	handler := HeaderIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set(HeaderUserRole, "Kitchen")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, Identity{UserID: "u-1", TenantID: tenantID, Role: "Kitchen"}, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderTenantID, "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func TestJWTMiddlewareHandsRequestContextToExtractor(t *testing.T) {
	token := unsignedToken(t, map[string]interface{}{"sub": "user-42", "tenantId": "acme"})

	extract := func(ctx context.Context, claims map[string]interface{}) (Identity, error) {
		if err := ctx.Err(); err != nil {
			return Identity{}, err
		}
		return Identity{UserID: "user-42"}, nil
	}
	handler := JWT(UnsignedTokenVerifier(), extract)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
