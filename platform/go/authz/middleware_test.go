package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

func TestGuardRequireCapability(t *testing.T) {
	resolver, _, tc := newFixture(t)
	guard := NewGuard(resolver, metrics.New(prometheus.NewRegistry()))

	handler := guard.RequireCapability(KitchenManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		set, ok := CapabilitiesFromContext(r.Context())
		require.True(t, ok)
		require.True(t, set.KitchenManage)
		w.WriteHeader(http.StatusNoContent)
	}))

	testCases := []struct {
		name     string
		identity *platformauth.Identity
		want     int
	}{
		{name: "kitchen allowed", identity: &platformauth.Identity{UserID: "cook", TenantID: tc.TenantID, Role: "kitchen"}, want: http.StatusNoContent},
		{name: "employee denied", identity: &platformauth.Identity{UserID: "e", TenantID: tc.TenantID, Role: "employee"}, want: http.StatusForbidden},
		{name: "anonymous denied", identity: nil, want: http.StatusForbidden},
		{name: "other tenant denied", identity: &platformauth.Identity{UserID: "cook", TenantID: uuid.New(), Role: "kitchen"}, want: http.StatusForbidden},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/adjustments", nil)
			ctx := tenant.WithContext(req.Context(), tc)
			if c.identity != nil {
				ctx = platformauth.WithIdentity(ctx, *c.identity)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))
			require.Equal(t, c.want, rec.Code)

			if c.want == http.StatusForbidden {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Equal(t, "forbidden", body["kind"])
				require.Equal(t, "missing capability kitchenManage", body["detail"])
			}
		})
	}
}

func TestGuardRequireRole(t *testing.T) {
	resolver, _, tc := newFixture(t)
	guard := NewGuard(resolver, nil)

	handler := guard.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(identity platformauth.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/roles", nil)
		ctx := platformauth.WithIdentity(tenant.WithContext(req.Context(), tc), identity)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, serve(platformauth.Identity{UserID: "a", TenantID: tc.TenantID, Role: "Administrador"}))
	require.Equal(t, http.StatusForbidden, serve(platformauth.Identity{UserID: "b", TenantID: tc.TenantID, Role: "employee"}))
	require.Equal(t, http.StatusForbidden, serve(platformauth.Identity{UserID: "c", TenantID: uuid.New(), Role: "admin"}))
}
