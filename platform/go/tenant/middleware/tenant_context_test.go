package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type recordingResolver struct {
	hints   []string
	tenants map[string]tenant.Context
	def     tenant.Context
}

func (r *recordingResolver) Resolve(ctx context.Context, hint string) tenant.Context {
	r.hints = append(r.hints, hint)
	if tc, ok := r.tenants[hint]; ok {
		return tc
	}
	return r.def
}

func TestHintFromRequest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		host   string
		header string
		want   string
	}{
		{name: "header wins", host: "beta.mealvote.app", header: "Acme", want: "acme"},
		{name: "subdomain", host: "acme.mealvote.app", want: "acme"},
		{name: "subdomain with port", host: "acme.mealvote.app:8080", want: "acme"},
		{name: "apex domain", host: "mealvote.app", want: ""},
		{name: "localhost", host: "localhost:3000", want: ""},
		{name: "ip address", host: "10.0.0.1:3000", want: ""},
		{name: "malformed header", host: "mealvote.app", header: "bad_slug!", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tc.host
			if tc.header != "" {
				req.Header.Set(HeaderTenantSlug, tc.header)
			}
			require.Equal(t, tc.want, HintFromRequest(req))
		})
	}
}

func TestWithTenantContextAttachesResolvedTenant(t *testing.T) {
	t.Parallel()

	acme := tenant.Context{TenantID: uuid.New(), Slug: "acme", Status: tenant.StatusActive}
	def := tenant.Context{TenantID: uuid.New(), Slug: "default", Status: tenant.StatusActive}
	resolver := &recordingResolver{tenants: map[string]tenant.Context{"acme": acme}, def: def}

	var got tenant.Context
	handler := WithTenantContext(resolver, Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = tenant.FromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTenantSlug, "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, acme, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, def, got)
	require.Equal(t, []string{"acme", ""}, resolver.hints)
}

func TestWithTenantContextBlocksMaintenance(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	testCases := []struct {
		name        string
		maintenance tenant.Maintenance
		wantStatus  int
	}{
		{name: "no maintenance", maintenance: tenant.Maintenance{}, wantStatus: http.StatusOK},
		{name: "open ended", maintenance: tenant.Maintenance{Active: true, Message: "upgrading"}, wantStatus: http.StatusServiceUnavailable},
		{name: "until future", maintenance: tenant.Maintenance{Active: true, Until: &until}, wantStatus: http.StatusServiceUnavailable},
		{name: "expired window", maintenance: tenant.Maintenance{Active: true, Until: &past}, wantStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &recordingResolver{def: tenant.Context{Slug: "default", Maintenance: tc.maintenance}}
			handler := WithTenantContext(resolver, Config{Now: func() time.Time { return now }})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
