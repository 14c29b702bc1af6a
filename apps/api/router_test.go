package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/mealvote/contracts"
	votesservice "github.com/zenGate-Global/mealvote/domains/votes/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

var testTenant = tenant.Context{
	TenantID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	Slug:     "default",
	Name:     "Default",
	Status:   tenant.StatusActive,
}

type caller struct {
	userID string
	role   string
}

var (
	anonymous = caller{}
	admin     = caller{userID: "admin-1", role: "admin"}
	kitchen   = caller{userID: "chef-1", role: "Cocina"}
	manager   = caller{userID: "boss-1", role: "manager"}
)

func employee(id string) caller { return caller{userID: id, role: "employee"} }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	now := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

	app, err := newApplication(context.Background(), memoryRepositories(), appOptions{
		defaultTenant: testTenant,
		legacy:        authz.DefaultLegacyRoleMap(),
		auditSink:     audit.Nop{},
		seedRoles:     true,
		voteOptions:   []votesservice.Option{votesservice.WithClock(func() time.Time { return now })},
	}, logger)
	require.NoError(t, err)

	contract, err := contracts.Load()
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(app, routerConfig{
		requestTimeout: 5 * time.Second,
		auth:           platformauth.HeaderIdentity,
		contract:       contract,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, c caller, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(platformauth.HeaderUserID, c.userID)
		req.Header.Set(platformauth.HeaderTenantID, testTenant.TenantID.String())
		req.Header.Set(platformauth.HeaderUserRole, c.role)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func createLunch(t *testing.T, srv *httptest.Server) {
	t.Helper()
	status, body := do(t, srv, admin, http.MethodPost, "/api/v1/shifts", map[string]any{
		"shiftId":    "lunch",
		"name":       "Lunch",
		"cutoffTime": "10:00",
		"timezone":   "UTC",
	})
	require.Equal(t, http.StatusOK, status, string(body))
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, srv, anonymous, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, srv, anonymous, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, srv, anonymous, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "/api/v1/votes")

	status, body = do(t, srv, anonymous, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "go_goroutines")
}

func TestTenantAndPermissionsAreOpen(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, anonymous, http.MethodGet, "/api/v1/tenant", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	current := decode[map[string]any](t, body)
	require.Equal(t, "default", current["slug"])
	require.Equal(t, true, current["acceptsWrites"])

	status, body = do(t, srv, anonymous, http.MethodGet, "/api/v1/me/permissions", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, "default", decode[map[string]any](t, body)["tenantSlug"])
}

func TestVotingDayEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	createLunch(t, srv)

	vote := func(c caller, choice string) int {
		status, body := do(t, srv, c, http.MethodPost, "/api/v1/votes", map[string]any{
			"date": "2025-03-12", "shiftId": "lunch", "choice": choice,
		})
		require.Less(t, status, 300, string(body))
		return status
	}

	require.Equal(t, http.StatusCreated, vote(employee("u1"), "traditional"))
	require.Equal(t, http.StatusOK, vote(employee("u1"), "alternative"))
	require.Equal(t, http.StatusCreated, vote(employee("u2"), "traditional"))

	status, body := do(t, srv, employee("u1"), http.MethodGet, "/api/v1/votes/mine?date=2025-03-12&shiftId=lunch", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, "alternative", decode[map[string]any](t, body)["choice"])

	status, body = do(t, srv, kitchen, http.MethodGet, "/api/v1/votes/tally?date=2025-03-12&shiftId=lunch", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	tally := decode[map[string]any](t, body)
	require.EqualValues(t, 1, tally["traditional"])
	require.EqualValues(t, 1, tally["alternative"])
	require.EqualValues(t, 2, tally["total"])

	status, body = do(t, srv, kitchen, http.MethodPost, "/api/v1/adjustments", map[string]any{
		"date": "2025-03-12", "shiftId": "lunch",
		"addAbsolute": map[string]int{"traditional": 2},
		"note":        "visitors",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, srv, manager, http.MethodGet, "/api/v1/statistics/day?date=2025-03-12&shiftId=lunch", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	day := decode[map[string]any](t, body)
	require.Equal(t, "2025-W11", day["weekOfISO"])
	require.EqualValues(t, 2, day["totalVotes"])
	require.Equal(t, map[string]any{"traditional": float64(3), "alternative": float64(1)}, day["finalCount"])
	require.Equal(t, false, day["degraded"])

	status, body = do(t, srv, manager, http.MethodGet, "/api/v1/statistics/week?week=2025-W11&shiftId=lunch", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	week := decode[map[string]any](t, body)
	require.EqualValues(t, 2, week["totalVotes"])
	require.Len(t, week["days"], 7)
}

func TestSuggestionVotesAreIdempotent(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, employee("u1"), http.MethodPost, "/api/v1/suggestions", map[string]any{"title": "Lentil soup"})
	require.Equal(t, http.StatusCreated, status, string(body))
	id := decode[map[string]any](t, body)["suggestionId"].(string)

	path := "/api/v1/suggestions/" + id + "/votes"
	status, body = do(t, srv, employee("u2"), http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, map[string]any{"success": true, "alreadyVoted": false, "votesCount": float64(1)}, decode[map[string]any](t, body))

	status, body = do(t, srv, employee("u2"), http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.Equal(t, map[string]any{"success": false, "alreadyVoted": true, "votesCount": float64(1)}, decode[map[string]any](t, body))
}

func TestGates(t *testing.T) {
	srv := newTestServer(t)
	createLunch(t, srv)

	cases := []struct {
		name   string
		caller caller
		method string
		path   string
		body   any
		want   int
	}{
		{"anonymous vote", anonymous, http.MethodPost, "/api/v1/votes",
			map[string]any{"date": "2025-03-12", "shiftId": "lunch", "choice": "traditional"}, http.StatusForbidden},
		{"employee tally", employee("u1"), http.MethodGet, "/api/v1/votes/tally?date=2025-03-12&shiftId=lunch", nil, http.StatusForbidden},
		{"employee statistics", employee("u1"), http.MethodGet, "/api/v1/statistics/day?date=2025-03-12&shiftId=lunch", nil, http.StatusForbidden},
		{"kitchen statistics", kitchen, http.MethodGet, "/api/v1/statistics/day?date=2025-03-12&shiftId=lunch", nil, http.StatusForbidden},
		{"employee adjustment", employee("u1"), http.MethodPost, "/api/v1/adjustments",
			map[string]any{"date": "2025-03-12", "shiftId": "lunch", "addAbsolute": map[string]int{"traditional": 1}}, http.StatusForbidden},
		{"manager roles", manager, http.MethodGet, "/api/v1/roles", nil, http.StatusForbidden},
		{"admin roles", admin, http.MethodGet, "/api/v1/roles", nil, http.StatusOK},
		{"employee reads shifts", employee("u1"), http.MethodGet, "/api/v1/shifts", nil, http.StatusOK},
		{"employee writes shift", employee("u1"), http.MethodPost, "/api/v1/shifts",
			map[string]any{"shiftId": "dinner", "name": "Dinner", "cutoffTime": "16:00", "timezone": "UTC"}, http.StatusForbidden},
		{"unknown field", employee("u1"), http.MethodPost, "/api/v1/votes",
			map[string]any{"date": "2025-03-12", "shiftId": "lunch", "choice": "traditional", "count": 3}, http.StatusBadRequest},
		{"unknown choice", employee("u1"), http.MethodPost, "/api/v1/votes",
			map[string]any{"date": "2025-03-12", "shiftId": "lunch", "choice": "vegan"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, srv, tc.caller, tc.method, tc.path, tc.body)
			require.Equal(t, tc.want, status, string(body))
		})
	}
}

func TestVotingClosedAfterCutoff(t *testing.T) {
	srv := newTestServer(t)
	createLunch(t, srv)

	status, body := do(t, srv, employee("u1"), http.MethodPost, "/api/v1/votes", map[string]any{
		"date": "2025-03-09", "shiftId": "lunch", "choice": "traditional",
	})
	require.Equal(t, http.StatusConflict, status, string(body))
}

func TestMaintenanceBlocksDefaultTenant(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, admin, http.MethodPut, "/api/v1/tenant/maintenance", map[string]any{
		"active": true, "message": "menu import",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, srv, employee("u1"), http.MethodGet, "/api/v1/suggestions", nil)
	require.Equal(t, http.StatusServiceUnavailable, status, string(body))
	require.Contains(t, string(body), "menu import")
}
