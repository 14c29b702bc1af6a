package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{name: "validation", err: apperrors.Invalid("date", "date is required"), status: http.StatusBadRequest, kind: "validation"},
		{name: "forbidden", err: apperrors.Forbidden("missing capability kitchenManage"), status: http.StatusForbidden, kind: "forbidden"},
		{name: "closed wrapped", err: fmt.Errorf("cast: %w", apperrors.Closed("voting closed")), status: http.StatusConflict, kind: "closed"},
		{name: "not found", err: apperrors.NotFound("suggestion not found"), status: http.StatusNotFound, kind: "not_found"},
		{name: "unavailable", err: apperrors.Unavailable("storage unavailable", errors.New("x")), status: http.StatusServiceUnavailable, kind: "unavailable"},
		{name: "plain", err: errors.New("boom"), status: http.StatusInternalServerError, kind: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, p := FromError(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.status, p.Status)
			require.Equal(t, tc.kind, p.Kind)
		})
	}
}

func TestFromErrorDoesNotLeakInternalCause(t *testing.T) {
	t.Parallel()

	_, p := FromError(errors.New("pq: password authentication failed"))
	require.NotNil(t, p.Detail)
	require.NotContains(t, *p.Detail, "password")
}

func TestWrite(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	_, p := FromError(apperrors.Invalid("choice", "choice must be traditional or alternative"))
	Write(rec, p)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "validation", body["kind"])
	require.Contains(t, body["errors"], "choice")
}
