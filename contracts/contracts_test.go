package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadValidatesEmbeddedContract(t *testing.T) {
	t.Parallel()

	spec, err := Load()
	require.NoError(t, err)
	require.Nil(t, spec.Servers)

	for _, path := range []string{
		"/api/v1/votes",
		"/api/v1/votes/tally",
		"/api/v1/suggestions/{suggestionId}/votes",
		"/api/v1/statistics/week",
		"/api/v1/adjustments",
	} {
		require.NotNil(t, spec.Paths.Find(path), path)
	}

	cast := spec.Paths.Find("/api/v1/votes").Post
	require.Equal(t, "votesCast", cast.OperationID)
	has := cast.RequestBody.Value.Content.Get("application/json").Schema.Value.AdditionalProperties.Has
	require.NotNil(t, has)
	require.False(t, *has, "vote bodies reject unknown fields")
}
