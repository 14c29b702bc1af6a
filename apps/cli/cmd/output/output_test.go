package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	WeekOfISO  string `json:"weekOfISO"`
	TotalVotes int    `json:"totalVotes"`
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, JSON, sample{WeekOfISO: "2025-W11", TotalVotes: 4}))
	require.JSONEq(t, `{"weekOfISO":"2025-W11","totalVotes":4}`, buf.String())
}

func TestPrintYAMLKeepsJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, YAML, sample{WeekOfISO: "2025-W11", TotalVotes: 4}))
	require.YAMLEq(t, "weekOfISO: 2025-W11\ntotalVotes: 4\n", buf.String())
}

func TestPrintRejectsUnknownFormat(t *testing.T) {
	require.Error(t, Print(&bytes.Buffer{}, "xml", sample{}))
}
