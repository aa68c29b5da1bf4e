package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/results"
)

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"rawResults":        "true",
		"includeRawResults": false,
		"frame":             map[string]any{"@type": "schema:Person"},
		"parsing": map[string]any{
			"type":            "properties",
			"subjectVariable": "thing",
		},
		"timeoutHint": 30,
	})
	require.NoError(t, err)

	assert.True(t, opts.RawResults)
	assert.False(t, opts.IncludeRawResults)
	assert.Equal(t, map[string]any{"@type": "schema:Person"}, opts.Frame)
	assert.Equal(t, results.ModeProperties, opts.Parsing.Mode)
	assert.Equal(t, "thing", opts.Parsing.SubjectVariable)
	assert.Equal(t, map[string]any{"timeoutHint": 30}, opts.Extra)
}

func TestDecodeOptions_RowProcessor(t *testing.T) {
	var proc results.RowProcessor = func(row results.Row, acc []any) []any { return append(acc, row) }

	opts, err := DecodeOptions(map[string]any{
		"parsing": map[string]any{"type": "custom", "rowProcessor": proc},
	})
	require.NoError(t, err)
	require.NotNil(t, opts.Parsing.RowProcessor)
	assert.Len(t, opts.Parsing.RowProcessor(results.Row{}, nil), 1)
}

func TestDecodeOptions_Empty(t *testing.T) {
	opts, err := DecodeOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestDecodeOptions_WrongShape(t *testing.T) {
	_, err := DecodeOptions(map[string]any{"frame": "not a map"})
	assert.ErrorContains(t, err, "decode options")
}
