package exchange

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/results"
)

const selectJSON = `{
  "head": {"vars": ["s", "name"]},
  "results": {"bindings": [
    {"s": {"type": "uri", "value": "http://dbpedia.org/resource/Berlin"}, "name": {"type": "literal", "value": "Berlin"}},
    {"s": {"type": "uri", "value": "http://example.org/thing"}}
  ]}
}`

const personTurtle = `@prefix schema: <http://schema.org/> .
<http://example.org/tim> a schema:Person ; schema:name "Tim" .
`

func parse(t *testing.T, stage *ParseStage, req *Request) (*Result, error) {
	t.Helper()
	return stage.Execute(context.Background(), req, nil)
}

func TestParseStage_SimpleSelect(t *testing.T) {
	stage := NewParseStage(map[string]string{"dbr": "http://dbpedia.org/resource/"})

	res, err := parse(t, stage, &Request{Response: json.RawMessage(selectJSON)})
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"s": "dbr:Berlin", "name": "Berlin"},
		{"s": "http://example.org/thing"},
	}, res.Response)
}

func TestParseStage_NilStaysNil(t *testing.T) {
	res, err := parse(t, NewParseStage(nil), &Request{})
	require.NoError(t, err)
	assert.Nil(t, res.Response)
}

func TestParseStage_EmptyObjectPassesThrough(t *testing.T) {
	res, err := parse(t, NewParseStage(nil), &Request{Response: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{}`), res.Response)
}

func TestParseStage_RawResults(t *testing.T) {
	raw := json.RawMessage(`not even json`)
	res, err := parse(t, NewParseStage(nil), &Request{Response: raw, Options: Options{RawResults: true}})
	require.NoError(t, err)
	assert.Equal(t, raw, res.Response)
}

func TestParseStage_IncludeRawResults(t *testing.T) {
	res, err := parse(t, NewParseStage(nil), &Request{
		Response: json.RawMessage(selectJSON),
		Options:  Options{IncludeRawResults: true},
	})
	require.NoError(t, err)

	withRaw, ok := res.Response.(results.WithRaw)
	require.True(t, ok, "got %T", res.Response)
	assert.JSONEq(t, selectJSON, string(withRaw.Raw))
	assert.Len(t, withRaw.Results, 2)
}

func TestParseStage_IncludeRawResultsSkipsBoolean(t *testing.T) {
	res, err := parse(t, NewParseStage(nil), &Request{
		Response: json.RawMessage(`{"head":{},"boolean":false}`),
		Options:  Options{IncludeRawResults: true},
	})
	require.NoError(t, err)
	assert.Equal(t, false, res.Response)
}

func TestParseStage_PropertiesMode(t *testing.T) {
	res, err := parse(t, NewParseStage(nil), &Request{
		Response: json.RawMessage(selectJSON),
		Options: Options{Parsing: results.ParseOptions{
			Mode:              results.ModeProperties,
			SubjectVariable:   "s",
			PredicateVariable: "s",
			ObjectVariable:    "name",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{
		"http://dbpedia.org/resource/Berlin": {"http://dbpedia.org/resource/Berlin": "Berlin"},
	}, res.Response)
}

func TestParseStage_FramedGraph(t *testing.T) {
	stage := NewParseStage(map[string]string{"schema": "http://schema.org/"})

	res, err := parse(t, stage, &Request{
		Response: personTurtle,
		Options:  Options{Frame: map[string]any{"@type": "schema:Person"}},
	})
	require.NoError(t, err)

	node, ok := res.Response.(map[string]any)
	require.True(t, ok, "got %T", res.Response)
	assert.Equal(t, "http://example.org/tim", node["@id"])
	assert.Equal(t, "Tim", node["schema:name"])
}

func TestParseStage_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{"head": [}`)
	_, err := parse(t, NewParseStage(nil), &Request{Response: raw})

	var perr *ResultParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, raw, perr.Response)
	assert.True(t, IsResultParseError(err))
}

func TestParseStage_InvalidResultsDocument(t *testing.T) {
	_, err := parse(t, NewParseStage(nil), &Request{Response: json.RawMessage(`{"unexpected": 1}`)})

	var verr *results.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, IsResultParseError(err))
}

func TestParseStage_MalformedTurtle(t *testing.T) {
	body := "<http://ex/a> <http://ex/b> ."
	_, err := parse(t, NewParseStage(nil), &Request{Response: body})

	var perr *ResultParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, body, perr.Response)
}

func TestParseStage_Forwards(t *testing.T) {
	var seen any
	next := func(ctx context.Context, req *Request) (*Result, error) {
		seen = req.Response
		return req.Result(), nil
	}
	_, err := NewParseStage(nil).Execute(context.Background(), &Request{Response: json.RawMessage(`{"head":{},"boolean":true}`)}, next)
	require.NoError(t, err)
	assert.Equal(t, true, seen)
}
