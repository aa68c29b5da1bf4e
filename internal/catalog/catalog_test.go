package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/results"
	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

const citySource = `
package queries

query: cityPopulation: {
	description: "Population of a city"
	text:        "SELECT ?population WHERE { var:city dbo:populationTotal ?population }"
	variables: city: iri: "http://dbpedia.org/resource/Berlin"
	options: parsing: type: "simple"
}

query: addUser: {
	kind: "update"
	text: "INSERT DATA { ?user schema:name ?name ; schema:age ?age ; schema:active ?active }"
	variables: {
		user: iri: "http://wiki.databorg.ai/users/tim"
		name:   "Tim"
		age:    42
		active: true
	}
	options: {
		rawResults: true
		frame: "@type": "schema:Person"
	}
}
`

func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoad_Directory(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"city.cue": citySource,
		"extra.cue": `
package queries

query: ping: text: "ASK {}"
`,
	})

	cat, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Files)
	assert.Equal(t, []string{"addUser", "cityPopulation", "ping"}, cat.Names())

	city, ok := cat.Lookup("cityPopulation")
	require.True(t, ok)
	assert.Equal(t, KindQuery, city.Kind)
	assert.Equal(t, "Population of a city", city.Description)
	assert.Equal(t, substitute.Variables{"city": sparql.URL("http://dbpedia.org/resource/Berlin")}, city.Variables)
	assert.Equal(t, results.ModeSimple, city.Options.Parsing.Mode)
	assert.True(t, city.Pos.IsValid())

	ping, ok := cat.Lookup("ping")
	require.True(t, ok)
	assert.Equal(t, KindQuery, ping.Kind)
	assert.Empty(t, ping.Variables)
}

func TestParse_VariableKinds(t *testing.T) {
	cat, err := Parse("city.cue", citySource)
	require.NoError(t, err)

	add, ok := cat.Lookup("addUser")
	require.True(t, ok)
	assert.Equal(t, KindUpdate, add.Kind)
	assert.Equal(t, substitute.Variables{
		"user":   sparql.URL("http://wiki.databorg.ai/users/tim"),
		"name":   "Tim",
		"age":    int64(42),
		"active": true,
	}, add.Variables)
	assert.True(t, add.Options.RawResults)
	assert.Equal(t, map[string]any{"@type": "schema:Person"}, add.Options.Frame)

	req := add.Request()
	assert.Equal(t, add.Text, req.Query)
	assert.Equal(t, add.Variables, req.Variables)
}

func TestLookup_Missing(t *testing.T) {
	cat, err := Parse("empty.cue", "")
	require.NoError(t, err)
	_, ok := cat.Lookup("nothing")
	assert.False(t, ok)
	assert.Empty(t, cat.Names())
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing text", `query: q: kind: "query"`},
		{"empty text", `query: q: text: ""`},
		{"bad kind", `query: q: {kind: "describe", text: "ASK {}"}`},
		{"unknown field", `query: q: {text: "ASK {}", timeout: 5}`},
		{"struct variable without iri", `query: q: {text: "ASK {}", variables: x: {uri: "http://x"}}`},
		{"list variable", `query: q: {text: "ASK {}", variables: x: [1, 2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.cue", tt.src)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, ErrCodeSchema, le.Code)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("broken.cue", `query: {`)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
	assert.True(t, IsLoadError(err))
}

func TestParse_BadOptions(t *testing.T) {
	_, err := Parse("opts.cue", `query: q: {text: "ASK {}", options: frame: "not a frame"}`)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeOptions, le.Code)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)

	_, err = Load(t.TempDir())
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeGeneric, Message: "something"}
	assert.Equal(t, "C001: something", err.Error())
}
