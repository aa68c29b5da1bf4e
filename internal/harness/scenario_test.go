package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/sparql"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenarioPath := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
prefixes:
  ex: http://example.org/
steps:
  - query: "SELECT * WHERE { var:s ?p ?o }"
    variables:
      s: { iri: "http://example.org/a" }
      age: 42
      label: { literal: "Hallo", lang: "de" }
      n: { literal: "5", datatype: "http://www.w3.org/2001/XMLSchema#integer" }
      v: { variable: "x" }
      plain: { literal: "p" }
    options:
      parsing: { type: properties }
assertions:
  - type: request_count
    count: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "http://example.org/", scenario.Prefixes["ex"])
	require.Len(t, scenario.Steps, 1)
	assert.Len(t, scenario.Assertions, 1)

	vars := scenario.Steps[0].variables()
	assert.Equal(t, sparql.URL("http://example.org/a"), vars["s"])
	assert.Equal(t, 42, vars["age"])
	assert.Equal(t, sparql.LangLiteral("Hallo", "de"), vars["label"])
	assert.Equal(t, sparql.TypedLiteral("5", "http://www.w3.org/2001/XMLSchema#integer"), vars["n"])
	assert.Equal(t, sparql.Variable("x"), vars["v"])
	assert.Equal(t, sparql.Literal("p"), vars["plain"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing_name",
			content: "description: d\nsteps:\n  - query: ASK {}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing_description",
			content: "name: n\nsteps:\n  - query: ASK {}\n",
			wantErr: "description is required",
		},
		{
			name:    "no_steps",
			content: "name: n\ndescription: d\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty_query",
			content: "name: n\ndescription: d\nsteps:\n  - kind: query\n",
			wantErr: "steps[0]: query is required",
		},
		{
			name:    "unknown_kind",
			content: "name: n\ndescription: d\nsteps:\n  - kind: construct\n    query: ASK {}\n",
			wantErr: `unknown kind "construct"`,
		},
		{
			name:    "bad_status",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\n    reply: { status: 42 }\n",
			wantErr: "status 42 is not an HTTP status",
		},
		{
			name:    "unknown_field",
			content: "name: n\ndescription: d\nstep:\n  - query: ASK {}\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown_assertion",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\nassertions:\n  - type: final_state\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "contains_without_text",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\nassertions:\n  - type: request_contains\n",
			wantErr: "text is required for request_contains",
		},
		{
			name:    "step_out_of_range",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\nassertions:\n  - type: request_header\n    step: 3\n    header: Accept\n",
			wantErr: "step 3 out of range",
		},
		{
			name:    "order_without_kinds",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\nassertions:\n  - type: request_order\n",
			wantErr: "kinds list is required",
		},
		{
			name:    "journal_without_status",
			content: "name: n\ndescription: d\nsteps:\n  - query: ASK {}\nassertions:\n  - type: journal\n",
			wantErr: "status list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			_, err := LoadScenario(file)
			require.NoError(t, err)
		})
	}
}
