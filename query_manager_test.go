package databorg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

func TestPrologue_SortedWithPlaceholderNamespace(t *testing.T) {
	got := prologue(map[string]string{"z": "http://z/", "a": "http://a/"})
	assert.Equal(t, "PREFIX a: <http://a/>\nPREFIX z: <http://z/>\n"+sparql.PlaceholderPrologue, got)
}

func TestQueryManager_QueryPrefixOverridesClientPrefix(t *testing.T) {
	m := NewQueryManager(map[string]string{"ex": "http://client/"})

	doc, err := m.Transform("PREFIX ex: <http://query/>\nSELECT * WHERE { ex:a ?p ?o }", nil)
	require.NoError(t, err)
	text, err := m.QueryToString(doc)
	require.NoError(t, err)
	assert.Equal(t, "PREFIX ex: <http://query/>\nSELECT *\nWHERE { ex:a ?p ?o. }", text)
}

func TestQueryManager_ParseErrorLineIsRelativeToQuery(t *testing.T) {
	m := NewQueryManager(map[string]string{"a": "http://a/", "b": "http://b/"})

	_, err := m.Transform("SELECT *\nWHERE { ?s ?p }", nil)
	var perr *sparql.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestQueryManager_StringStaysLiteral(t *testing.T) {
	m := NewQueryManager(nil)

	doc, err := m.Transform("SELECT * WHERE { ?s ?p ?o }", substitute.Variables{"o": "http://looks.like/a/url"})
	require.NoError(t, err)
	text, err := m.QueryToString(doc)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nWHERE { ?s ?p \"http://looks.like/a/url\". }", text)
}
