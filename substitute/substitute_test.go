package substitute

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneff/databorg-client/sparql"
)

func build(t *testing.T, src string) sparql.Document {
	t.Helper()
	doc, err := sparql.BuildString(src)
	require.NoError(t, err)
	return doc
}

func TestSubstitute_Golden(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		vars     Variables
	}{
		{
			name: "insert_named_node",
			template: `PREFIX dbpedia: <http://dbpedia.org/ontology/>
INSERT DATA { var:uri a dbpedia:Resource }`,
			vars: Variables{"uri": sparql.URL("http://dbpedia.org/Test")},
		},
		{
			name: "insert_user",
			template: `PREFIX schema: <http://schema.org/>
INSERT DATA { GRAPH var:graph { var:user schema:name ?name ; schema:email ?email ; schema:nickname ?nick } }`,
			vars: Variables{
				"graph": sparql.URL("http://wiki.databorg.ai/users"),
				"user":  sparql.URL("borgwiki:User/tim"),
				"name":  "Tim Ermilov",
				"email": "",
				"nick":  0,
			},
		},
		{
			name: "select_nested",
			template: `PREFIX ex: <http://example.org/>
SELECT ?s ?label WHERE {
  ?s ex:type ?kind .
  GRAPH var:g { ?s ex:label ?label }
  { SELECT ?s WHERE { ?s ex:owner ?owner } LIMIT 10 }
  BIND(CONCAT(?prefix, "-x") AS ?tag)
  FILTER(?label = ?kind)
}`,
			vars: Variables{
				"kind":   sparql.URL("http://example.org/Film"),
				"g":      sparql.URL("http://example.org/graph"),
				"owner":  "alice",
				"prefix": "p",
			},
		},
		{
			name: "construct_template",
			template: `PREFIX ex: <http://example.org/>
CONSTRUCT { ?s ex:tag ?tag } WHERE { ?s ex:source var:src }`,
			vars: Variables{
				"tag": sparql.LangLiteral("film", "en"),
				"src": sparql.URL("http://dbpedia.org/resource/Alien"),
			},
		},
		{
			name: "update_modify",
			template: `PREFIX ex: <http://example.org/>
WITH var:g DELETE { ?s ex:status ?old } INSERT { ?s ex:status ?new } WHERE { ?s ex:id ?id ; ex:status ?old }`,
			vars: Variables{
				"g":   sparql.URL("http://example.org/g1"),
				"new": "done",
				"id":  42,
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := Substitute(build(t, tc.template), tc.vars)
			text, err := sparql.Generate(doc)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(text))
		})
	}
}

func TestSubstitute_FalsyValues(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  string
	}{
		{name: "zero", value: 0, want: "0"},
		{name: "false", value: false, want: "false"},
		{name: "empty string", value: "", want: ""},
		{name: "null", value: nil, want: "null"},
		{name: "undefined", value: sparql.Undefined, want: "undefined"},
	}

	tmpl := build(t, "SELECT * WHERE { ?s <http://p> ?v }")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := Substitute(tmpl, Variables{"v": tc.value}).(*sparql.Query)

			require.Len(t, q.Where[0].Triples, 1)
			assert.Equal(t, sparql.Term{Type: sparql.LiteralTerm, Value: tc.want}, q.Where[0].Triples[0].Object)
		})
	}
}

func TestSubstitute_NamedNodePlaceholderEquivalence(t *testing.T) {
	doc := build(t, "SELECT * WHERE { ?x <http://p> var:x }")

	q := Substitute(doc, Variables{"x": sparql.URL("http://a")}).(*sparql.Query)

	triple := q.Where[0].Triples[0]
	assert.Equal(t, sparql.NamedNode("http://a"), triple.Subject)
	assert.Equal(t, triple.Subject, triple.Object)
}

func TestSubstitute_DisjointKeysLeaveTreeUnchanged(t *testing.T) {
	doc := build(t, `PREFIX ex: <http://example.org/>
SELECT ?s WHERE { ?s ex:p var:o . GRAPH ?g { ?s ?p ?o } BIND(?a AS ?b) }`)

	out := Substitute(doc, Variables{"nope": 1, "other": sparql.URL("http://x")})
	assert.Equal(t, doc, out)

	out = Substitute(doc, nil)
	assert.Equal(t, doc, out)
}

func TestSubstitute_DoesNotMutateInput(t *testing.T) {
	doc := build(t, "SELECT * WHERE { ?s <http://p> ?v }")
	before := doc.CloneDocument()

	first := Substitute(doc, Variables{"v": "one"}).(*sparql.Query)
	second := Substitute(doc, Variables{"v": "two"}).(*sparql.Query)

	assert.Equal(t, before, doc)
	assert.Equal(t, sparql.Literal("one"), first.Where[0].Triples[0].Object)
	assert.Equal(t, sparql.Literal("two"), second.Where[0].Triples[0].Object)
}

func TestSubstitute_NoMappedPlaceholderRemains(t *testing.T) {
	doc := build(t, `PREFIX ex: <http://example.org/>
CREATE GRAPH var:g ;
INSERT { GRAPH var:g { var:s ex:p ?v } } WHERE { { SELECT ?x WHERE { ?x ex:q ?v } } BIND(?v AS ?w) OPTIONAL { var:s ex:r ?v } }`)

	out := Substitute(doc, Variables{
		"g": sparql.URL("http://example.org/graph"),
		"s": sparql.URL("http://example.org/subject"),
		"v": 7,
	})
	text, err := sparql.Generate(out)
	require.NoError(t, err)

	assert.NotContains(t, text, "var:")
	assert.NotContains(t, text, "?v ")
	assert.NotContains(t, text, "?v.")
	assert.Contains(t, text, "BIND(\"7\" AS ?w)")
	assert.Contains(t, text, "?w")
}

func TestSubstitute_FilterExpressionsAreSkipped(t *testing.T) {
	doc := build(t, "SELECT * WHERE { ?s ?p ?o FILTER(?o = ?x) }")

	q := Substitute(doc, Variables{"x": 1}).(*sparql.Query)

	filter := q.Where[1]
	require.Equal(t, sparql.FilterPattern, filter.Type)
	assert.Equal(t, sparql.Variable("x"), filter.Expression.Args[1].Term)
}

func TestSubstitute_BindExpressions(t *testing.T) {
	doc := build(t, `SELECT * WHERE { BIND(?x AS ?y) BIND(EXISTS { ?s <http://p> ?x } AS ?has) }`)

	q := Substitute(doc, Variables{"x": "v", "y": "ignored"}).(*sparql.Query)

	bind := q.Where[0]
	assert.Equal(t, sparql.Literal("v"), bind.Expression.Term)
	assert.Equal(t, sparql.Variable("y"), *bind.Variable)

	exists := q.Where[1].Expression.Pattern
	assert.Equal(t, sparql.Literal("v"), exists.Patterns[0].Triples[0].Object)
}

func TestSubstitute_GraphStoreTargets(t *testing.T) {
	doc := build(t, "LOAD <http://src> INTO GRAPH var:dst ; CLEAR GRAPH var:dst ; COPY var:dst TO DEFAULT")

	u := Substitute(doc, Variables{"dst": sparql.URL("http://g")}).(*sparql.Update)

	assert.Equal(t, sparql.NamedNode("http://g"), u.Operations[0].Destination.Name)
	assert.Equal(t, sparql.NamedNode("http://src"), u.Operations[0].Source.Name)
	assert.Equal(t, sparql.NamedNode("http://g"), u.Operations[1].Graph.Name)
	assert.Equal(t, sparql.NamedNode("http://g"), u.Operations[2].Source.Name)
}

func TestSubstitute_StagedSubstitution(t *testing.T) {
	doc := build(t, "SELECT * WHERE { ?a <http://p> ?b }")

	partial := Substitute(doc, Variables{"a": sparql.URL("http://a")})
	q := partial.(*sparql.Query)
	assert.Equal(t, sparql.Variable("b"), q.Where[0].Triples[0].Object)

	full := Substitute(partial, Variables{"b": 2}).(*sparql.Query)
	assert.Equal(t, sparql.NamedNode("http://a"), full.Where[0].Triples[0].Subject)
	assert.Equal(t, sparql.Literal("2"), full.Where[0].Triples[0].Object)
}

func TestInPlace_MutatesDocument(t *testing.T) {
	doc := build(t, "SELECT * WHERE { ?s <http://p> ?v }")

	InPlace(doc, Variables{"v": true})

	assert.Equal(t, sparql.Literal("true"), doc.(*sparql.Query).Where[0].Triples[0].Object)
}

func TestSubstitute_NilDocument(t *testing.T) {
	assert.Nil(t, Substitute(nil, Variables{"x": 1}))
}

func pathLinks(p *sparql.Path) []sparql.Term {
	if p.Type == sparql.PathLink {
		return []sparql.Term{p.Link}
	}
	var links []sparql.Term
	for _, item := range p.Items {
		links = append(links, pathLinks(item)...)
	}
	return links
}

func TestSubstitute_PropertyPathLinks(t *testing.T) {
	doc := build(t, `PREFIX ex: <http://example.org/>
SELECT * WHERE { ?s (var:p/ex:q)|^var:p ?o }`)

	q := Substitute(doc, Variables{"p": sparql.URL("http://example.org/knows")}).(*sparql.Query)

	triple := q.Where[0].Triples[0]
	require.NotNil(t, triple.Path)
	assert.Equal(t, []sparql.Term{
		sparql.NamedNode("http://example.org/knows"),
		sparql.NamedNode("http://example.org/q"),
		sparql.NamedNode("http://example.org/knows"),
	}, pathLinks(triple.Path))

	text, err := sparql.Generate(q)
	require.NoError(t, err)
	assert.NotContains(t, text, "var:")

	original := doc.(*sparql.Query).Where[0].Triples[0]
	assert.True(t, pathLinks(original.Path)[0].IsPlaceholder("p"))
}
