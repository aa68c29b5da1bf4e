package substitute

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pneff/databorg-client/sparql"
)

func TestResolve(t *testing.T) {
	typed := sparql.TypedLiteral("5", sparql.XSDInteger)

	testCases := []struct {
		name  string
		value any
		want  sparql.Term
	}{
		{name: "named node", value: sparql.URL("http://a"), want: sparql.NamedNode("http://a")},
		{name: "typed literal keeps datatype", value: typed, want: typed},
		{name: "term pointer", value: &typed, want: typed},
		{name: "language literal", value: sparql.LangLiteral("hi", "en"), want: sparql.LangLiteral("hi", "en")},
		{name: "iri-looking string stays literal", value: "http://example.org/x", want: sparql.Literal("http://example.org/x")},
		{name: "nil term pointer", value: (*sparql.Term)(nil), want: sparql.Literal("null")},
		{name: "number", value: 3.25, want: sparql.Literal("3.25")},
		{name: "variable term", value: sparql.Variable("other"), want: sparql.Variable("other")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.value))
		})
	}
}

func TestTerm(t *testing.T) {
	assert.False(t, Term(nil, "x", 1))

	v := sparql.Variable("x")
	assert.False(t, Term(&v, "xy", 1))
	assert.Equal(t, sparql.Variable("x"), v)

	assert.True(t, Term(&v, "x", 1))
	assert.Equal(t, sparql.Literal("1"), v)

	n := sparql.NamedNode("var://x")
	assert.True(t, Term(&n, "x", sparql.URL("http://a")))
	assert.Equal(t, sparql.NamedNode("http://a"), n)
}
