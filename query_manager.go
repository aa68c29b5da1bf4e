package databorg

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pneff/databorg-client/exchange"
	"github.com/pneff/databorg-client/sparql"
	"github.com/pneff/databorg-client/substitute"
)

// ErrNoQuery is returned when a request carries no query.
var ErrNoQuery = errors.New("databorg: request has no query")

// Parser turns query text into a query tree.
type Parser interface {
	Parse(src string) (sparql.Document, error)
}

// QueryManager turns request input into substituted query trees.
//
// Query text is parsed with a prologue declaring the client prefixes
// (sorted by name) and the var: placeholder namespace. Declarations in the
// query text itself take precedence.
type QueryManager struct {
	prologue  string
	parser    Parser
	generator exchange.Serializer
}

// NewQueryManager creates a QueryManager for prefixes.
func NewQueryManager(prefixes map[string]string) *QueryManager {
	return &QueryManager{
		prologue:  prologue(prefixes),
		parser:    sparql.DefaultParser,
		generator: sparql.DefaultGenerator,
	}
}

func prologue(prefixes map[string]string) string {
	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", name, prefixes[name])
	}
	b.WriteString(sparql.PlaceholderPrologue)
	return b.String()
}

// Transform parses query when it is text and returns a copy of the tree
// with vars substituted. query must be a string or a sparql.Document; a
// Document argument is never modified.
func (m *QueryManager) Transform(query any, vars substitute.Variables) (sparql.Document, error) {
	var doc sparql.Document
	switch q := query.(type) {
	case nil:
		return nil, ErrNoQuery
	case string:
		if strings.TrimSpace(q) == "" {
			return nil, ErrNoQuery
		}
		parsed, err := m.parser.Parse(m.prologue + q)
		if err != nil {
			return nil, m.relocate(err)
		}
		doc = parsed
	case sparql.Document:
		doc = q
	default:
		return nil, fmt.Errorf("databorg: unsupported query type %T", query)
	}
	return substitute.Substitute(doc, vars), nil
}

// relocate shifts parse error positions so they refer to the caller's
// text rather than the prologue-prefixed source.
func (m *QueryManager) relocate(err error) error {
	var perr *sparql.ParseError
	if !errors.As(err, &perr) {
		return err
	}
	lines := strings.Count(m.prologue, "\n")
	if perr.Line <= lines {
		return err
	}
	moved := *perr
	moved.Line -= lines
	return &moved
}

// QueryToString renders doc as SPARQL text.
func (m *QueryManager) QueryToString(doc sparql.Document) (string, error) {
	return m.generator.Generate(doc)
}
