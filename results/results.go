// Package results decodes SPARQL query responses and reshapes them into the
// forms callers consume.
//
// JSON responses (SPARQL 1.1 Query Results JSON) are validated against an
// embedded JSON Schema, decoded into Results and normalized by Normalize in
// one of three modes: simple rows, a subject/predicate/object property map,
// or a caller-supplied row processor. Graph responses (Turtle or N-Triples
// from CONSTRUCT and DESCRIBE) are converted to JSON-LD by ParseGraph and
// optionally framed.
package results

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pneff/databorg-client/sparql"
)

//go:embed schema.json
var schemaJSON string

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Results is a SPARQL 1.1 JSON results document. Boolean is set for ASK
// queries, Results for SELECT queries.
type Results struct {
	Head    Head      `json:"head"`
	Boolean *bool     `json:"boolean,omitempty"`
	Results *Bindings `json:"results,omitempty"`
}

// Head lists the projected variables.
type Head struct {
	Vars []string `json:"vars,omitempty"`
	Link []string `json:"link,omitempty"`
}

// Bindings holds the solution sequence.
type Bindings struct {
	Bindings []Row `json:"bindings"`
}

// Row is one solution: variable name to bound term. Unbound variables are
// absent.
type Row map[string]Binding

// Binding is an RDF term in SPARQL JSON form.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Term converts b to a query term.
func (b Binding) Term() sparql.Term {
	switch b.Type {
	case "uri":
		return sparql.NamedNode(b.Value)
	case "bnode":
		return sparql.BlankNode(b.Value)
	default:
		return sparql.Term{Type: sparql.LiteralTerm, Value: b.Value, Language: b.Language, Datatype: b.Datatype}
	}
}

// Rows returns the solutions of r, or nil for a boolean result.
func (r *Results) Rows() []Row {
	if r == nil || r.Results == nil {
		return nil
	}
	return r.Results.Bindings
}

// ValidationError reports a JSON document that is not a SPARQL results
// document.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "results: invalid SPARQL JSON: " + strings.Join(e.Problems, "; ")
}

// Decode validates raw against the SPARQL JSON results schema and decodes
// it.
func Decode(raw []byte) (*Results, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("results: load schema: %w", err)
	}
	outcome, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("results: decode: %w", err)
	}
	if !outcome.Valid() {
		verr := &ValidationError{}
		for _, problem := range outcome.Errors() {
			verr.Problems = append(verr.Problems, problem.String())
		}
		return nil, verr
	}

	var res Results
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("results: decode: %w", err)
	}
	return &res, nil
}

// WithRaw pairs normalized results with the response they came from.
type WithRaw struct {
	Results any             `json:"results"`
	Raw     json.RawMessage `json:"_raw"`
}
